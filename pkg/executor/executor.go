// Copyright 2026 The CurationGym Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
// Package executor implements the resumable, shard-parallel executor from
// spec §4.8: a fixed-size worker pool over shard tasks with checkpointed,
// atomically-persisted task state, grounded on the teacher's
// parseFilesParallel jobs-channel/sync.WaitGroup worker pool.
package executor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/waycodes/curationgym/internal/curationerr"
)

// Status is a shard task's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// TaskState is one shard task's persisted status.
type TaskState struct {
	TaskID        string `json:"task_id"`
	Status        Status `json:"status"`
	DocsProcessed int    `json:"docs_processed"`
	Error         string `json:"error,omitempty"`
}

// ExecutionState is the full execution_state.json record from spec §6.
type ExecutionState struct {
	RunID      string                `json:"run_id"`
	TotalTasks int                   `json:"total_tasks"`
	Tasks      map[string]*TaskState `json:"tasks"`
}

// loadState reads path and returns the state only if it matches runID;
// any mismatch or read failure yields a fresh state, per spec §4.8 step 1.
func loadState(path, runID string) *ExecutionState {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied output dir
	if err != nil {
		return &ExecutionState{RunID: runID, Tasks: make(map[string]*TaskState)}
	}
	var state ExecutionState
	if err := json.Unmarshal(data, &state); err != nil || state.RunID != runID {
		return &ExecutionState{RunID: runID, Tasks: make(map[string]*TaskState)}
	}
	if state.Tasks == nil {
		state.Tasks = make(map[string]*TaskState)
	}
	return &state
}

func saveState(path string, state *ExecutionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return curationerr.NewInternalError("cannot marshal execution state", path, "", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return curationerr.NewStorageError("cannot write execution state temp file", tmpPath, "", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return curationerr.NewStorageError("cannot rename execution state into place", path, "", err)
	}
	return nil
}

// ShardTask is one unit of sharded work: a callable, given the run's
// context, that runs the shard's producer through the pipeline start-to-finish and
// reports how many documents it processed.
type ShardTask struct {
	ID  string
	Run func(ctx context.Context) (docsProcessed int, err error)
}

// Executor drives a fixed-size worker pool over a set of ShardTasks,
// persisting ExecutionState atomically on every status transition.
type Executor struct {
	statePath  string
	numWorkers int
	logger     *slog.Logger

	mu    sync.Mutex
	state *ExecutionState
}

// New opens or creates the execution state for runID at statePath. A
// numWorkers of 1 or less runs tasks sequentially.
func New(statePath, runID string, numWorkers int, logger *slog.Logger) *Executor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		statePath:  statePath,
		numWorkers: numWorkers,
		logger:     logger,
		state:      loadState(statePath, runID),
	}
}

// State returns a snapshot of the current execution state.
func (e *Executor) State() ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	tasks := make(map[string]*TaskState, len(e.state.Tasks))
	for id, t := range e.state.Tasks {
		copy := *t
		tasks[id] = &copy
	}
	return ExecutionState{RunID: e.state.RunID, TotalTasks: e.state.TotalTasks, Tasks: tasks}
}

// transition mutates one task's state and persists atomically, holding the
// lock for the whole read-modify-persist sequence so concurrent workers
// never race on the state file.
func (e *Executor) transition(taskID string, mutate func(*TaskState)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.state.Tasks[taskID]
	if !ok {
		t = &TaskState{TaskID: taskID, Status: StatusPending}
		e.state.Tasks[taskID] = t
	}
	mutate(t)
	return saveState(e.statePath, e.state)
}

// Execute runs every task not already StatusCompleted, dispatching via a
// worker pool of size numWorkers. Completed tasks are never re-run within
// the same run id; failed tasks are retried. Execute always returns nil:
// per-task failures are recorded in state, and errors persisting state are
// logged as executor.state.persist.error without being returned.
func (e *Executor) Execute(ctx context.Context, tasks []ShardTask) error {
	e.mu.Lock()
	e.state.TotalTasks = len(tasks)
	_ = saveState(e.statePath, e.state)
	e.mu.Unlock()

	pending := make([]ShardTask, 0, len(tasks))
	for _, task := range tasks {
		e.mu.Lock()
		existing, ok := e.state.Tasks[task.ID]
		e.mu.Unlock()
		if ok && existing.Status == StatusCompleted {
			e.logger.Info("executor.task.skip_completed", "task_id", task.ID)
			continue
		}
		pending = append(pending, task)
	}

	if e.numWorkers == 1 || len(pending) <= 1 {
		for _, task := range pending {
			if ctx.Err() != nil {
				return nil
			}
			e.runOne(ctx, task)
		}
		return nil
	}

	jobs := make(chan ShardTask, len(pending))
	var wg sync.WaitGroup
	for w := 0; w < e.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range jobs {
				if ctx.Err() != nil {
					return
				}
				e.runOne(ctx, task)
			}
		}()
	}
	for _, task := range pending {
		jobs <- task
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (e *Executor) runOne(ctx context.Context, task ShardTask) {
	if err := e.transition(task.ID, func(t *TaskState) { t.Status = StatusRunning }); err != nil {
		e.logger.Warn("executor.state.persist.error", "task_id", task.ID, "err", err)
	}
	e.logger.Info("executor.task.start", "task_id", task.ID)

	docs, err := task.Run(ctx)

	if err != nil {
		e.logger.Warn("executor.task.failed", "task_id", task.ID, "err", err)
		if perr := e.transition(task.ID, func(t *TaskState) {
			t.Status = StatusFailed
			t.Error = err.Error()
			t.DocsProcessed = docs
		}); perr != nil {
			e.logger.Warn("executor.state.persist.error", "task_id", task.ID, "err", perr)
		}
		return
	}

	e.logger.Info("executor.task.complete", "task_id", task.ID, "docs_processed", docs)
	if perr := e.transition(task.ID, func(t *TaskState) {
		t.Status = StatusCompleted
		t.DocsProcessed = docs
		t.Error = ""
	}); perr != nil {
		e.logger.Warn("executor.state.persist.error", "task_id", task.ID, "err", perr)
	}
}
