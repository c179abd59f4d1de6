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
package pipeline

import (
	"sort"
	"sync"
	"time"
)

// StageTimer accumulates wall-clock time per named stage across a run,
// generalizing the teacher's inline time.Now/time.Since-per-step pattern
// (local_pipeline.go's parseDuration/embedDuration/writeDuration) into a
// reusable collector so the pipeline can report a stage breakdown without
// a bespoke duration variable per step.
type StageTimer struct {
	mu     sync.Mutex
	totals map[string]time.Duration
}

// NewStageTimer creates an empty timer.
func NewStageTimer() *StageTimer {
	return &StageTimer{totals: make(map[string]time.Duration)}
}

// Time runs fn and adds its elapsed duration to name's running total.
func (t *StageTimer) Time(name string, fn func()) {
	start := time.Now()
	fn()
	t.Add(name, time.Since(start))
}

// Add accumulates d onto name's running total directly, for callers that
// already measured elapsed time themselves.
func (t *StageTimer) Add(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals[name] += d
}

// StageDuration is one stage's accumulated duration, for deterministic
// (sorted) reporting.
type StageDuration struct {
	Stage string
	Total time.Duration
}

// Snapshot returns every stage's accumulated duration sorted by stage name.
func (t *StageTimer) Snapshot() []StageDuration {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]StageDuration, 0, len(t.totals))
	for stage, total := range t.totals {
		out = append(out, StageDuration{Stage: stage, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}
