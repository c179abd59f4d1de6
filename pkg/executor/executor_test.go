package executor

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecuteRunsAllTasksSequentially(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "execution_state.json")
	e := New(statePath, "run-1", 1, nil)

	var ran int32
	tasks := []ShardTask{
		{ID: "t1", Run: func(ctx context.Context) (int, error) { atomic.AddInt32(&ran, 1); return 5, nil }},
		{ID: "t2", Run: func(ctx context.Context) (int, error) { atomic.AddInt32(&ran, 1); return 7, nil }},
	}

	require.NoError(t, e.Execute(context.Background(), tasks))
	require.EqualValues(t, 2, ran)

	state := e.State()
	require.Equal(t, StatusCompleted, state.Tasks["t1"].Status)
	require.Equal(t, 5, state.Tasks["t1"].DocsProcessed)
	require.Equal(t, StatusCompleted, state.Tasks["t2"].Status)
}

func TestExecuteSkipsCompletedTasksOnResume(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "execution_state.json")
	e := New(statePath, "run-1", 1, nil)

	var calls int32
	tasks := []ShardTask{
		{ID: "t1", Run: func(ctx context.Context) (int, error) { atomic.AddInt32(&calls, 1); return 3, nil }},
	}
	require.NoError(t, e.Execute(context.Background(), tasks))
	require.EqualValues(t, 1, calls)

	resumed := New(statePath, "run-1", 1, nil)
	require.NoError(t, resumed.Execute(context.Background(), tasks))
	require.EqualValues(t, 1, calls, "completed task must not re-run within the same run id")
}

func TestExecuteRetriesFailedTask(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "execution_state.json")
	e := New(statePath, "run-1", 1, nil)

	tasks := []ShardTask{
		{ID: "t1", Run: func(ctx context.Context) (int, error) { return 0, errors.New("boom") }},
	}
	require.NoError(t, e.Execute(context.Background(), tasks))
	state := e.State()
	require.Equal(t, StatusFailed, state.Tasks["t1"].Status)
	require.Equal(t, "boom", state.Tasks["t1"].Error)

	resumed := New(statePath, "run-1", 1, nil)
	retried := []ShardTask{
		{ID: "t1", Run: func(ctx context.Context) (int, error) { return 9, nil }},
	}
	require.NoError(t, resumed.Execute(context.Background(), retried))
	require.Equal(t, StatusCompleted, resumed.State().Tasks["t1"].Status)
}

func TestExecuteParallelRunsAllTasks(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "execution_state.json")
	e := New(statePath, "run-1", 4, nil)

	var ran int32
	tasks := make([]ShardTask, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, ShardTask{
			ID: "t" + string(rune('a'+i)),
			Run: func(ctx context.Context) (int, error) {
				atomic.AddInt32(&ran, 1)
				return 1, nil
			},
		})
	}
	require.NoError(t, e.Execute(context.Background(), tasks))
	require.EqualValues(t, 10, ran)

	state := e.State()
	require.Len(t, state.Tasks, 10)
	for _, task := range state.Tasks {
		require.Equal(t, StatusCompleted, task.Status)
	}
}

func TestDifferentRunIDDoesNotReuseStaleState(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "execution_state.json")
	e := New(statePath, "run-1", 1, nil)
	require.NoError(t, e.Execute(context.Background(), []ShardTask{
		{ID: "t1", Run: func(ctx context.Context) (int, error) { return 1, nil }},
	}))

	fresh := New(statePath, "run-2", 1, nil)
	require.Empty(t, fresh.State().Tasks)
}
