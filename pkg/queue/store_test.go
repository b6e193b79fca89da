package queue

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "task_queue.json"), 3)
	require.NoError(t, err)
	return s
}

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, 0, s.PendingCount())
}

func TestNextTask_PriorityOrder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(
		&Task{Goal: "g", Action: "background one", Type: TypeThink, Priority: Background},
		&Task{Goal: "g", Action: "critical one", Type: TypeThink, Priority: Critical},
		&Task{Goal: "g", Action: "normal one", Type: TypeThink, Priority: Normal},
	))

	next := s.NextTask()
	require.NotNil(t, next)
	assert.Equal(t, "critical one", next.Action)
}

func TestNextTask_FIFOWithinPriority(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(
		&Task{Goal: "g", Action: "first", Type: TypeThink, Priority: Normal},
		&Task{Goal: "g", Action: "second", Type: TypeThink, Priority: Normal},
	))

	next := s.NextTask()
	require.NotNil(t, next)
	assert.Equal(t, "first", next.Action)
}

func TestNextTask_DependencyGating(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(&Task{ID: "dep1", Goal: "g", Action: "setup", Type: TypeThink, Priority: Normal}))
	require.NoError(t, s.Enqueue(&Task{ID: "dep2", Goal: "g", Action: "depends", Type: TypeThink, Priority: Critical, DependsOn: []string{"dep1"}}))

	// dep2 is higher priority but its dependency isn't completed, so dep1 is selected.
	next := s.NextTask()
	require.NotNil(t, next)
	assert.Equal(t, "dep1", next.ID)

	require.NoError(t, s.MarkCompleted("dep1", "done"))
	next = s.NextTask()
	require.NotNil(t, next)
	assert.Equal(t, "dep2", next.ID)
}

func TestNextTask_UnknownDependencyNeverEligible(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(&Task{ID: "t1", Goal: "g", Action: "a", Type: TypeThink, Priority: Normal, DependsOn: []string{"nonexistent"}}))

	assert.Nil(t, s.NextTask())
}

func TestMarkFailed_RetriesUntilBudgetExhausted(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(&Task{ID: "t1", Goal: "g", Action: "a", Type: TypeShell, Priority: Normal}))

	require.NoError(t, s.MarkFailed("t1", "boom", "attempt 1"))
	task, err := s.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, task.Status)

	require.NoError(t, s.MarkFailed("t1", "boom", "attempt 2"))
	require.NoError(t, s.MarkFailed("t1", "boom", "attempt 3"))
	task, err = s.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Len(t, task.Attempts, 3)
}

func TestClearCompleted(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(
		&Task{ID: "done", Goal: "g", Action: "a", Type: TypeThink, Priority: Normal},
		&Task{ID: "pending", Goal: "g", Action: "b", Type: TypeThink, Priority: Normal},
	))
	require.NoError(t, s.MarkCompleted("done", "ok"))

	require.NoError(t, s.ClearCompleted())

	_, err := s.Get("done")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("pending")
	assert.NoError(t, err)
}

func TestPurge_RemovesOldTerminalTasksOnly(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(
		&Task{ID: "old-done", Goal: "g", Action: "a", Type: TypeThink, Priority: Normal},
		&Task{ID: "recent-done", Goal: "g", Action: "b", Type: TypeThink, Priority: Normal},
		&Task{ID: "pending", Goal: "g", Action: "c", Type: TypeThink, Priority: Normal},
	))

	original := nowFunc
	defer func() { nowFunc = original }()

	nowFunc = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	require.NoError(t, s.MarkCompleted("old-done", "ok"))

	nowFunc = original
	require.NoError(t, s.MarkCompleted("recent-done", "ok"))

	removed, err := s.Purge(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Get("old-done")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("recent-done")
	assert.NoError(t, err)
	_, err = s.Get("pending")
	assert.NoError(t, err)
}

func TestPurge_NoOldTasksIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Enqueue(&Task{ID: "t1", Goal: "g", Action: "a", Type: TypeThink, Priority: Normal}))

	removed, err := s.Purge(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestOpen_PersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_queue.json")
	s1, err := Open(path, 3)
	require.NoError(t, err)
	require.NoError(t, s1.Enqueue(&Task{ID: "t1", Goal: "g", Action: "a", Type: TypeThink, Priority: Normal}))

	s2, err := Open(path, 3)
	require.NoError(t, err)
	task, err := s2.Get("t1")
	require.NoError(t, err)
	assert.Equal(t, "a", task.Action)
}
