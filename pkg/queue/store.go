package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxAttempts is how many times mark-failed retries a task before it
// becomes terminally Failed, matching AUTONOMY_MAX_RETRIES's default of 3.
const DefaultMaxAttempts = 3

// ErrNotFound indicates a lookup by task ID found nothing in the queue.
var ErrNotFound = errors.New("task not found")

// nowFunc is overridden in tests that need a fixed CompletedAt.
var nowFunc = time.Now

// Store is the durable, JSON-file-backed task queue. All mutations rewrite
// the entire file; callers needing atomicity across a read-then-write
// sequence must hold the lock for the whole sequence (see NextTask).
//
// A single Store is meant to be shared by one Execution Loop and any number
// of planners/schedulers enqueuing into it concurrently — RWMutex guards
// the in-memory slice exactly as WorkerPool guarded its session map.
type Store struct {
	path        string
	maxAttempts int

	mu    sync.RWMutex
	tasks []*Task
}

// Open loads path if it exists and returns a ready Store. A missing file is
// not an error: the store starts empty, matching the original's behavior of
// starting an empty queue when task_queue.json hasn't been created yet.
func Open(path string, maxAttempts int) (*Store, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	s := &Store{path: path, maxAttempts: maxAttempts}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("task queue file not found, starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("reading task queue %s: %w", path, err)
	}

	var tasks []*Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		slog.Warn("failed to parse task queue, starting empty", "path", path, "error", err)
		return s, nil
	}
	s.tasks = tasks

	pending := 0
	for _, t := range tasks {
		if t.Status == StatusPending {
			pending++
		}
	}
	slog.Info("loaded task queue", "total", len(tasks), "pending", pending)
	return s, nil
}

// save rewrites the entire queue file. Caller must hold s.mu (read or write).
// It writes to a temp file in the same directory and renames it over the
// real path, so a crash mid-write never leaves a truncated or partially
// written queue file behind.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating queue dir: %w", err)
	}
	data, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling task queue: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp queue file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp queue file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting queue file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming queue file into place: %w", err)
	}
	return nil
}

// NewTaskID produces an 8-character task ID, matching str(uuid.uuid4())[:8].
func NewTaskID() string {
	return uuid.NewString()[:8]
}

// Enqueue appends one or more already-constructed tasks and persists.
func (s *Store) Enqueue(tasks ...*Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = NewTaskID()
		}
		if t.Status == "" {
			t.Status = StatusPending
		}
		if t.Attempts == nil {
			t.Attempts = []string{}
		}
		if t.DependsOn == nil {
			t.DependsOn = []string{}
		}
		s.tasks = append(s.tasks, t)
	}
	return s.save()
}

// NextTask returns the next eligible task: the priority tiers are scanned in
// order Critical, High, Normal, Background, and within a tier tasks are
// scanned in the order they were enqueued (slice order). A task is eligible
// once it is Pending and every ID in DependsOn belongs to a Completed task
// currently in the queue — a dependency on an ID that is missing, still
// pending, or otherwise not completed keeps the task ineligible forever,
// it is never silently dropped from the check.
func (s *Store) NextTask() *Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range priorityOrder {
		for _, t := range s.tasks {
			if t.Status != StatusPending || t.Priority != p {
				continue
			}
			if s.dependenciesMet(t) {
				return t
			}
		}
	}
	return nil
}

func (s *Store) dependenciesMet(t *Task) bool {
	for _, dep := range t.DependsOn {
		ok := false
		for _, other := range s.tasks {
			if other.ID == dep && other.Status == StatusCompleted {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// Get returns the task with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
}

// MarkInProgress transitions a task to InProgress and persists.
func (s *Store) MarkInProgress(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	t.Status = StatusInProgress
	return s.save()
}

// MarkCompleted transitions a task to Completed with its result and persists.
func (s *Store) MarkCompleted(id, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	t.Status = StatusCompleted
	t.Result = result
	t.CompletedAt = nowFunc()
	return s.save()
}

// MarkFailed records a failed attempt. Once the attempt count reaches
// maxAttempts the task becomes terminally Failed; otherwise it is returned
// to Pending so NextTask can select it again (giving self-reflection's
// rewritten command/strategy a chance to run).
func (s *Store) MarkFailed(id, errMsg, attempt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	t.Error = errMsg
	if attempt == "" {
		attempt = errMsg
	}
	t.Attempts = append(t.Attempts, attempt)
	if len(t.Attempts) >= s.maxAttempts {
		t.Status = StatusFailed
	} else {
		t.Status = StatusPending
	}
	return s.save()
}

// UpdateStrategy rewrites a pending-again task's command and/or type, used
// by self-reflection to apply a revised approach or escalate to the api
// handler. It does not touch status or attempts.
func (s *Store) UpdateStrategy(id string, taskType Type, command string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.find(id)
	if t == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if taskType != "" {
		t.Type = taskType
	}
	t.Command = command
	return s.save()
}

// find must be called with s.mu held.
func (s *Store) find(id string) *Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// PendingCount returns the number of Pending tasks.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tasks {
		if t.Status == StatusPending {
			n++
		}
	}
	return n
}

// Summary returns aggregate counts across all statuses.
func (s *Store) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum Summary
	sum.Total = len(s.tasks)
	for _, t := range s.tasks {
		switch t.Status {
		case StatusPending:
			sum.Pending++
		case StatusInProgress:
			sum.InProgress++
		case StatusCompleted:
			sum.Completed++
		case StatusFailed:
			sum.Failed++
		}
	}
	return sum
}

// ClearCompleted removes every Completed task from the queue and persists.
func (s *Store) ClearCompleted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Status != StatusCompleted {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return s.save()
}

// Purge removes terminal tasks (Completed, Failed, Cancelled) older than
// olderThan and persists. Pending/in-progress/blocked tasks are never
// touched regardless of age. Returns the number of tasks removed.
func (s *Store) Purge(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := nowFunc().Add(-olderThan)
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.IsTerminal() && !t.CompletedAt.IsZero() && t.CompletedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save()
}
