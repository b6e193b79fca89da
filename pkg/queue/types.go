// Package queue implements sovra's durable task queue: priority-and-
// dependency ordered selection over a flat JSON-file-backed store.
package queue

import (
	"time"
)

// Priority orders tasks for selection. Selection always scans Critical
// before High before Normal before Background, and within a priority
// tier in the FIFO order tasks were enqueued.
type Priority string

const (
	Critical   Priority = "critical"
	High       Priority = "high"
	Normal     Priority = "normal"
	Background Priority = "background"
)

var priorityOrder = []Priority{Critical, High, Normal, Background}

// Type selects which executor handler runs a task.
type Type string

const (
	TypeShell Type = "shell"
	TypeFile  Type = "file"
	TypeWeb   Type = "web"
	TypeAPI   Type = "api"
	TypeThink Type = "think"
)

// Status is a task's position in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
	StatusCancelled  Status = "cancelled"
)

// Task is a single executable unit of work in the queue.
type Task struct {
	ID          string    `json:"id"`
	Goal        string    `json:"goal"`
	Action      string    `json:"action"`
	Type        Type      `json:"task_type"`
	Command     string    `json:"command"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	ParentID    string    `json:"parent_id,omitempty"`
	DependsOn   []string  `json:"depends_on"`
	Tags        []string  `json:"tags,omitempty"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	Attempts    []string  `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the task has left the pending/in-progress/
// blocked lifecycle and will never be selected again.
func (t *Task) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Summary is the aggregate counts used by status reporting.
type Summary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
