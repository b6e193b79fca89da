package events

// TaskEnqueuedPayload is the payload for task.enqueued events.
type TaskEnqueuedPayload struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	Goal      string `json:"goal"`
	Priority  string `json:"priority"`
	ParentID  string `json:"parent_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TaskStartedPayload is the payload for task.started events.
type TaskStartedPayload struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	Action    string `json:"action"`
	Attempt   int    `json:"attempt"`
	Timestamp string `json:"timestamp"`
}

// TaskCompletedPayload is the payload for task.completed events.
type TaskCompletedPayload struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
}

// TaskFailedPayload is the payload for task.failed events.
type TaskFailedPayload struct {
	Type      string `json:"type"`
	TaskID    string `json:"task_id"`
	Error     string `json:"error"`
	Attempt   int    `json:"attempt"`
	Terminal  bool   `json:"terminal"` // true once attempts are exhausted
	Timestamp string `json:"timestamp"`
}

// TaskReflectedPayload is the payload for task.reflected events, fired when
// the reflection engine rewrites a failed task's strategy or escalates it.
type TaskReflectedPayload struct {
	Type       string `json:"type"`
	TaskID     string `json:"task_id"`
	Escalated  bool   `json:"escalated"`
	NewCommand string `json:"new_command,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// JobTriggeredPayload is the payload for job.triggered events, fired when
// the proactive scheduler fires a built-in or dynamic cron job.
type JobTriggeredPayload struct {
	Type      string `json:"type"`
	JobName   string `json:"job_name"`
	TaskID    string `json:"task_id,omitempty"`
	Timestamp string `json:"timestamp"`
}
