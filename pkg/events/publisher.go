package events

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// EventPublisher fans task lifecycle events out to structured logs and to
// any subscriber channels registered via Subscribe. There is no database
// and no cross-process transport: a single sovra process owns its queue,
// so in-process channels are all the fan-out this needs.
//
// Each public method accepts a specific typed payload struct — see
// payloads.go. Internally, payloads are stamped with a timestamp, logged,
// and broadcast to subscribers as an Event envelope.
type EventPublisher struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{}
}

// Subscribe registers a channel that receives every published Event from
// this point forward. The channel must be drained by the caller; a full
// channel is skipped (best-effort delivery) rather than blocking the
// publisher.
func (p *EventPublisher) Subscribe(ch chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, ch)
}

func (p *EventPublisher) broadcast(eventType string, payload any) {
	evt := Event{Type: eventType, Timestamp: time.Now().Format(time.RFC3339Nano), Payload: payload}

	if b, err := json.Marshal(payload); err == nil {
		slog.Info("event", "type", eventType, "payload", string(b))
	} else {
		slog.Warn("failed to marshal event payload for logging", "type", eventType, "error", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subscribers {
		select {
		case ch <- evt:
		default:
			slog.Warn("event subscriber channel full, dropping event", "type", eventType)
		}
	}
}

// PublishTaskEnqueued fires task.enqueued when a task is added to the queue.
func (p *EventPublisher) PublishTaskEnqueued(payload TaskEnqueuedPayload) {
	payload.Type = TypeTaskEnqueued
	payload.Timestamp = time.Now().Format(time.RFC3339Nano)
	p.broadcast(TypeTaskEnqueued, payload)
}

// PublishTaskStarted fires task.started when the execution loop picks up a task.
func (p *EventPublisher) PublishTaskStarted(payload TaskStartedPayload) {
	payload.Type = TypeTaskStarted
	payload.Timestamp = time.Now().Format(time.RFC3339Nano)
	p.broadcast(TypeTaskStarted, payload)
}

// PublishTaskCompleted fires task.completed when an executor handler succeeds.
func (p *EventPublisher) PublishTaskCompleted(payload TaskCompletedPayload) {
	payload.Type = TypeTaskCompleted
	payload.Timestamp = time.Now().Format(time.RFC3339Nano)
	p.broadcast(TypeTaskCompleted, payload)
}

// PublishTaskFailed fires task.failed when an executor handler errors,
// whether or not the task will be retried.
func (p *EventPublisher) PublishTaskFailed(payload TaskFailedPayload) {
	payload.Type = TypeTaskFailed
	payload.Timestamp = time.Now().Format(time.RFC3339Nano)
	p.broadcast(TypeTaskFailed, payload)
}

// PublishTaskReflected fires task.reflected when the reflection engine
// rewrites a failed task's strategy or escalates it to a human-facing task.
func (p *EventPublisher) PublishTaskReflected(payload TaskReflectedPayload) {
	payload.Type = TypeTaskReflected
	payload.Timestamp = time.Now().Format(time.RFC3339Nano)
	p.broadcast(TypeTaskReflected, payload)
}

// PublishJobTriggered fires job.triggered when the proactive scheduler runs
// a built-in or dynamic job.
func (p *EventPublisher) PublishJobTriggered(payload JobTriggeredPayload) {
	payload.Type = TypeJobTriggered
	payload.Timestamp = time.Now().Format(time.RFC3339Nano)
	p.broadcast(TypeJobTriggered, payload)
}
