// Package loop implements the Execution Loop: the single cooperative
// consumer that pulls the next runnable task from the queue, runs it
// through the executor, records the outcome, and triggers self-reflection
// on retryable failures.
package loop

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/events"
	"github.com/staryone/sovra/pkg/queue"
	"github.com/staryone/sovra/pkg/reflection"
	"github.com/staryone/sovra/pkg/vault"
)

const (
	// DefaultIdlePoll is how long the loop sleeps when the queue has no
	// runnable task, matching the original's idle-poll interval.
	DefaultIdlePoll = 5 * time.Second
	// DefaultInterTask is the short pause between iterations that keeps
	// the loop from busy-spinning once tasks are flowing.
	DefaultInterTask = 1 * time.Second
)

// taskExecutor is the subset of executor.Dispatcher the loop needs.
type taskExecutor interface {
	Execute(ctx context.Context, task *queue.Task) (string, error)
}

// reflector is the subset of reflection.Engine the loop needs. Reflect is
// invoked asynchronously after a failure that left the task Pending, so a
// slow LLM reflection call never delays the next dispatch.
type reflector interface {
	Reflect(ctx context.Context, task *queue.Task, err error) reflection.Entry
}

// Loop is the Execution Loop. A zero Loop is not usable — construct one
// with New.
type Loop struct {
	store     *queue.Store
	executor  taskExecutor
	reflect   reflector // may be nil: failures simply aren't reflected on
	publisher *events.EventPublisher
	vault     *vault.Vault

	idlePoll  time.Duration
	interTask time.Duration

	running atomic.Bool
}

// New constructs a Loop. reflect and publisher may be nil.
func New(store *queue.Store, executor taskExecutor, reflect reflector, publisher *events.EventPublisher, v *vault.Vault) *Loop {
	return &Loop{
		store:     store,
		executor:  executor,
		reflect:   reflect,
		publisher: publisher,
		vault:     v,
		idlePoll:  DefaultIdlePoll,
		interTask: DefaultInterTask,
	}
}

// WithIntervals overrides the idle-poll and inter-task sleep durations.
// Tests use this to keep the loop from actually sleeping for seconds.
func (l *Loop) WithIntervals(idlePoll, interTask time.Duration) *Loop {
	l.idlePoll = idlePoll
	l.interTask = interTask
	return l
}

// Start runs the dispatcher until ctx is cancelled or Stop is called. It
// blocks the calling goroutine — callers that want it in the background
// should invoke Start in its own goroutine, as cmd/sovra does.
func (l *Loop) Start(ctx context.Context) {
	l.running.Store(true)
	slog.Info("execution loop starting")

	for l.running.Load() {
		if ctx.Err() != nil {
			break
		}

		task := l.store.NextTask()
		if task == nil {
			if !l.sleep(ctx, l.idlePoll) {
				break
			}
			continue
		}

		l.runTask(ctx, task)

		if !l.sleep(ctx, l.interTask) {
			break
		}
	}

	slog.Info("execution loop stopped")
}

// Stop signals the loop to exit at the next iteration boundary. It does
// not interrupt a task already in flight — an in-progress subprocess or
// LLM call is allowed to finish up to its own timeout.
func (l *Loop) Stop() {
	l.running.Store(false)
}

func (l *Loop) runTask(ctx context.Context, task *queue.Task) {
	logger := slog.With("task_id", task.ID, "task_type", task.Type)

	if err := l.store.MarkInProgress(task.ID); err != nil {
		logger.Error("failed to mark task in progress", "error", err)
		return
	}
	if l.publisher != nil {
		l.publisher.PublishTaskStarted(events.TaskStartedPayload{
			TaskID: task.ID, Action: task.Action, Attempt: len(task.Attempts) + 1,
		})
	}

	result, err := l.executor.Execute(ctx, task)
	if err == nil {
		if markErr := l.store.MarkCompleted(task.ID, result); markErr != nil {
			logger.Error("failed to mark task completed", "error", markErr)
			return
		}
		logger.Info("task completed")
		if l.publisher != nil {
			l.publisher.PublishTaskCompleted(events.TaskCompletedPayload{TaskID: task.ID, Result: result})
		}
		return
	}

	maskedErr := err.Error()
	if l.vault != nil {
		maskedErr = l.vault.Mask(maskedErr)
	}
	if markErr := l.store.MarkFailed(task.ID, maskedErr, ""); markErr != nil {
		logger.Error("failed to mark task failed", "error", markErr)
		return
	}
	logger.Warn("task failed", "error", maskedErr)

	updated, getErr := l.store.Get(task.ID)
	terminal := getErr != nil || updated.Status != queue.StatusPending
	if l.publisher != nil {
		l.publisher.PublishTaskFailed(events.TaskFailedPayload{
			TaskID: task.ID, Error: maskedErr, Attempt: len(task.Attempts) + 1, Terminal: terminal,
		})
	}

	if !terminal && errs.Retryable(err) && l.reflect != nil {
		go func() {
			l.reflect.Reflect(context.Background(), updated, err)
			if l.publisher != nil {
				l.publisher.PublishTaskReflected(events.TaskReflectedPayload{TaskID: task.ID})
			}
		}()
	}
}

// sleep waits for d or ctx cancellation, whichever comes first. It returns
// false if the loop should stop (ctx cancelled or Stop called mid-sleep).
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return l.running.Load()
	}
}
