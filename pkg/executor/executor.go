// Package executor dispatches a queued task to the handler for its
// task_type and returns the handler's result text. Handlers share one
// contract — (ctx, *queue.Task) (string, error) — and fail by returning a
// typed error from pkg/errs; they never mutate the task or the queue
// themselves, leaving status transitions to the Execution Loop.
package executor

import (
	"context"
	"fmt"

	"github.com/staryone/sovra/pkg/queue"
	"github.com/staryone/sovra/pkg/vault"
)

// Handler runs a single task and returns its result text, or a typed error
// from pkg/errs on failure.
type Handler interface {
	Execute(ctx context.Context, task *queue.Task) (string, error)
}

// Dispatcher routes a task to the Handler registered for its Type. Output
// from every handler is masked before being returned, so callers never see
// an unmasked secret regardless of which handler produced it.
type Dispatcher struct {
	handlers map[queue.Type]Handler
	vault    *vault.Vault
}

// New constructs a Dispatcher with the five task-type handlers.
func New(shell, file, web, api, think Handler, v *vault.Vault) *Dispatcher {
	return &Dispatcher{
		handlers: map[queue.Type]Handler{
			queue.TypeShell: shell,
			queue.TypeFile:  file,
			queue.TypeWeb:   web,
			queue.TypeAPI:   api,
			queue.TypeThink: think,
		},
		vault: v,
	}
}

// Execute dispatches task to its handler and masks a successful result
// before returning it. A handler error is returned unmasked and unwrapped
// so callers can still errors.Is/As against pkg/errs sentinels (e.g.
// errs.Retryable); the Execution Loop masks the error text itself at the
// point it persists Task.Error.
func (d *Dispatcher) Execute(ctx context.Context, task *queue.Task) (string, error) {
	h, ok := d.handlers[task.Type]
	if !ok {
		return "", fmt.Errorf("no handler registered for task type %q", task.Type)
	}

	result, err := h.Execute(ctx, task)
	if err != nil {
		return "", err
	}
	return d.vault.Mask(result), nil
}
