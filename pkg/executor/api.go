package executor

import (
	"context"
	"errors"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/queue"
)

var errNoRouter = errors.New("no external router configured")

// Router delegates an api task to whatever external request-routing
// system sovra is embedded in. Routing policy (which upstream service
// handles which action) belongs to that system, not this module, so
// Router is modeled as a narrow interface sovra calls into rather than a
// concrete implementation sovra owns.
type Router interface {
	Route(ctx context.Context, action, command string) (string, error)
}

// APIHandler forwards a task's action and command to the external router.
// It is also the target of self-reflection's escalation path: a task whose
// strategy failed repeatedly is rewritten to task_type=api with a
// "Escalated: <reason>" command so a human-facing system, not another
// autonomous retry, picks it up next.
type APIHandler struct {
	Router Router
}

// Execute delegates task to the Router and returns its response verbatim.
func (h *APIHandler) Execute(ctx context.Context, task *queue.Task) (string, error) {
	if h.Router == nil {
		return "", errs.NewExecution("api", errNoRouter)
	}
	result, err := h.Router.Route(ctx, task.Action, task.Command)
	if err != nil {
		return "", errs.NewExecution("api", err)
	}
	return result, nil
}
