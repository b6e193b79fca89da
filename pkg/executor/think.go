package executor

import (
	"context"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/queue"
)

// systemPromptBuilder is the subset of prompt.Builder a handler needs.
type systemPromptBuilder interface {
	Build(customInstructions string) string
}

// ThinkHandler completes a task with no side effects beyond an LLM call —
// the action is sent as-is and the completion is returned verbatim. Used
// for reasoning/analysis tasks and by the scheduler's memory_consolidation
// job.
type ThinkHandler struct {
	LLM     llmCompleter
	Prompts systemPromptBuilder
}

// Execute builds the system prompt and calls the LLM with task.Action as
// the user content.
func (h *ThinkHandler) Execute(ctx context.Context, task *queue.Task) (string, error) {
	system := h.Prompts.Build("")
	result, err := h.LLM.Generate(ctx, task.Action, system, 0.7)
	if err != nil {
		return "", errs.NewExecution("think", err)
	}
	return result, nil
}
