package executor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/llmjson"
	"github.com/staryone/sovra/pkg/policy"
	"github.com/staryone/sovra/pkg/queue"
)

// fileOp is the JSON shape the LLM is asked to produce for a file task.
type fileOp struct {
	Operation string `json:"operation"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// FileHandler performs read/write/create/delete operations against the
// local filesystem, with the concrete operation derived from the task's
// action via the LLM when the task doesn't already carry one.
type FileHandler struct {
	LLM    llmCompleter
	Oracle *policy.Oracle
}

// Execute asks the LLM to derive a fileOp from task.Action and performs it.
func (h *FileHandler) Execute(ctx context.Context, task *queue.Task) (string, error) {
	prompt := "Determine the file operation needed for this task: " + task.Action +
		"\nRespond with ONLY valid JSON: {\"operation\": \"read|write|create|delete\", \"path\": \"...\", \"content\": \"...\"}"
	raw, err := h.LLM.Generate(ctx, prompt, "", 0.2)
	if err != nil {
		return "", errs.NewExecution("file", err)
	}

	var op fileOp
	if jsonErr := llmjson.Unmarshal(raw, &op); jsonErr != nil {
		return "", errs.NewValidation("operation", "could not parse file operation from LLM response")
	}

	switch op.Operation {
	case "read":
		data, readErr := os.ReadFile(op.Path)
		if readErr != nil {
			return "", errs.NewExecution("file", readErr)
		}
		return string(data), nil

	case "write", "create":
		if mkErr := os.MkdirAll(filepath.Dir(op.Path), 0o755); mkErr != nil {
			return "", errs.NewExecution("file", mkErr)
		}
		if writeErr := os.WriteFile(op.Path, []byte(op.Content), 0o644); writeErr != nil {
			return "", errs.NewExecution("file", writeErr)
		}
		return "wrote " + op.Path, nil

	case "delete":
		if h.Oracle.RequiresConfirmation("rm " + op.Path) {
			return "", errs.NewPermissionDenied("rm "+op.Path, "file deletion requires confirmation per policy")
		}
		if removeErr := os.Remove(op.Path); removeErr != nil {
			return "", errs.NewExecution("file", removeErr)
		}
		return "deleted " + op.Path, nil

	default:
		return "", errs.NewValidation("operation", "unknown file operation: "+op.Operation)
	}
}
