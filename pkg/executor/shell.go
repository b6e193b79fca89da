package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/policy"
	"github.com/staryone/sovra/pkg/queue"
)

// llmCompleter is the subset of llmclient.Client a handler needs to
// synthesize a command or a completion from a free-text action.
type llmCompleter interface {
	Generate(ctx context.Context, prompt, system string, temperature float64) (string, error)
}

// ShellHandler runs a task's command as a subprocess, synthesizing one from
// the task's action via the LLM when Command is empty. Every command is
// re-checked against the Policy Oracle immediately before exec — the
// command may have been rewritten by self-reflection since the task was
// planned, so the oracle check at plan time is not sufficient on its own.
type ShellHandler struct {
	LLM     llmCompleter
	Oracle  *policy.Oracle
	Timeout time.Duration
}

// Execute runs task.Command (synthesizing one from task.Action if empty)
// as a subprocess and returns its trimmed stdout.
func (h *ShellHandler) Execute(ctx context.Context, task *queue.Task) (string, error) {
	command := strings.TrimSpace(task.Command)
	if command == "" {
		synthesized, err := h.LLM.Generate(ctx,
			"Generate a single shell command to accomplish this: "+task.Action+"\nRespond with ONLY the command, no explanation.",
			"", 0.2)
		if err != nil {
			return "", errs.NewExecution("shell", err)
		}
		command = strings.Trim(strings.TrimSpace(synthesized), "`")
	}

	if h.Oracle.RequiresConfirmation(command) {
		return "", errs.NewPermissionDenied(command, "command requires confirmation per policy")
	}
	if h.Oracle.RiskLevel(command) == policy.RiskDangerous && !h.Oracle.CanAutoExecute(policy.ActionShell) {
		return "", errs.NewPermissionDenied(command, "dangerous shell execution disabled")
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() != nil {
		return "", errs.NewTimeout("shell: "+command, int(timeout.Seconds()))
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", errs.NewExecution("shell",
			fmt.Errorf("exit code %d: %s", exitCode, strings.TrimSpace(stderr.String())))
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "completed with no output", nil
	}
	return out, nil
}
