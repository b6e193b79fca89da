package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/llmclient"
	"github.com/staryone/sovra/pkg/policy"
	"github.com/staryone/sovra/pkg/queue"
)

func TestShellHandler_RunsGivenCommand(t *testing.T) {
	h := &ShellHandler{
		LLM:     llmclient.NewFake(""),
		Oracle:  policy.New(policy.DefaultRules()),
		Timeout: 5 * time.Second,
	}
	out, err := h.Execute(context.Background(), &queue.Task{Command: "echo hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestShellHandler_EmptyOutputSentinel(t *testing.T) {
	h := &ShellHandler{
		LLM:     llmclient.NewFake(""),
		Oracle:  policy.New(policy.DefaultRules()),
		Timeout: 5 * time.Second,
	}
	out, err := h.Execute(context.Background(), &queue.Task{Command: "true"})
	require.NoError(t, err)
	assert.Equal(t, "completed with no output", out)
}

func TestShellHandler_NonZeroExitFails(t *testing.T) {
	h := &ShellHandler{
		LLM:     llmclient.NewFake(""),
		Oracle:  policy.New(policy.DefaultRules()),
		Timeout: 5 * time.Second,
	}
	_, err := h.Execute(context.Background(), &queue.Task{Command: "false"})
	assert.Error(t, err)
	assert.True(t, errs.Retryable(err))
}

func TestShellHandler_RequiresConfirmationBlocksCommand(t *testing.T) {
	rules := policy.DefaultRules()
	rules.RequireConfirmation = []string{"rm -rf"}
	h := &ShellHandler{
		LLM:     llmclient.NewFake(""),
		Oracle:  policy.New(rules),
		Timeout: 5 * time.Second,
	}
	_, err := h.Execute(context.Background(), &queue.Task{Command: "rm -rf /tmp/x"})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
	assert.False(t, errs.Retryable(err))
}

func TestShellHandler_DangerousRiskBlockedWhenAutoExecuteDisabled(t *testing.T) {
	rules := policy.DefaultRules()
	rules.AutoExecuteShell = false
	rules.DangerousSubstrings = []string{"shutdown"}
	h := &ShellHandler{
		LLM:     llmclient.NewFake(""),
		Oracle:  policy.New(rules),
		Timeout: 5 * time.Second,
	}
	_, err := h.Execute(context.Background(), &queue.Task{Command: "shutdown now"})
	assert.ErrorIs(t, err, errs.ErrPermissionDenied)
}

func TestShellHandler_SynthesizesCommandWhenEmpty(t *testing.T) {
	fake := llmclient.NewFake("")
	fake.Enqueue("echo synthesized")
	h := &ShellHandler{
		LLM:     fake,
		Oracle:  policy.New(policy.DefaultRules()),
		Timeout: 5 * time.Second,
	}
	out, err := h.Execute(context.Background(), &queue.Task{Action: "print a greeting"})
	require.NoError(t, err)
	assert.Equal(t, "synthesized", out)
	require.Len(t, fake.GeneratePrompts, 1)
	assert.Contains(t, fake.GeneratePrompts[0], "print a greeting")
}

func TestShellHandler_TimesOut(t *testing.T) {
	h := &ShellHandler{
		LLM:     llmclient.NewFake(""),
		Oracle:  policy.New(policy.DefaultRules()),
		Timeout: 50 * time.Millisecond,
	}
	_, err := h.Execute(context.Background(), &queue.Task{Command: "sleep 2"})
	assert.ErrorIs(t, err, errs.ErrTimeout)
}
