package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staryone/sovra/pkg/llmclient"
	"github.com/staryone/sovra/pkg/queue"
)

type stubPrompts struct{ system string }

func (s *stubPrompts) Build(string) string { return s.system }

func TestThinkHandler_CompletesWithSystemPrompt(t *testing.T) {
	fake := llmclient.NewFake("")
	fake.Enqueue("a thoughtful answer")
	h := &ThinkHandler{LLM: fake, Prompts: &stubPrompts{system: "you are sovra"}}

	out, err := h.Execute(context.Background(), &queue.Task{Action: "reflect on today's logs"})
	require.NoError(t, err)
	assert.Equal(t, "a thoughtful answer", out)
	require.Len(t, fake.GeneratePrompts, 1)
	assert.Equal(t, "reflect on today's logs", fake.GeneratePrompts[0])
}
