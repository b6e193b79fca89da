package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ReturnsResponseText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sovra-brain", req.Model)
		json.NewEncoder(w).Encode(generateResponse{Response: "hello there"})
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL})
	out, err := c.Generate(context.Background(), "hi", "", 0.7)
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
}

func TestGenerate_TimeoutReturnsSentinelNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		json.NewEncoder(w).Encode(generateResponse{Response: "too late"})
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL, Timeout: 10 * time.Millisecond})
	out, err := c.Generate(context.Background(), "hi", "", 0.7)
	require.NoError(t, err)
	assert.Equal(t, GenerateTimeoutMessage, out)
}

func TestGenerate_ServerErrorIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL})
	_, err := c.Generate(context.Background(), "hi", "", 0.7)
	assert.Error(t, err)
}

func TestChat_PrependsSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be terse", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		json.NewEncoder(w).Encode(chatResponse{Message: Message{Role: "assistant", Content: "ok"}})
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL})
	out, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "be terse", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestChat_TimeoutReturnsSentinelNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL, Timeout: 10 * time.Millisecond})
	out, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "", 0.5)
	require.NoError(t, err)
	assert.Equal(t, ChatTimeoutMessage, out)
}

func TestEmbeddings_ReturnsVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		json.NewEncoder(w).Encode(embeddingsResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL})
	vec, err := c.Embeddings(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestIsAvailable_TrueOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(Config{Host: srv.URL})
	assert.True(t, c.IsAvailable(context.Background()))
}

func TestIsAvailable_FalseWhenUnreachable(t *testing.T) {
	c := New(Config{Host: "http://127.0.0.1:1"})
	assert.False(t, c.IsAvailable(context.Background()))
}

func TestNew_AppliesDefaultsForZeroValues(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, "http://localhost:11434", c.host)
	assert.Equal(t, "sovra-brain", c.model)
	assert.Equal(t, "nomic-embed-text", c.embeddingModel)
	assert.Equal(t, 16384, c.contextLength)
}
