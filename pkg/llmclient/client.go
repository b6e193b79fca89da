// Package llmclient talks to a local Ollama-compatible inference server.
// Generate and Chat do not return an error on timeout: they return a
// sentinel string, exactly as the system this module is built on does, so
// that a timed-out "think" task still produces usable Task.Result text
// instead of tripping the retry/reflection path for a condition that a
// retry is unlikely to fix any faster.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/staryone/sovra/pkg/errs"
)

// GenerateTimeoutMessage is returned by Generate when the request exceeds
// its deadline.
const GenerateTimeoutMessage = "[Timeout] thought process took too long, please try again."

// ChatTimeoutMessage is returned by Chat when the request exceeds its
// deadline. Kept distinct from GenerateTimeoutMessage because the two
// failure sites are distinguishable to a human reading the task log.
const ChatTimeoutMessage = "[Timeout] took too long to respond."

// Message is one turn in a chat-style completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the LLM transport contract consumed by planner, decision,
// reflection and the executor's think handler.
type Client interface {
	Generate(ctx context.Context, prompt, system string, temperature float64) (string, error)
	Chat(ctx context.Context, messages []Message, system string, temperature float64) (string, error)
	Embeddings(ctx context.Context, text string) ([]float64, error)
	IsAvailable(ctx context.Context) bool
}

// HTTPClient implements Client against Ollama's /api/generate, /api/chat,
// /api/embeddings and /api/tags endpoints.
type HTTPClient struct {
	host          string
	model         string
	embeddingModel string
	contextLength int
	httpClient    *http.Client
}

// Config configures an HTTPClient. Zero values fall back to the same
// defaults as the original's environment-variable reads.
type Config struct {
	Host           string
	Model          string
	EmbeddingModel string
	ContextLength  int
	Timeout        time.Duration
}

// New constructs an HTTPClient, applying defaults for any zero-valued field.
func New(cfg Config) *HTTPClient {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "sovra-brain"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.ContextLength == 0 {
		cfg.ContextLength = 16384
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 600 * time.Second
	}
	return &HTTPClient{
		host:           cfg.Host,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		contextLength:  cfg.ContextLength,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
	}
}

type generateOptions struct {
	Temperature   float64 `json:"temperature"`
	NumCtx        int     `json:"num_ctx"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate requests a single completion for prompt.
func (c *HTTPClient) Generate(ctx context.Context, prompt, system string, temperature float64) (string, error) {
	req := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Options: generateOptions{
			Temperature:   temperature,
			NumCtx:        c.contextLength,
			TopP:          0.9,
			RepeatPenalty: 1.1,
		},
	}

	var out generateResponse
	if err := c.post(ctx, "/api/generate", req, &out); err != nil {
		if isTimeout(err) {
			return GenerateTimeoutMessage, nil
		}
		return "", err
	}
	return out.Response, nil
}

type chatRequest struct {
	Model   string          `json:"model"`
	Messages []Message      `json:"messages"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

// Chat requests a completion over a message history, optionally prefixed
// with a system message.
func (c *HTTPClient) Chat(ctx context.Context, messages []Message, system string, temperature float64) (string, error) {
	full := make([]Message, 0, len(messages)+1)
	if system != "" {
		full = append(full, Message{Role: "system", Content: system})
	}
	full = append(full, messages...)

	req := chatRequest{
		Model:    c.model,
		Messages: full,
		Stream:   false,
		Options: generateOptions{
			Temperature: temperature,
			NumCtx:      c.contextLength,
		},
	}

	var out chatResponse
	if err := c.post(ctx, "/api/chat", req, &out); err != nil {
		if isTimeout(err) {
			return ChatTimeoutMessage, nil
		}
		return "", err
	}
	return out.Message.Content, nil
}

type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingsResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embeddings returns a vector embedding for text.
func (c *HTTPClient) Embeddings(ctx context.Context, text string) ([]float64, error) {
	req := embeddingsRequest{Model: c.embeddingModel, Prompt: text}
	var out embeddingsResponse
	if err := c.post(ctx, "/api/embeddings", req, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// IsAvailable reports whether the backend is reachable, swallowing any
// error into false exactly as the original's is_available does.
func (c *HTTPClient) IsAvailable(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errs.NewValidation("payload", err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return errs.NewTransport(path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return errs.NewTransport(path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewTransport(path, err)
	}
	if resp.StatusCode >= 300 {
		return errs.NewTransport(path, fmt.Errorf("status %d: %s", resp.StatusCode, string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errs.NewTransport(path, err)
	}
	return nil
}

// isTimeout reports whether err stems from the request context deadline or
// the underlying http.Client timeout firing.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
