package executor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/queue"
)

const (
	webMaxResponseBytes = 1 << 20 // 1 MiB cap via a bounded io.LimitReader
	webMaxResultLines   = 50
)

// WebHandler fetches a URL or runs a lite web search, bounding both the
// response size read off the wire and the number of lines returned.
type WebHandler struct {
	HTTPClient *http.Client
	SearchURL  string // lite search endpoint; ?q=<query> is appended
	Timeout    time.Duration
}

// Execute fetches task.Command as a URL, or — if it has a "search:" prefix
// — runs a lite search against SearchURL instead.
func (h *WebHandler) Execute(ctx context.Context, task *queue.Task) (string, error) {
	target := strings.TrimSpace(task.Command)
	if target == "" {
		return "", errs.NewValidation("command", "web task has no URL or search query")
	}

	if strings.HasPrefix(target, "search:") {
		query := strings.TrimSpace(strings.TrimPrefix(target, "search:"))
		if h.SearchURL == "" {
			return "", errs.NewConfig("web.search_url", errors.New("no search endpoint configured"))
		}
		return h.fetch(ctx, h.SearchURL+"?q="+url.QueryEscape(query))
	}
	return h.fetch(ctx, target)
}

func (h *WebHandler) fetch(ctx context.Context, target string) (string, error) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return "", errs.NewValidation("command", "invalid URL: "+target)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return "", errs.NewTimeout("web fetch: "+target, int(timeout.Seconds()))
		}
		return "", errs.NewTransport(target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, webMaxResponseBytes))
	if err != nil {
		return "", errs.NewTransport(target, err)
	}
	if resp.StatusCode >= 400 {
		return "", errs.NewExecution("web", errs.NewValidation("status", resp.Status))
	}

	lines := strings.Split(string(body), "\n")
	if len(lines) > webMaxResultLines {
		lines = lines[:webMaxResultLines]
	}
	return strings.Join(lines, "\n"), nil
}
