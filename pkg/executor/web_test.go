package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staryone/sovra/pkg/errs"
	"github.com/staryone/sovra/pkg/queue"
)

func TestWebHandler_FetchesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("line one\nline two\n"))
	}))
	defer srv.Close()

	h := &WebHandler{HTTPClient: srv.Client(), Timeout: 2 * time.Second}
	out, err := h.Execute(context.Background(), &queue.Task{Command: srv.URL})
	require.NoError(t, err)
	assert.Contains(t, out, "line one")
}

func TestWebHandler_SearchPrefixHitsSearchEndpoint(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte("result"))
	}))
	defer srv.Close()

	h := &WebHandler{HTTPClient: srv.Client(), SearchURL: srv.URL, Timeout: 2 * time.Second}
	out, err := h.Execute(context.Background(), &queue.Task{Command: "search: disk usage tools"})
	require.NoError(t, err)
	assert.Equal(t, "result", out)
	assert.Equal(t, "disk usage tools", gotQuery)
}

func TestWebHandler_SearchWithoutEndpointConfigured(t *testing.T) {
	h := &WebHandler{HTTPClient: http.DefaultClient}
	_, err := h.Execute(context.Background(), &queue.Task{Command: "search: anything"})
	assert.ErrorIs(t, err, errs.ErrConfig)
}

func TestWebHandler_EmptyCommandIsValidationError(t *testing.T) {
	h := &WebHandler{HTTPClient: http.DefaultClient}
	_, err := h.Execute(context.Background(), &queue.Task{Command: ""})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestWebHandler_TruncatesLongResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 100; i++ {
			w.Write([]byte("line\n"))
		}
	}))
	defer srv.Close()

	h := &WebHandler{HTTPClient: srv.Client(), Timeout: 2 * time.Second}
	out, err := h.Execute(context.Background(), &queue.Task{Command: srv.URL})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(splitLines(out)), webMaxResultLines)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
