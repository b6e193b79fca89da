package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staryone/sovra/pkg/queue"
	"github.com/staryone/sovra/pkg/reflection"
	"github.com/staryone/sovra/pkg/scheduler"
)

type stubStore struct {
	summary      queue.Summary
	pendingCount int
}

func (s stubStore) Summary() queue.Summary { return s.summary }
func (s stubStore) PendingCount() int      { return s.pendingCount }

type stubReflection struct {
	summary reflection.Summary
}

func (s stubReflection) GetReflectionSummary() reflection.Summary { return s.summary }

type stubJobs struct {
	jobs []scheduler.JobStatus
}

func (s stubJobs) JobStatuses() []scheduler.JobStatus { return s.jobs }

func TestHealthHandler_ReturnsHealthy(t *testing.T) {
	s := NewServer("test", stubStore{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestStatusHandler_ReportsQueueSummary(t *testing.T) {
	store := stubStore{
		summary:      queue.Summary{Total: 5, Pending: 2, InProgress: 1, Completed: 1, Failed: 1},
		pendingCount: 2,
	}
	s := NewServer("test", store, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.QueueDepth.Total)
	assert.Equal(t, 2, resp.PendingCount)
	assert.True(t, resp.InProgress)
	assert.Nil(t, resp.Reflection)
	assert.Empty(t, resp.ScheduledJobs)
}

func TestStatusHandler_OmitsInProgressWhenZero(t *testing.T) {
	store := stubStore{summary: queue.Summary{Total: 1, Pending: 1}}
	s := NewServer("test", store, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.router.ServeHTTP(rec, req)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.InProgress)
}

func TestStatusHandler_IncludesReflectionAndJobsWhenWired(t *testing.T) {
	store := stubStore{summary: queue.Summary{Total: 3}}
	refl := stubReflection{summary: reflection.Summary{Total: 4, Escalated: 1}}
	nextRun := time.Now().Add(time.Hour)
	jobs := stubJobs{jobs: []scheduler.JobStatus{
		{Job: scheduler.Job{ID: "j1", Name: "nightly backup", Schedule: "0 2 * * *", Priority: queue.High}, NextRun: nextRun},
	}}

	s := NewServer("test", store, refl, jobs)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.router.ServeHTTP(rec, req)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Reflection)
	assert.Equal(t, 4, resp.Reflection.Total)
	require.Len(t, resp.ScheduledJobs, 1)
	assert.Equal(t, "nightly backup", resp.ScheduledJobs[0].Name)
}
