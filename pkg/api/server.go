// Package api provides sovra's HTTP status surface: a single read-only
// endpoint reporting queue depth, the in-progress task if any, reflection
// summary counts, and the scheduler's registered jobs with next-run times.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/staryone/sovra/pkg/queue"
	"github.com/staryone/sovra/pkg/reflection"
	"github.com/staryone/sovra/pkg/scheduler"
	"github.com/staryone/sovra/pkg/version"
)

// queueSummary is the subset of queue.Store the status endpoint needs.
type queueSummary interface {
	Summary() queue.Summary
	PendingCount() int
}

// reflectionSummary is the subset of reflection.Engine the status
// endpoint needs.
type reflectionSummary interface {
	GetReflectionSummary() reflection.Summary
}

// jobLister is the subset of scheduler.Scheduler the status endpoint needs.
type jobLister interface {
	JobStatuses() []scheduler.JobStatus
}

// Server is sovra's HTTP status server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	store      queueSummary
	reflection reflectionSummary // nil if reflection engine not wired
	scheduler  jobLister         // nil if scheduler not wired
	startedAt  time.Time
}

// NewServer builds a Server and registers its routes. reflection and
// scheduler may be nil — their sections are simply omitted from the
// response.
func NewServer(ginMode string, store queueSummary, refl reflectionSummary, jobs jobLister) *Server {
	gin.SetMode(ginMode)
	router := gin.Default()

	s := &Server{
		router:     router,
		store:      store,
		reflection: refl,
		scheduler:  jobs,
		startedAt:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/status", s.statusHandler)
}

// healthHandler handles GET /health — a minimal liveness probe.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": version.Full(),
		"uptime":  time.Since(s.startedAt).String(),
	})
}

// StatusResponse is the payload for GET /status.
type StatusResponse struct {
	QueueDepth    queue.Summary         `json:"queue"`
	PendingCount  int                   `json:"pending_count"`
	InProgress    bool                  `json:"in_progress"`
	Reflection    *reflection.Summary   `json:"reflection,omitempty"`
	ScheduledJobs []scheduler.JobStatus `json:"scheduled_jobs,omitempty"`
	Uptime        string                `json:"uptime"`
}

// statusHandler handles GET /status — a runtime snapshot: counts by status,
// pending count, in-progress flag, and the list of scheduled jobs with
// their next-run times.
func (s *Server) statusHandler(c *gin.Context) {
	summary := s.store.Summary()
	resp := StatusResponse{
		QueueDepth:   summary,
		PendingCount: s.store.PendingCount(),
		InProgress:   summary.InProgress > 0,
		Uptime:       time.Since(s.startedAt).String(),
	}

	if s.reflection != nil {
		counts := s.reflection.GetReflectionSummary()
		resp.Reflection = &counts
	}
	if s.scheduler != nil {
		resp.ScheduledJobs = s.scheduler.JobStatuses()
	}

	c.JSON(http.StatusOK, resp)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
