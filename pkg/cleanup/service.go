// Package cleanup provides background task-queue retention.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/staryone/sovra/pkg/queue"
)

// purger is the subset of queue.Store the cleanup loop needs.
type purger interface {
	Purge(olderThan time.Duration) (int, error)
}

// Service periodically purges terminal (completed/failed/cancelled) tasks
// older than its retention window from the task queue, so the queue file
// doesn't grow without bound across a long-running agent's lifetime.
//
// All operations are idempotent and safe to run repeatedly.
type Service struct {
	store    purger
	maxAge   time.Duration
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service. maxAge is the minimum age a
// terminal task must reach before it is purged; interval is how often the
// loop runs.
func NewService(store purger, maxAge, interval time.Duration) *Service {
	return &Service{store: store, maxAge: maxAge, interval: interval}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started", "task_max_age", s.maxAge, "interval", s.interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.purgeOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeOnce()
		}
	}
}

func (s *Service) purgeOnce() {
	removed, err := s.store.Purge(s.maxAge)
	if err != nil {
		slog.Error("retention: task purge failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("retention: purged old tasks", "count", removed)
	}
}
