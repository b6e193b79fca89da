// Package scheduler implements the Proactive Scheduler: a cron engine that
// injects work into the task queue on a timer, independent of any user
// goal. Built-in jobs are seeded from the loaded personality's
// proactive_behaviors flags; dynamic jobs are registered and removed at
// runtime and persisted to a JSON file so they survive a restart.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/staryone/sovra/pkg/events"
	"github.com/staryone/sovra/pkg/queue"
)

// goalPlanner is the subset of planner.Planner a dynamic job needs.
type goalPlanner interface {
	Plan(ctx context.Context, goal, taskContext string, priority queue.Priority) ([]*queue.Task, error)
}

// Job is a persisted dynamic job entry: id, name, goal, schedule, priority
// and creation time, as written to and restored from the scheduled-jobs file.
type Job struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Goal      string         `json:"goal"`
	Schedule  string         `json:"schedule"`
	Priority  queue.Priority `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
}

// Scheduler owns all cron state: the built-in jobs, the dynamic job
// registry, and the cron engine driving both.
type Scheduler struct {
	store     *queue.Store
	planner   goalPlanner
	publisher *events.EventPublisher
	jobsPath  string

	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID // job ID -> cron entry
	jobs    map[string]Job          // job ID -> persisted metadata (dynamic jobs only)
}

// New constructs a Scheduler. publisher may be nil.
func New(store *queue.Store, planner goalPlanner, publisher *events.EventPublisher, jobsPath string) *Scheduler {
	return &Scheduler{
		store:     store,
		planner:   planner,
		publisher: publisher,
		jobsPath:  jobsPath,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		entries:   make(map[string]cron.EntryID),
		jobs:      make(map[string]Job),
	}
}

// Start begins evaluating cron schedules in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop halts the cron engine. Dynamic jobs are not cancelled individually —
// the scheduler shuts down as a whole, and any job callback already running
// is allowed to finish (cron.Cron.Stop's own contract).
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// BuiltinConfig carries the personality flags and intervals that decide
// which built-in jobs run and how often.
type BuiltinConfig struct {
	HealthCheckEnabled         bool
	HealthCheckIntervalHours   int
	MemoryConsolidationEnabled bool
	MemoryConsolidationHours   int
	EvolutionCheckEnabled      bool
	EvolutionScheduleHours     int
	DiskMonitorEnabled         bool
}

// RegisterBuiltins installs the four built-in jobs that are enabled in cfg.
// Each fires an enqueue-only callback — never a call that blocks on task
// completion.
func (s *Scheduler) RegisterBuiltins(cfg BuiltinConfig) error {
	if cfg.HealthCheckEnabled {
		if err := s.addCron("health_check", everyHours(cfg.HealthCheckIntervalHours), func() {
			s.enqueueBuiltin("health_check", queue.TypeShell, queue.Background,
				"Run system health diagnostics: check CPU, memory, disk, and service status")
		}); err != nil {
			return fmt.Errorf("registering health_check: %w", err)
		}
	}
	if cfg.MemoryConsolidationEnabled {
		if err := s.addCron("memory_consolidation", everyHours(cfg.MemoryConsolidationHours), func() {
			s.enqueueBuiltin("memory_consolidation", queue.TypeThink, queue.Background,
				"Review recent memory entries and consolidate recurring lessons into durable insights")
		}); err != nil {
			return fmt.Errorf("registering memory_consolidation: %w", err)
		}
	}
	if cfg.EvolutionCheckEnabled {
		if err := s.addCron("evolution_check", everyHours(cfg.EvolutionScheduleHours), func() {
			s.enqueueBuiltin("evolution_check", queue.TypeShell, queue.Background,
				"Count accumulated training samples to evaluate evolution readiness")
		}); err != nil {
			return fmt.Errorf("registering evolution_check: %w", err)
		}
	}
	if cfg.DiskMonitorEnabled {
		if err := s.addCron("disk_monitor", "0 */6 * * *", func() {
			s.enqueueBuiltin("disk_monitor", queue.TypeShell, queue.High,
				"Check disk usage and flag any filesystem above 90% capacity")
		}); err != nil {
			return fmt.Errorf("registering disk_monitor: %w", err)
		}
	}
	return nil
}

func everyHours(h int) string {
	if h <= 0 {
		h = 24
	}
	return fmt.Sprintf("0 */%d * * *", h)
}

func (s *Scheduler) addCron(name, schedule string, fn func()) error {
	id, err := s.cron.AddFunc(schedule, fn)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[name] = id
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) enqueueBuiltin(name string, taskType queue.Type, priority queue.Priority, action string) {
	task := &queue.Task{
		ID:       queue.NewTaskID(),
		Goal:     name,
		Action:   action,
		Type:     taskType,
		Priority: priority,
		Tags:     []string{"scheduled", name},
	}
	if err := s.store.Enqueue(task); err != nil {
		slog.Error("scheduled job failed to enqueue task", "job", name, "error", err)
		return
	}
	slog.Info("scheduled job enqueued task", "job", name, "task_id", task.ID)
	if s.publisher != nil {
		s.publisher.PublishJobTriggered(events.JobTriggeredPayload{JobName: name, TaskID: task.ID})
	}
}

// AddDynamicJob registers a cron-triggered callback that invokes
// Planner.Plan(goal, priority) whenever schedule fires, and persists the
// job entry so it survives a restart.
func (s *Scheduler) AddDynamicJob(name, goal, schedule string, priority queue.Priority) (Job, error) {
	job := Job{
		ID:        uuid.NewString()[:8],
		Name:      name,
		Goal:      goal,
		Schedule:  schedule,
		Priority:  priority,
		CreatedAt: time.Now(),
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.planner.Plan(ctx, job.Goal, "", job.Priority); err != nil {
			slog.Error("dynamic job failed to plan goal", "job", job.Name, "error", err)
			return
		}
		if s.publisher != nil {
			s.publisher.PublishJobTriggered(events.JobTriggeredPayload{JobName: job.Name})
		}
	})
	if err != nil {
		return Job{}, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	s.entries[job.ID] = entryID
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.persist(); err != nil {
		return Job{}, err
	}
	return job, nil
}

// RemoveDynamicJob unregisters a dynamic job and persists the removal.
func (s *Scheduler) RemoveDynamicJob(id string) error {
	s.mu.Lock()
	entryID, ok := s.entries[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("dynamic job %s: %w", id, queue.ErrNotFound)
	}
	delete(s.entries, id)
	delete(s.jobs, id)
	s.mu.Unlock()

	s.cron.Remove(entryID)
	return s.persist()
}

// DynamicJobs returns the currently registered dynamic jobs.
func (s *Scheduler) DynamicJobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	return jobs
}

// JobStatus is a dynamic job annotated with its next scheduled run, for
// the status endpoint.
type JobStatus struct {
	Job
	NextRun time.Time `json:"next_run"`
}

// JobStatuses returns every registered job (built-in and dynamic) with its
// next-run time as computed by the cron engine.
func (s *Scheduler) JobStatuses() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.entries))
	for name, entryID := range s.entries {
		entry := s.cron.Entry(entryID)
		job, isDynamic := s.jobs[name]
		if !isDynamic {
			job = Job{ID: name, Name: name}
		}
		statuses = append(statuses, JobStatus{Job: job, NextRun: entry.Next})
	}
	return statuses
}

// persist rewrites jobsPath with the current dynamic job set. Caller must
// not hold s.mu (it takes its own snapshot).
func (s *Scheduler) persist() error {
	jobs := s.DynamicJobs()
	if err := os.MkdirAll(filepath.Dir(s.jobsPath), 0o755); err != nil {
		return fmt.Errorf("creating scheduled jobs dir: %w", err)
	}
	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling scheduled jobs: %w", err)
	}
	if err := os.WriteFile(s.jobsPath, data, 0o644); err != nil {
		return fmt.Errorf("writing scheduled jobs %s: %w", s.jobsPath, err)
	}
	return nil
}

// RestoreDynamicJobs loads jobsPath and re-registers every job found there.
// A missing file is not an error — the scheduler simply starts with no
// dynamic jobs. A job that fails to parse or register (e.g. invalid cron
// syntax) is skipped with a logged warning; it never aborts startup.
func (s *Scheduler) RestoreDynamicJobs() error {
	data, err := os.ReadFile(s.jobsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading scheduled jobs %s: %w", s.jobsPath, err)
	}

	var jobs []Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		slog.Warn("failed to parse scheduled jobs file, starting with none", "path", s.jobsPath, "error", err)
		return nil
	}

	restored := 0
	for _, job := range jobs {
		entryID, err := s.cron.AddFunc(job.Schedule, func(job Job) func() {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()
				if _, err := s.planner.Plan(ctx, job.Goal, "", job.Priority); err != nil {
					slog.Error("dynamic job failed to plan goal", "job", job.Name, "error", err)
				}
			}
		}(job))
		if err != nil {
			slog.Warn("skipping scheduled job with invalid schedule", "job", job.Name, "schedule", job.Schedule, "error", err)
			continue
		}
		s.mu.Lock()
		s.entries[job.ID] = entryID
		s.jobs[job.ID] = job
		s.mu.Unlock()
		restored++
	}
	slog.Info("restored scheduled jobs", "count", restored, "total", len(jobs))
	return nil
}
