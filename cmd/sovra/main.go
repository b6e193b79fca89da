// sovra is an autonomous agent runtime: a goal planner, a priority task
// queue, and an execution loop that runs tasks through shell/file/web/api/
// think handlers, self-reflects on retryable failures, and proactively
// schedules its own background work.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/staryone/sovra/pkg/api"
	"github.com/staryone/sovra/pkg/cleanup"
	"github.com/staryone/sovra/pkg/config"
	"github.com/staryone/sovra/pkg/decision"
	"github.com/staryone/sovra/pkg/events"
	"github.com/staryone/sovra/pkg/executor"
	"github.com/staryone/sovra/pkg/llmclient"
	"github.com/staryone/sovra/pkg/loop"
	"github.com/staryone/sovra/pkg/memory"
	"github.com/staryone/sovra/pkg/planner"
	"github.com/staryone/sovra/pkg/policy"
	"github.com/staryone/sovra/pkg/prompt"
	"github.com/staryone/sovra/pkg/queue"
	"github.com/staryone/sovra/pkg/reflection"
	"github.com/staryone/sovra/pkg/scheduler"
	"github.com/staryone/sovra/pkg/vault"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./config"),
		"Path to configuration directory")
	goal := flag.String("goal", "", "Submit a one-off goal before entering the main loop")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("failed to load environment configuration: %v", err)
	}

	personality, err := config.LoadPersonality(env.PersonalityPath)
	if err != nil {
		log.Fatalf("failed to load personality: %v", err)
	}
	slog.Info("loaded personality", "name", personality.Name, "autonomy", personality.Autonomy.Level)

	store, err := queue.Open(env.TaskQueuePath, env.MaxRetries)
	if err != nil {
		log.Fatalf("failed to open task queue: %v", err)
	}

	llm := llmclient.New(llmclient.Config{
		Host:           env.OllamaHost,
		Model:          env.Model,
		EmbeddingModel: env.EmbeddingModel,
		ContextLength:  env.ContextLength,
		Timeout:        env.OllamaTimeout(),
	})

	prompts := prompt.New(personality)
	oracle := policy.New(personality.OracleRules())
	v := vault.New()
	publisher := events.NewEventPublisher()

	memStore := newMemoryStore(env.RedisAddr)

	planEngine := planner.New(llm, prompts, store)
	decisionEngine := decision.New(llm, prompts, oracle, env.RouterConfidenceThreshold)
	reflectionEngine := reflection.New(llm, prompts, store, memStore)

	dispatcher := executor.New(
		&executor.ShellHandler{LLM: llm, Oracle: oracle, Timeout: time.Duration(env.ShellTimeoutSeconds) * time.Second},
		&executor.FileHandler{LLM: llm, Oracle: oracle},
		&executor.WebHandler{HTTPClient: http.DefaultClient, Timeout: time.Duration(env.WebTimeoutSeconds) * time.Second},
		&executor.APIHandler{}, // Router left nil: no external API proxy is wired up
		&executor.ThinkHandler{LLM: llm, Prompts: prompts},
		v,
	)

	execLoop := loop.New(store, dispatcher, reflectionEngine, publisher, v)

	cleanupSvc := cleanup.NewService(
		store,
		time.Duration(env.TaskRetentionDays)*24*time.Hour,
		time.Duration(env.CleanupIntervalHours)*time.Hour,
	)

	sched := scheduler.New(store, planEngine, publisher, env.ScheduledJobsPath)
	if err := sched.RegisterBuiltins(scheduler.BuiltinConfig{
		HealthCheckEnabled:         personality.ProactiveBehaviors.DailyHealthCheck,
		HealthCheckIntervalHours:   env.HealthCheckIntervalHours,
		MemoryConsolidationEnabled: personality.ProactiveBehaviors.AutoMemoryConsolidation,
		MemoryConsolidationHours:   env.MemoryConsolidationHours,
		EvolutionCheckEnabled:      personality.ProactiveBehaviors.AutoEvolutionTrigger,
		EvolutionScheduleHours:     env.EvolutionScheduleHours,
		DiskMonitorEnabled:         personality.ProactiveBehaviors.MonitorDiskSpace,
	}); err != nil {
		log.Fatalf("failed to register built-in scheduled jobs: %v", err)
	}
	if err := sched.RestoreDynamicJobs(); err != nil {
		log.Fatalf("failed to restore scheduled jobs: %v", err)
	}

	if *goal != "" {
		submitAdHocGoal(decisionEngine, planEngine, *goal)
	}

	apiServer := api.NewServer(env.GinMode, store, reflectionEngine, sched)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start()
	cleanupSvc.Start(ctx)
	go execLoop.Start(ctx)

	go func() {
		slog.Info("http status server listening", "port", env.HTTPPort)
		if err := apiServer.Start(":" + env.HTTPPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("status server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping")

	execLoop.Stop()
	sched.Stop()
	cleanupSvc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("status server shutdown error", "error", err)
	}

	slog.Info("sovra stopped")
}

// newMemoryStore builds a durable memory.Store backed by Redis when
// redisAddr is configured, falling back to an in-process store otherwise
// (e.g. local development with no Redis instance running).
func newMemoryStore(redisAddr string) memory.Store {
	if redisAddr == "" {
		return memory.NewInMemory()
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	return memory.NewRedisStore(client, "sovra:memory")
}

// submitAdHocGoal runs a caller-supplied goal through the Decision Engine
// before planning it — ask_human/refuse goals are logged and never reach
// the planner.
func submitAdHocGoal(decisionEngine *decision.Engine, planEngine *planner.Planner, goal string) {
	ctx := context.Background()
	d, err := decisionEngine.Evaluate(ctx, goal, "")
	if err != nil {
		log.Printf("decision engine failed to evaluate goal %q: %v", goal, err)
		return
	}
	switch d.Action {
	case decision.ActionRefuse:
		slog.Warn("goal refused by decision engine", "goal", goal, "reasoning", d.Reasoning)
		return
	case decision.ActionAskHuman:
		slog.Warn("goal requires human confirmation, not auto-planned", "goal", goal, "reasoning", d.Reasoning)
		return
	}

	if _, err := planEngine.Plan(ctx, goal, "", queue.High); err != nil {
		log.Printf("failed to plan ad hoc goal %q: %v", goal, err)
	}
}
