// Package config loads sovra's environment-variable runtime configuration
// and its YAML personality/autonomy file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Env is the environment-variable configuration consumed by cmd/sovra to
// construct every other component. Every field has a documented default,
// matching the original's os.getenv(KEY, default) calls one for one.
type Env struct {
	TaskQueuePath       string
	ScheduledJobsPath   string
	PersonalityPath     string
	MaxRetries          int
	ShellTimeoutSeconds int
	WebTimeoutSeconds   int

	OllamaHost            string
	Model                 string
	EmbeddingModel        string
	ContextLength         int
	OllamaTimeoutSeconds  int
	RouterConfidenceThreshold float64

	EvolutionMinSamples      int
	EvolutionScheduleHours   int
	HealthCheckIntervalHours int
	MemoryConsolidationHours int

	HTTPPort string
	GinMode  string

	RedisAddr string

	TaskRetentionDays    int
	CleanupIntervalHours int
}

// LoadEnv reads Env from the process environment, applying the same
// defaults as the original's os.getenv calls.
func LoadEnv() (*Env, error) {
	maxRetries, err := envInt("AUTONOMY_MAX_RETRIES", 3)
	if err != nil {
		return nil, NewValidationError("env", "AUTONOMY_MAX_RETRIES", err)
	}
	shellTimeout, err := envInt("SHELL_TIMEOUT", 300)
	if err != nil {
		return nil, NewValidationError("env", "SHELL_TIMEOUT", err)
	}
	contextLength, err := envInt("SOVRA_CONTEXT_LENGTH", 16384)
	if err != nil {
		return nil, NewValidationError("env", "SOVRA_CONTEXT_LENGTH", err)
	}
	ollamaTimeout, err := envInt("OLLAMA_TIMEOUT", 600)
	if err != nil {
		return nil, NewValidationError("env", "OLLAMA_TIMEOUT", err)
	}
	confidence, err := envFloat("ROUTER_CONFIDENCE_THRESHOLD", 0.7)
	if err != nil {
		return nil, NewValidationError("env", "ROUTER_CONFIDENCE_THRESHOLD", err)
	}
	minSamples, err := envInt("EVOLUTION_MIN_SAMPLES", 200)
	if err != nil {
		return nil, NewValidationError("env", "EVOLUTION_MIN_SAMPLES", err)
	}
	evolutionHours, err := envInt("EVOLUTION_SCHEDULE_HOURS", 168)
	if err != nil {
		return nil, NewValidationError("env", "EVOLUTION_SCHEDULE_HOURS", err)
	}
	healthHours, err := envInt("SCHEDULER_HEALTH_CHECK_INTERVAL_HOURS", 24)
	if err != nil {
		return nil, NewValidationError("env", "SCHEDULER_HEALTH_CHECK_INTERVAL_HOURS", err)
	}
	memoryHours, err := envInt("SCHEDULER_MEMORY_CONSOLIDATION_HOURS", 168)
	if err != nil {
		return nil, NewValidationError("env", "SCHEDULER_MEMORY_CONSOLIDATION_HOURS", err)
	}
	retentionDays, err := envInt("TASK_RETENTION_DAYS", 30)
	if err != nil {
		return nil, NewValidationError("env", "TASK_RETENTION_DAYS", err)
	}
	cleanupHours, err := envInt("CLEANUP_INTERVAL_HOURS", 12)
	if err != nil {
		return nil, NewValidationError("env", "CLEANUP_INTERVAL_HOURS", err)
	}

	return &Env{
		TaskQueuePath:             envStr("AUTONOMY_TASK_QUEUE_PATH", "./data/task_queue.json"),
		ScheduledJobsPath:         envStr("SCHEDULER_JOBS_PATH", "./data/scheduled_jobs.json"),
		PersonalityPath:           envStr("SOVRA_PERSONALITY_PATH", "./config/personality.yaml"),
		MaxRetries:                maxRetries,
		ShellTimeoutSeconds:       shellTimeout,
		WebTimeoutSeconds:         30,
		OllamaHost:                envStr("OLLAMA_HOST", "http://localhost:11434"),
		Model:                     envStr("SOVRA_MODEL", "sovra-brain"),
		EmbeddingModel:            envStr("EMBEDDING_MODEL", "nomic-embed-text"),
		ContextLength:             contextLength,
		OllamaTimeoutSeconds:      ollamaTimeout,
		RouterConfidenceThreshold: confidence,
		EvolutionMinSamples:       minSamples,
		EvolutionScheduleHours:    evolutionHours,
		HealthCheckIntervalHours:  healthHours,
		MemoryConsolidationHours:  memoryHours,
		HTTPPort:                  envStr("HTTP_PORT", "8080"),
		GinMode:                   envStr("GIN_MODE", "debug"),
		RedisAddr:                 envStr("REDIS_ADDR", "localhost:6379"),
		TaskRetentionDays:         retentionDays,
		CleanupIntervalHours:      cleanupHours,
	}, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a float: %w", key, v, err)
	}
	return f, nil
}

// OllamaTimeout returns OllamaTimeoutSeconds as a time.Duration.
func (e *Env) OllamaTimeout() time.Duration {
	return time.Duration(e.OllamaTimeoutSeconds) * time.Second
}
