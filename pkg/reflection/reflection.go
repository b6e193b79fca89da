// Package reflection implements bounded-retry self-reflection: when a task
// fails but will be retried, an LLM call analyzes the failure and either
// rewrites the task's strategy for the next attempt or escalates it to a
// human-facing api task.
package reflection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/staryone/sovra/pkg/llmjson"
	"github.com/staryone/sovra/pkg/memory"
	"github.com/staryone/sovra/pkg/queue"
)

const historyCapacity = 200

// llmCompleter is the subset of llmclient.Client reflection needs.
type llmCompleter interface {
	Generate(ctx context.Context, prompt, system string, temperature float64) (string, error)
}

// promptBuilder is the subset of prompt.Builder reflection needs.
type promptBuilder interface {
	ReflectionPrompt(task, errMsg string, attempts []string) string
}

// reflectionResponse is the JSON shape the LLM is asked to produce.
type reflectionResponse struct {
	RootCause        string `json:"root_cause"`
	NewStrategy      string `json:"new_strategy"`
	ShouldEscalate   bool   `json:"should_escalate"`
	EscalationReason string `json:"escalation_reason"`
}

// Entry is one recorded reflection, kept for RecallSimilarFailures.
type Entry struct {
	TaskID      string
	Action      string
	Error       string
	RootCause   string
	NewStrategy string
	Escalated   bool
}

// Engine analyzes task failures and rewrites or escalates their strategy.
// history is a bounded ring buffer so a long-running process doesn't
// accumulate an unbounded reflection log.
type Engine struct {
	llm     llmCompleter
	prompts promptBuilder
	store   *queue.Store
	mem     memory.Store // may be nil: memory writes are best-effort

	mu      sync.Mutex
	history []Entry
}

// New constructs an Engine. mem may be nil to disable lesson persistence.
func New(llm llmCompleter, prompts promptBuilder, store *queue.Store, mem memory.Store) *Engine {
	return &Engine{llm: llm, prompts: prompts, store: store, mem: mem}
}

// Reflect analyzes task's most recent failure (taskErr) and its prior
// Attempts, then mutates task's strategy in the store: escalates it to an
// api task, rewrites its command for the next retry, or leaves it
// unchanged if the LLM proposed no new strategy. It does not change the
// task's status — the store already returned it to Pending if attempts
// remain, per queue.Store.MarkFailed.
func (e *Engine) Reflect(ctx context.Context, task *queue.Task, taskErr error) Entry {
	errMsg := ""
	if taskErr != nil {
		errMsg = taskErr.Error()
	}

	raw, err := e.llm.Generate(ctx, e.prompts.ReflectionPrompt(task.Action, errMsg, task.Attempts), "", 0.3)

	var resp reflectionResponse
	if err != nil || llmjson.Unmarshal(raw, &resp) != nil {
		resp = reflectionResponse{
			RootCause:   "unknown",
			NewStrategy: truncate(raw, 200),
		}
	}

	entry := Entry{
		TaskID:      task.ID,
		Action:      task.Action,
		Error:       errMsg,
		RootCause:   resp.RootCause,
		NewStrategy: resp.NewStrategy,
		Escalated:   resp.ShouldEscalate,
	}
	e.record(entry)

	switch {
	case resp.ShouldEscalate:
		_ = e.store.UpdateStrategy(task.ID, queue.TypeAPI, "Escalated: "+resp.EscalationReason)
	case resp.NewStrategy != "":
		_ = e.store.UpdateStrategy(task.ID, "", resp.NewStrategy)
	}

	e.writeLesson(ctx, task, entry)
	return entry
}

func (e *Engine) record(entry Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, entry)
	if len(e.history) > historyCapacity {
		e.history = e.history[len(e.history)-historyCapacity:]
	}
}

// writeLesson persists a "lesson learned" document for future recall.
// Failures to write are swallowed — a missing lesson is never fatal to the
// task that triggered it.
func (e *Engine) writeLesson(ctx context.Context, task *queue.Task, entry Entry) {
	if e.mem == nil {
		return
	}
	lesson := fmt.Sprintf("LESSON LEARNED: action=%q error=%q root_cause=%q strategy=%q",
		task.Action, entry.Error, entry.RootCause, entry.NewStrategy)
	_ = e.mem.Store(ctx, lesson, map[string]string{"type": "lesson", "task_type": string(task.Type)})
}

// RecallSimilarFailures returns up to topK in-memory history entries whose
// action or root cause overlaps query, most recent first. This only
// searches the process-local ring buffer; durable cross-restart recall
// goes through the wired memory.Store instead (see writeLesson).
func (e *Engine) RecallSimilarFailures(query string, topK int) []Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	var matches []Entry
	words := strings.Fields(strings.ToLower(query))
	for i := len(e.history) - 1; i >= 0 && len(matches) < topK; i-- {
		entry := e.history[i]
		haystack := strings.ToLower(entry.Action + " " + entry.RootCause)
		for _, w := range words {
			if w != "" && strings.Contains(haystack, w) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}

// Summary reports how many reflections are held in the in-memory history
// and how many resulted in escalation.
type Summary struct {
	Total     int
	Escalated int
}

// GetReflectionSummary reports aggregate counts over the in-memory history.
func (e *Engine) GetReflectionSummary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sum Summary
	sum.Total = len(e.history)
	for _, entry := range e.history {
		if entry.Escalated {
			sum.Escalated++
		}
	}
	return sum
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
