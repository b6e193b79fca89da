// Package planner decomposes a high-level goal into a dependency-ordered
// set of queue.Tasks using a single LLM completion.
package planner

import (
	"context"
	"log/slog"

	"github.com/staryone/sovra/pkg/llmjson"
	"github.com/staryone/sovra/pkg/queue"
)

// llmCompleter is the narrow slice of llmclient.Client the planner needs,
// kept separate so tests can supply a minimal fake.
type llmCompleter interface {
	Generate(ctx context.Context, prompt, system string, temperature float64) (string, error)
}

// promptBuilder is the narrow slice of prompt.Builder the planner needs.
type promptBuilder interface {
	Build(customInstructions string) string
	GoalPlanningPrompt(goal, context string) string
}

type planStep struct {
	ID        any    `json:"id"`
	Action    string `json:"action"`
	Type      string `json:"type"`
	Command   string `json:"command"`
	DependsOn []any  `json:"depends_on"`
}

type planResponse struct {
	Steps []planStep `json:"steps"`
}

// Planner decomposes goals into tasks and enqueues them.
type Planner struct {
	llm     llmCompleter
	prompts promptBuilder
	store   *queue.Store
}

// New constructs a Planner.
func New(llm llmCompleter, prompts promptBuilder, store *queue.Store) *Planner {
	return &Planner{llm: llm, prompts: prompts, store: store}
}

// Plan decomposes goal into one or more tasks at the given priority,
// resolves their depends_on references against each other's IDs, enqueues
// them, and returns the new tasks. If the LLM response cannot be parsed as
// a step plan, a single "think" task for the whole goal is created instead
// — never an error, matching the original's parse-failure fallback.
func (p *Planner) Plan(ctx context.Context, goal, taskContext string, priority queue.Priority) ([]*queue.Task, error) {
	slog.Info("planning goal", "goal", goal)

	prompt := p.prompts.GoalPlanningPrompt(goal, taskContext)
	system := p.prompts.Build("")

	response, err := p.llm.Generate(ctx, prompt, system, 0.3)
	if err != nil {
		return nil, err
	}

	var plan planResponse
	if err := llmjson.Unmarshal(response, &plan); err != nil || len(plan.Steps) == 0 {
		slog.Warn("failed to parse goal plan, creating single task", "goal", goal)
		plan.Steps = []planStep{{ID: 1.0, Action: goal, Type: "think"}}
	}

	tasks := make([]*queue.Task, len(plan.Steps))
	idMapping := make(map[any]string, len(plan.Steps))
	for i, step := range plan.Steps {
		id := queue.NewTaskID()
		key := step.ID
		if key == nil {
			key = float64(i + 1)
		}
		idMapping[key] = id

		tasks[i] = &queue.Task{
			ID:       id,
			Goal:     goal,
			Action:   step.Action,
			Type:     queue.Type(orDefault(step.Type, "think")),
			Command:  step.Command,
			Priority: priority,
		}
	}

	for i, step := range plan.Steps {
		deps := make([]string, 0, len(step.DependsOn))
		for _, d := range step.DependsOn {
			if id, ok := idMapping[d]; ok {
				deps = append(deps, id)
			}
		}
		tasks[i].DependsOn = deps
	}

	if err := p.store.Enqueue(tasks...); err != nil {
		return nil, err
	}

	slog.Info("created tasks for goal", "count", len(tasks), "goal", goal)
	return tasks, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
