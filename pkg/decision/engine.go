// Package decision routes incoming requests and observations: should sovra
// act on its own, ask a human, or refuse — and for chat-style requests,
// whether the request needs external escalation.
package decision

import (
	"context"
	"log/slog"

	"github.com/staryone/sovra/pkg/llmjson"
	"github.com/staryone/sovra/pkg/policy"
)

// Action is the outcome of Evaluate.
type Action string

const (
	ActionExecute  Action = "execute"
	ActionAskHuman Action = "ask_human"
	ActionRefuse   Action = "refuse"
)

// Urgency classifies how soon a proactive action should run.
type Urgency string

const (
	UrgencyImmediate     Urgency = "immediate"
	UrgencySoon          Urgency = "soon"
	UrgencyWhenConvenient Urgency = "when_convenient"
)

// Decision is the result of Evaluate.
type Decision struct {
	Action             Action           `json:"action"`
	RiskLevel          policy.RiskLevel `json:"risk_level"`
	RequiresExternal   bool             `json:"requires_external"`
	Reasoning          string           `json:"reasoning"`
	SuggestedApproach  string           `json:"suggested_approach"`
	TaskType           string           `json:"task_type"`
	EstimatedSteps     int              `json:"estimated_steps"`
}

// ProactiveDecision is the result of ShouldProactivelyAct.
type ProactiveDecision struct {
	ShouldAct bool    `json:"should_act"`
	Action    string  `json:"action"`
	Urgency   Urgency `json:"urgency"`
	Reasoning string  `json:"reasoning"`
}

// Complexity is the result of ClassifyComplexity.
type Complexity struct {
	Level      int     `json:"level"`
	Confidence float64 `json:"confidence"`
	NeedsRAG   bool    `json:"needs_rag"`
	Reasoning  string  `json:"reasoning"`
}

type llmCompleter interface {
	Generate(ctx context.Context, prompt, system string, temperature float64) (string, error)
}

type promptBuilder interface {
	EvaluationPrompt(request, context, autonomyLevel, risk string) string
	ProactiveActionPrompt(observation string) string
	ComplexityPrompt(message string) string
}

// Engine is the central decision hub: evaluate a request, decide whether to
// proactively act on an observation, and classify request complexity for
// routing.
type Engine struct {
	llm     llmCompleter
	prompts promptBuilder
	oracle  *policy.Oracle

	// ConfidenceThreshold is the minimum classifier confidence below which
	// ClassifyComplexity escalates to level 3 regardless of the LLM's own
	// level estimate. Defaults to 0.7 if zero.
	ConfidenceThreshold float64
}

// New constructs an Engine.
func New(llm llmCompleter, prompts promptBuilder, oracle *policy.Oracle, confidenceThreshold float64) *Engine {
	if confidenceThreshold == 0 {
		confidenceThreshold = 0.7
	}
	return &Engine{llm: llm, prompts: prompts, oracle: oracle, ConfidenceThreshold: confidenceThreshold}
}

// Evaluate decides how to handle request. A request matching a
// confirmation substring short-circuits to ask_human without consulting the
// LLM at all, exactly as the original does.
func (e *Engine) Evaluate(ctx context.Context, request, context_ string) (Decision, error) {
	risk := e.oracle.RiskLevel(request)

	if e.oracle.RequiresConfirmation(request) {
		return Decision{
			Action:            ActionAskHuman,
			RiskLevel:         policy.RiskDangerous,
			Reasoning:         "This action requires human confirmation per safety config.",
			SuggestedApproach: request,
		}, nil
	}

	autonomyLevel := "full"
	if !e.oracle.IsAutonomous() {
		autonomyLevel = "limited"
	}

	prompt := e.prompts.EvaluationPrompt(request, context_, autonomyLevel, string(risk))
	response, err := e.llm.Generate(ctx, prompt, "", 0.2)
	if err != nil {
		return Decision{}, err
	}

	var d Decision
	if err := llmjson.Unmarshal(response, &d); err != nil {
		return Decision{
			Action:            ActionExecute,
			RiskLevel:         risk,
			Reasoning:         "Default decision: proceed with execution",
			SuggestedApproach: request,
		}, nil
	}

	if risk == policy.RiskDangerous && !e.oracle.IsAutonomous() {
		d.Action = ActionAskHuman
		d.Reasoning += " (overridden: autonomy not fully enabled)"
	}
	return d, nil
}

// ShouldProactivelyAct decides whether observation warrants autonomous
// action. It returns nil (no action) when the oracle is not operating at
// full autonomy, without ever consulting the LLM.
func (e *Engine) ShouldProactivelyAct(ctx context.Context, observation string) (*ProactiveDecision, error) {
	if !e.oracle.IsAutonomous() {
		return nil, nil
	}

	prompt := e.prompts.ProactiveActionPrompt(observation)
	response, err := e.llm.Generate(ctx, prompt, "", 0.3)
	if err != nil {
		return nil, err
	}

	var d ProactiveDecision
	if err := llmjson.Unmarshal(response, &d); err != nil || !d.ShouldAct {
		return nil, nil
	}
	return &d, nil
}

// ClassifyComplexity classifies message for routing. Confidence below
// ConfidenceThreshold escalates the level to 3 (external API) even if the
// LLM reported a lower level.
func (e *Engine) ClassifyComplexity(ctx context.Context, message string) (Complexity, error) {
	prompt := e.prompts.ComplexityPrompt(message)
	response, err := e.llm.Generate(ctx, prompt, "", 0.1)
	if err != nil {
		return Complexity{}, err
	}

	var c Complexity
	if err := llmjson.Unmarshal(response, &c); err != nil {
		return Complexity{Level: 1, Confidence: 0.5, Reasoning: "parse error, defaulting to local"}, nil
	}

	if c.Confidence < e.ConfidenceThreshold && c.Level < 3 {
		slog.Info("escalating complexity due to low confidence", "confidence", c.Confidence)
		c.Level = 3
		c.Reasoning = "low confidence, escalating to external API"
	}
	return c, nil
}
