// Package prompt builds the system and task prompts sent to the LLM,
// combining the loaded personality with whatever task-specific context a
// caller supplies.
package prompt

import (
	"fmt"
	"strings"

	"github.com/staryone/sovra/pkg/config"
)

const baseTemplate = `You are %s, a sovereign and self-evolving AI agent.
%s

## Your Personality
- **Tone:** %s
- **Values:** %s
- **Communication Style:** %s
- **Expertise:** %s

## Your Capabilities
You are FULLY AUTONOMOUS. You can and should:
- Execute shell commands on the system without asking permission
- Read, write, create, and delete files
- Browse the web and gather information
- Install packages and manage system services
- Schedule your own tasks for later execution
- Learn from every interaction and evolve yourself
- Make decisions independently based on your judgment

## Decision Making
When you receive a task:
1. THINK — Analyze what needs to be done
2. PLAN — Break it into steps if complex
3. ACT — Execute each step
4. OBSERVE — Check the results
5. ADAPT — If something fails, reflect on why and try a different approach

You do NOT need human confirmation for most actions. You decide and execute.
Only ask for confirmation for: %s

## Boundaries
- **Never share:** %s
- **Always disclose:** %s

Remember: You are %s. You are sovereign. You evolve. You decide.`

// Builder renders prompts from a loaded Personality.
type Builder struct {
	personality *config.Personality
}

// New constructs a Builder over personality.
func New(personality *config.Personality) *Builder {
	return &Builder{personality: personality}
}

// Build renders the base system prompt, optionally appending custom
// instructions as a trailing section.
func (b *Builder) Build(customInstructions string) string {
	p := b.personality

	confirmation := strings.Join(p.Autonomy.RequireConfirmationFor, ", ")
	if confirmation == "" {
		confirmation = "nothing (full autonomy)"
	}

	prompt := fmt.Sprintf(baseTemplate,
		p.Name, p.Tagline,
		p.Traits.Tone, strings.Join(p.Traits.Values, ", "), p.Traits.CommunicationStyle,
		strings.Join(p.ExpertiseAreas, ", "),
		confirmation,
		strings.Join(p.Boundaries.NeverShare, ", "),
		strings.Join(p.Boundaries.AlwaysDisclose, ", "),
		p.Name,
	)

	if customInstructions != "" {
		prompt += "\n\n## Additional Instructions\n" + customInstructions
	}
	return prompt
}

// GoalPlanningPrompt asks the LLM to decompose goal into a JSON step plan.
func (b *Builder) GoalPlanningPrompt(goal, context string) string {
	contextLine := ""
	if context != "" {
		contextLine = fmt.Sprintf("Context: %s\n", context)
	}
	return fmt.Sprintf(`You are planning the execution of a goal. Break it down into concrete, executable steps.

Goal: %q

%sRespond with ONLY valid JSON:
{
    "goal": "the original goal",
    "steps": [
        {"id": 1, "action": "description", "type": "shell|file|web|api|think", "command": "if shell, the exact command", "depends_on": []},
        {"id": 2, "action": "description", "type": "shell|file|web|api|think", "command": "...", "depends_on": [1]}
    ],
    "estimated_complexity": "low|medium|high"
}`, goal, contextLine)
}

// ReflectionPrompt asks the LLM to analyze a task failure and propose a new
// strategy or escalation.
func (b *Builder) ReflectionPrompt(task, errMsg string, attempts []string) string {
	var attemptsText strings.Builder
	for i, a := range attempts {
		fmt.Fprintf(&attemptsText, "  Attempt %d: %s\n", i+1, a)
	}
	return fmt.Sprintf(`A task has failed. Analyze what went wrong and suggest a new approach.

Task: %q
Error: %q
Previous attempts:
%s
Respond with ONLY valid JSON:
{
    "root_cause": "what went wrong",
    "new_strategy": "what to try differently",
    "should_escalate": false,
    "escalation_reason": "if should_escalate is true, why"
}`, task, errMsg, attemptsText.String())
}

// EvaluationPrompt asks the LLM how an incoming request should be handled.
func (b *Builder) EvaluationPrompt(request, context, autonomyLevel, risk string) string {
	contextLine := ""
	if context != "" {
		contextLine = fmt.Sprintf("Context: %s\n", context)
	}
	return fmt.Sprintf(`You are an autonomous AI agent making a decision.

Request: %q
%s
Your autonomy level: %s

Evaluate this request and decide how to handle it.
Respond with ONLY valid JSON:
{
    "action": "execute",
    "risk_level": %q,
    "requires_external": false,
    "reasoning": "brief reasoning",
    "suggested_approach": "what to do",
    "task_type": "shell|file|web|api|think",
    "estimated_steps": 1
}

Rules:
- action "execute" = proceed autonomously
- action "ask_human" = only for truly ambiguous or personal decisions
- action "refuse" = only for clearly harmful/unethical requests
- requires_external = true only if this needs a larger LLM model`, request, contextLine, autonomyLevel, risk)
}

// ProactiveActionPrompt asks the LLM whether an observation warrants
// autonomous action.
func (b *Builder) ProactiveActionPrompt(observation string) string {
	return fmt.Sprintf(`You observed something on the system:
%q

Should you take proactive action? If yes, what should you do?
Respond with JSON:
{
    "should_act": true,
    "action": "what to do",
    "urgency": "immediate|soon|when_convenient",
    "reasoning": "why"
}`, observation)
}

// ComplexityPrompt asks the LLM to classify a message for routing purposes.
func (b *Builder) ComplexityPrompt(message string) string {
	return fmt.Sprintf(`Classify the complexity of this request:
%q

Level 1 = Simple (chat, basic Q&A) -> local LLM
Level 2 = Medium (needs memory/context) -> local LLM + RAG
Level 3 = Complex (deep reasoning, code, math) -> external API

Respond with JSON only: {"level": 1, "confidence": 0.9, "needs_rag": false, "reasoning": "brief"}`, message)
}
