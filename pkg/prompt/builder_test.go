package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/staryone/sovra/pkg/config"
)

func TestBuild_RendersPersonalityFields(t *testing.T) {
	p := config.DefaultPersonality()
	p.Name = "Aria"
	p.Traits.Tone = "dry and precise"
	b := New(p)

	prompt := b.Build("")
	assert.Contains(t, prompt, "You are Aria")
	assert.Contains(t, prompt, "dry and precise")
	assert.Contains(t, prompt, "You are sovereign. You evolve. You decide.")
}

func TestBuild_AppendsCustomInstructions(t *testing.T) {
	b := New(config.DefaultPersonality())
	prompt := b.Build("Always answer in haiku.")
	assert.Contains(t, prompt, "## Additional Instructions")
	assert.Contains(t, prompt, "Always answer in haiku.")
}

func TestBuild_NoConfirmationRequirementsReadsAsFullAutonomy(t *testing.T) {
	b := New(config.DefaultPersonality())
	assert.Contains(t, b.Build(""), "nothing (full autonomy)")
}

func TestBuild_ListsRequiredConfirmations(t *testing.T) {
	p := config.DefaultPersonality()
	p.Autonomy.RequireConfirmationFor = []string{"rm -rf /", "shutdown the host"}
	b := New(p)

	assert.Contains(t, b.Build(""), "rm -rf /, shutdown the host")
}

func TestGoalPlanningPrompt_IncludesGoalAndContext(t *testing.T) {
	b := New(config.DefaultPersonality())
	prompt := b.GoalPlanningPrompt("back up the database", "nightly job, low risk tolerance")
	assert.Contains(t, prompt, `"back up the database"`)
	assert.Contains(t, prompt, "Context: nightly job, low risk tolerance")
	assert.Contains(t, prompt, `"estimated_complexity"`)
}

func TestGoalPlanningPrompt_OmitsContextLineWhenEmpty(t *testing.T) {
	b := New(config.DefaultPersonality())
	assert.NotContains(t, b.GoalPlanningPrompt("goal", ""), "Context:")
}

func TestReflectionPrompt_ListsPriorAttemptsInOrder(t *testing.T) {
	b := New(config.DefaultPersonality())
	prompt := b.ReflectionPrompt("install nginx", "permission denied", []string{"apt install nginx", "sudo apt install nginx"})
	assert.Contains(t, prompt, "Attempt 1: apt install nginx")
	assert.Contains(t, prompt, "Attempt 2: sudo apt install nginx")
	assert.Contains(t, prompt, `"root_cause"`)
}

func TestEvaluationPrompt_IncludesRiskAndAutonomyLevel(t *testing.T) {
	b := New(config.DefaultPersonality())
	prompt := b.EvaluationPrompt("delete old logs", "", "full", "moderate")
	assert.Contains(t, prompt, "Your autonomy level: full")
	assert.Contains(t, prompt, `"risk_level": "moderate"`)
}

func TestProactiveActionPrompt_IncludesObservation(t *testing.T) {
	b := New(config.DefaultPersonality())
	assert.Contains(t, b.ProactiveActionPrompt("disk usage at 95%"), "disk usage at 95%")
}

func TestComplexityPrompt_IncludesMessage(t *testing.T) {
	b := New(config.DefaultPersonality())
	prompt := b.ComplexityPrompt("what's the capital of France?")
	assert.Contains(t, prompt, "what's the capital of France?")
	assert.Contains(t, prompt, `"level"`)
}
