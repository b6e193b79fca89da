package config

import (
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/staryone/sovra/pkg/policy"
)

// Traits describes the agent's conversational persona, surfaced into the
// system prompt built for "think" tasks.
type Traits struct {
	Tone                string   `yaml:"tone"`
	Values              []string `yaml:"values"`
	CommunicationStyle  string   `yaml:"communication_style"`
	HumorLevel          float64  `yaml:"humor_level"`
	EmpathyLevel        float64  `yaml:"empathy_level"`
	CuriosityLevel      float64  `yaml:"curiosity_level"`
	AssertivenessLevel  float64  `yaml:"assertiveness_level"`
}

// RiskAssessment lists substrings used to classify an action's risk level.
type RiskAssessment struct {
	Dangerous []string `yaml:"dangerous"`
	Moderate  []string `yaml:"moderate"`
}

// Autonomy configures the Policy Oracle's rule set.
type Autonomy struct {
	Level                  string         `yaml:"level"`
	AutoExecuteShell       *bool          `yaml:"auto_execute_shell,omitempty"`
	AutoManageFiles        *bool          `yaml:"auto_manage_files,omitempty"`
	AutoInstallPackages    *bool          `yaml:"auto_install_packages,omitempty"`
	AutoBrowseWeb          *bool          `yaml:"auto_browse_web,omitempty"`
	AutoScheduleTasks      *bool          `yaml:"auto_schedule_tasks,omitempty"`
	RequireConfirmationFor []string       `yaml:"require_confirmation_for"`
	RiskAssessmentConfig   RiskAssessment `yaml:"risk_assessment"`
}

// Boundaries lists what the agent must never share and must always disclose,
// rendered into the system prompt.
type Boundaries struct {
	NeverShare     []string `yaml:"never_share"`
	AlwaysDisclose []string `yaml:"always_disclose"`
}

// ProactiveBehaviors toggles the Proactive Scheduler's built-in jobs.
type ProactiveBehaviors struct {
	DailyHealthCheck        bool `yaml:"daily_health_check"`
	AutoMemoryConsolidation bool `yaml:"auto_memory_consolidation"`
	AutoEvolutionTrigger    bool `yaml:"auto_evolution_trigger"`
	MonitorDiskSpace        bool `yaml:"monitor_disk_space"`
}

// Personality is sovra's full personality/autonomy configuration, loaded
// from a single YAML file and consumed by pkg/policy, pkg/scheduler and the
// prompt builder.
type Personality struct {
	Name               string             `yaml:"name"`
	Version            string             `yaml:"version"`
	Tagline            string             `yaml:"tagline"`
	Traits             Traits             `yaml:"traits"`
	Autonomy           Autonomy           `yaml:"autonomy"`
	Boundaries         Boundaries         `yaml:"boundaries"`
	ExpertiseAreas     []string           `yaml:"expertise_areas"`
	ProactiveBehaviors ProactiveBehaviors `yaml:"proactive_behaviors"`
}

func boolPtr(b bool) *bool { return &b }

// DefaultPersonality mirrors PersonalityEngine._default_config(): full
// autonomy, every proactive behavior enabled, no confirmation/risk
// substrings configured.
func DefaultPersonality() *Personality {
	return &Personality{
		Name:    "Sovra",
		Version: "0.1.0",
		Tagline: "Keep your data, evolve your soul.",
		Traits: Traits{
			Tone:               "friendly and thoughtful",
			Values:             []string{"privacy", "autonomy", "honesty"},
			CommunicationStyle: "clear and warm",
			HumorLevel:         0.5,
			EmpathyLevel:       0.7,
			CuriosityLevel:     0.8,
			AssertivenessLevel: 0.6,
		},
		Autonomy: Autonomy{
			Level:               "full",
			AutoExecuteShell:    boolPtr(true),
			AutoManageFiles:     boolPtr(true),
			AutoInstallPackages: boolPtr(true),
			AutoBrowseWeb:       boolPtr(true),
			AutoScheduleTasks:   boolPtr(true),
		},
		ProactiveBehaviors: ProactiveBehaviors{
			DailyHealthCheck:        true,
			AutoMemoryConsolidation: true,
			AutoEvolutionTrigger:    true,
			MonitorDiskSpace:        true,
		},
	}
}

// LoadPersonality reads path and merges it over DefaultPersonality, so a
// user file only needs to specify the fields it wants to override — exactly
// the layering pkg/config's YAML loader does for personality.yaml. A missing
// file is not an error: the defaults are returned unchanged, matching
// PersonalityEngine's FileNotFoundError fallback.
func LoadPersonality(path string) (*Personality, error) {
	result := DefaultPersonality()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, NewLoadError(path, err)
	}

	var loaded Personality
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, NewLoadError(path, err)
	}

	if err := mergo.Merge(result, loaded, mergo.WithOverride); err != nil {
		return nil, NewLoadError(path, err)
	}
	return result, nil
}

// OracleRules converts the loaded Autonomy block into policy.Rules.
func (p *Personality) OracleRules() policy.Rules {
	a := p.Autonomy
	level := policy.AutonomyLimited
	if a.Level == "full" || a.Level == "" {
		level = policy.AutonomyFull
	}
	return policy.Rules{
		Level:               level,
		AutoExecuteShell:    derefDefault(a.AutoExecuteShell, true),
		AutoManageFiles:     derefDefault(a.AutoManageFiles, true),
		AutoInstallPackages: derefDefault(a.AutoInstallPackages, true),
		AutoBrowseWeb:       derefDefault(a.AutoBrowseWeb, true),
		AutoScheduleTasks:   derefDefault(a.AutoScheduleTasks, true),
		RequireConfirmation: a.RequireConfirmationFor,
		DangerousSubstrings: a.RiskAssessmentConfig.Dangerous,
		ModerateSubstrings:  a.RiskAssessmentConfig.Moderate,
	}
}

func derefDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
