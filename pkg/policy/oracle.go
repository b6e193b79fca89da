// Package policy implements the Policy Oracle: a pure, stateless set of
// predicates gating which actions the Execution Loop may take
// autonomously. Every predicate is a read of an immutable Rules value —
// no I/O, no mutation, no clock reads.
package policy

import "strings"

// RiskLevel classifies how dangerous a proposed action is.
type RiskLevel string

const (
	RiskSafe      RiskLevel = "safe"
	RiskModerate  RiskLevel = "moderate"
	RiskDangerous RiskLevel = "dangerous"
)

// AutonomyLevel is the overall operating posture. Only "full" permits
// unattended execution of dangerous actions; anything else routes them to
// ask_human regardless of per-action-type settings.
type AutonomyLevel string

const (
	AutonomyFull    AutonomyLevel = "full"
	AutonomyLimited AutonomyLevel = "limited"
)

// Rules is the immutable, loaded-once policy configuration. pkg/config
// loads this from the personality YAML file; Oracle never re-reads it.
type Rules struct {
	Level                AutonomyLevel
	AutoExecuteShell     bool
	AutoManageFiles      bool
	AutoInstallPackages  bool
	AutoBrowseWeb        bool
	AutoScheduleTasks    bool
	RequireConfirmation  []string
	DangerousSubstrings  []string
	ModerateSubstrings   []string
}

// DefaultRules matches PersonalityEngine._default_config()'s autonomy block:
// full autonomy, every action type auto-executes, nothing requires
// confirmation, no risk substrings configured.
func DefaultRules() Rules {
	return Rules{
		Level:               AutonomyFull,
		AutoExecuteShell:    true,
		AutoManageFiles:     true,
		AutoInstallPackages: true,
		AutoBrowseWeb:       true,
		AutoScheduleTasks:   true,
	}
}

// ActionType names the can_auto_execute mapping keys.
type ActionType string

const (
	ActionShell    ActionType = "shell"
	ActionFiles    ActionType = "files"
	ActionPackages ActionType = "packages"
	ActionWeb      ActionType = "web"
	ActionSchedule ActionType = "schedule"
)

// Oracle evaluates Rules against proposed actions. It holds no state beyond
// the rules themselves and performs no I/O — every method is a pure
// function of (Oracle, input).
type Oracle struct {
	rules Rules
}

// New constructs an Oracle over the given rules.
func New(rules Rules) *Oracle {
	return &Oracle{rules: rules}
}

// IsAutonomous reports whether the oracle is operating at full autonomy.
func (o *Oracle) IsAutonomous() bool {
	return o.rules.Level == AutonomyFull
}

// CanAutoExecute reports whether the given action type may run without
// human confirmation, independent of risk level.
func (o *Oracle) CanAutoExecute(action ActionType) bool {
	switch action {
	case ActionShell:
		return o.rules.AutoExecuteShell
	case ActionFiles:
		return o.rules.AutoManageFiles
	case ActionPackages:
		return o.rules.AutoInstallPackages
	case ActionWeb:
		return o.rules.AutoBrowseWeb
	case ActionSchedule:
		return o.rules.AutoScheduleTasks
	default:
		return false
	}
}

// RequiresConfirmation reports whether command contains any of the
// configured dangerous substrings that always require a human in the loop,
// regardless of autonomy level.
func (o *Oracle) RequiresConfirmation(command string) bool {
	for _, dangerous := range o.rules.RequireConfirmation {
		if dangerous != "" && strings.Contains(command, dangerous) {
			return true
		}
	}
	return false
}

// RiskLevel classifies a free-text description of an action. Dangerous
// substrings are checked before moderate ones, so an action matching both
// lists is treated as dangerous.
func (o *Oracle) RiskLevel(actionDescription string) RiskLevel {
	lower := strings.ToLower(actionDescription)

	for _, s := range o.rules.DangerousSubstrings {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return RiskDangerous
		}
	}
	for _, s := range o.rules.ModerateSubstrings {
		if s != "" && strings.Contains(lower, strings.ToLower(s)) {
			return RiskModerate
		}
	}
	return RiskSafe
}

// Allow is the single gate the Execution Loop calls before any
// state-changing action: it combines RequiresConfirmation, RiskLevel and
// CanAutoExecute the same way _execute_shell chains them in the original —
// an explicit confirmation substring always wins, then a dangerous risk
// level needs the action type to be auto-executable, and anything else is
// allowed.
func (o *Oracle) Allow(action ActionType, description string) (bool, string) {
	if o.RequiresConfirmation(description) {
		return false, "command requires confirmation per policy"
	}
	if o.RiskLevel(description) == RiskDangerous && !o.CanAutoExecute(action) {
		return false, "dangerous action disabled for this action type"
	}
	return true, ""
}
