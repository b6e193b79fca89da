package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rulesWithDanger() Rules {
	r := DefaultRules()
	r.RequireConfirmation = []string{"rm -rf /", "DROP DATABASE"}
	r.DangerousSubstrings = []string{"delete", "format disk"}
	r.ModerateSubstrings = []string{"restart service"}
	return r
}

func TestRequiresConfirmation(t *testing.T) {
	o := New(rulesWithDanger())
	assert.True(t, o.RequiresConfirmation("sudo rm -rf / --no-preserve-root"))
	assert.False(t, o.RequiresConfirmation("ls -la"))
}

func TestRiskLevel_DangerousBeforeModerate(t *testing.T) {
	o := New(rulesWithDanger())
	assert.Equal(t, RiskDangerous, o.RiskLevel("execute shell: delete all temp files"))
	assert.Equal(t, RiskModerate, o.RiskLevel("restart service nginx"))
	assert.Equal(t, RiskSafe, o.RiskLevel("list directory contents"))
}

func TestCanAutoExecute_DefaultsAllowEverything(t *testing.T) {
	o := New(DefaultRules())
	assert.True(t, o.CanAutoExecute(ActionShell))
	assert.True(t, o.CanAutoExecute(ActionWeb))
}

func TestCanAutoExecute_UnknownActionDenied(t *testing.T) {
	o := New(DefaultRules())
	assert.False(t, o.CanAutoExecute(ActionType("unknown")))
}

func TestAllow_ConfirmationWinsOverAutoExecute(t *testing.T) {
	rules := rulesWithDanger()
	rules.AutoExecuteShell = true
	o := New(rules)

	ok, reason := o.Allow(ActionShell, "sudo rm -rf / now")
	assert.False(t, ok)
	assert.NotEmpty(t, reason)
}

func TestAllow_DangerousBlockedWhenAutoExecuteDisabled(t *testing.T) {
	rules := rulesWithDanger()
	rules.AutoExecuteShell = false
	o := New(rules)

	ok, _ := o.Allow(ActionShell, "execute shell: delete logs")
	assert.False(t, ok)
}

func TestAllow_SafeActionAllowed(t *testing.T) {
	o := New(rulesWithDanger())
	ok, reason := o.Allow(ActionShell, "execute shell: list directory")
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestIsAutonomous(t *testing.T) {
	full := New(DefaultRules())
	assert.True(t, full.IsAutonomous())

	limited := New(Rules{Level: AutonomyLimited})
	assert.False(t, limited.IsAutonomous())
}
