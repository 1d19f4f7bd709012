package economy

import (
	"errors"
	"testing"
	"time"
)

func TestCooldownErrorMatchesSentinel(t *testing.T) {
	err := error(&CooldownError{Action: ActionSteal, Remaining: 30 * time.Minute})
	if !errors.Is(err, ErrOnCooldown) {
		t.Fatalf("expected CooldownError to match ErrOnCooldown")
	}
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("expected errors.As to recover CooldownError")
	}
	if cd.Remaining != 30*time.Minute {
		t.Fatalf("remaining = %s", cd.Remaining)
	}
}

func TestWorkAction(t *testing.T) {
	if got := WorkAction(SkillMining); got != "work_mining" {
		t.Fatalf("got %q", got)
	}
	if got := WorkAction(SkillFishing); got != "work_fishing" {
		t.Fatalf("got %q", got)
	}
}

func TestValidSkill(t *testing.T) {
	for _, skill := range []string{SkillMining, SkillFishing} {
		if !ValidSkill(skill) {
			t.Fatalf("expected %q to be valid", skill)
		}
	}
	for _, skill := range []string{"", "farming", "Mining"} {
		if ValidSkill(skill) {
			t.Fatalf("expected %q to be invalid", skill)
		}
	}
}

func TestSlotForSkill(t *testing.T) {
	if slotForSkill(SkillMining) != SlotPickaxe {
		t.Fatalf("mining should use the pickaxe slot")
	}
	if slotForSkill(SkillFishing) != SlotFishingRod {
		t.Fatalf("fishing should use the fishing rod slot")
	}
}
