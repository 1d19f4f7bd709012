package economy

import (
	"errors"
	"fmt"
	"time"
)

// Skills tracked by the progression subsystem.
const (
	SkillMining  = "mining"
	SkillFishing = "fishing"
)

// Cooldown action kinds. Work cooldowns are derived per skill.
const (
	ActionDaily      = "daily"
	ActionSteal      = "steal"
	ActionStolenFrom = "stolen_from"
)

// Buff types consulted by the engines.
const (
	BuffXP              = "xp"
	BuffWorkValue       = "work_value"
	BuffStealSuccess    = "steal_success"
	BuffStealResistance = "steal_resistance"
)

// Game kinds, used as stat column prefixes and result descriptors.
const (
	GameRoll      = "rolls"
	GameBlackjack = "blackjacks"
	GameSlots     = "slots"
)

// Equipment slots.
const (
	SlotPickaxe    = "pickaxe"
	SlotFishingRod = "fishing_rod"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOnCooldown        = errors.New("action on cooldown")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInvalidStake      = errors.New("stake must be positive")
	ErrTxConflict        = errors.New("conflicting concurrent transaction, retries exhausted")
	ErrHeistNotFound     = errors.New("heist not found")
	ErrHeistClosed       = errors.New("heist is no longer open")
	ErrAlreadyJoined     = errors.New("already joined this heist")
	ErrUnknownItem       = errors.New("unknown shop item")
	ErrLevelRequired     = errors.New("skill level too low for this item")
	ErrNotOwned          = errors.New("item not in inventory")
	ErrUnknownSkill      = errors.New("unknown skill")
	ErrAccountNotFound   = errors.New("account not found")
)

// CooldownError reports how long the caller must wait. It matches
// ErrOnCooldown under errors.Is.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Action, e.Remaining.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrOnCooldown
}

// WorkAction returns the cooldown action kind for a work skill.
func WorkAction(skill string) string {
	return "work_" + skill
}

// ValidSkill reports whether the progression tracker knows the skill.
func ValidSkill(skill string) bool {
	return skill == SkillMining || skill == SkillFishing
}

// slotForSkill maps a work skill to the tool slot it consults.
func slotForSkill(skill string) string {
	if skill == SkillFishing {
		return SlotFishingRod
	}
	return SlotPickaxe
}
