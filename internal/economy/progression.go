package economy

import (
	"context"
	"fmt"
	"math"
	mathrand "math/rand"
	"time"

	"github.com/jackc/pgx/v5"
)

// applyXP adds gained XP and normalizes: while xp clears the current
// threshold, subtract it, bump the level, and grow the threshold. Excess XP
// carries over, so a single large gain can clear several levels. growth > 1
// guarantees the loop terminates.
func applyXP(level int, xp, next, gained int64, growth float64) (newLevel int, newXP, newNext int64, levelsGained int) {
	xp += gained
	for xp >= next {
		xp -= next
		level++
		levelsGained++
		next = int64(math.Floor(float64(next) * growth))
		if next <= 0 {
			next = 1
		}
	}
	return level, xp, next, levelsGained
}

// pickRarityTier draws a tier from the weighted table.
func pickRarityTier(r *mathrand.Rand, tiers []RarityTier) RarityTier {
	total := 0
	for _, t := range tiers {
		total += t.Weight
	}
	n := r.Intn(total)
	for _, t := range tiers {
		n -= t.Weight
		if n < 0 {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// workDraw is the random part of a work action, resolved up front so the
// transaction body stays deterministic across serialization retries.
type workDraw struct {
	item      string
	rarity    string
	baseValue int64
	baseXP    int64
}

func resolveWork(r *mathrand.Rand, tiers []RarityTier, xpMin, xpMax int) workDraw {
	tier := pickRarityTier(r, tiers)
	return workDraw{
		item:      tier.Items[r.Intn(len(tier.Items))],
		rarity:    tier.Name,
		baseValue: tier.MinValue + r.Int63n(tier.MaxValue-tier.MinValue+1),
		baseXP:    int64(xpMin + r.Intn(xpMax-xpMin+1)),
	}
}

// Work performs one mining or fishing action: draw an item from the skill's
// rarity table, credit its yield (base + tool bonus + level bonus, times any
// work-value buff), and award XP (times any XP buff) with level carry-over.
func (s *Service) Work(ctx context.Context, userID, skill string, now time.Time) (WorkResult, error) {
	if !ValidSkill(skill) {
		return WorkResult{}, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return WorkResult{}, err
	}

	var draw workDraw
	s.withRand(func(r *mathrand.Rand) {
		draw = resolveWork(r, s.rules.tiersForSkill(skill), s.rules.Work.XPMin, s.rules.Work.XPMax)
	})

	var res WorkResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		action := WorkAction(skill)
		if err := checkCooldown(ctx, tx, userID, action, s.rules.Work.Cooldown.Duration, now); err != nil {
			return err
		}

		var level int
		var xp, next int64
		err := tx.QueryRow(ctx, `
			SELECT level, xp, next_level_xp FROM work_progress
			WHERE user_id = $1 AND skill = $2 FOR UPDATE`, userID, skill).Scan(&level, &xp, &next)
		if err != nil {
			return fmt.Errorf("lock progress: %w", err)
		}

		toolKey, toolBonusRate, err := equippedToolBonus(ctx, tx, userID, skill, s.rules)
		if err != nil {
			return err
		}

		valueMult, err := buffMultiplier(ctx, tx, userID, BuffWorkValue, now)
		if err != nil {
			return err
		}
		xpMult, err := buffMultiplier(ctx, tx, userID, BuffXP, now)
		if err != nil {
			return err
		}

		toolBonus := int64(math.Floor(float64(draw.baseValue) * toolBonusRate))
		levelBonus := int64(math.Floor(float64(draw.baseValue) * s.rules.Work.LevelBonusRate * float64(level)))
		total := int64(math.Floor(float64(draw.baseValue+toolBonus+levelBonus) * valueMult))
		gained := int64(math.Floor(float64(draw.baseXP) * xpMult))

		newLevel, newXP, newNext, levelsGained := applyXP(level, xp, next, gained, s.rules.Work.ThresholdGrowth)

		_, err = tx.Exec(ctx, `
			UPDATE work_progress SET
				level = $3, xp = $4, next_level_xp = $5,
				total_actions = total_actions + 1,
				total_value_earned = total_value_earned + $6
			WHERE user_id = $1 AND skill = $2`,
			userID, skill, newLevel, newXP, newNext, total)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}

		bal, err := addBalance(ctx, tx, userID, total)
		if err != nil {
			return err
		}
		if err := touchCooldown(ctx, tx, userID, action, now); err != nil {
			return err
		}

		res = WorkResult{
			Skill:        skill,
			Item:         draw.item,
			Rarity:       draw.rarity,
			BaseValue:    draw.baseValue,
			ToolBonus:    toolBonus,
			LevelBonus:   levelBonus,
			TotalValue:   total,
			BaseXP:       draw.baseXP,
			XPGained:     gained,
			LevelsGained: levelsGained,
			Level:        newLevel,
			XP:           newXP,
			NextLevelXP:  newNext,
			Tool:         toolKey,
			NewBalance:   bal,
		}
		return nil
	})
	if err != nil {
		return WorkResult{}, err
	}
	s.log.Info("work", "user", userID, "skill", skill, "item", res.Item, "value", res.TotalValue, "level", res.Level)
	return res, nil
}

// equippedToolBonus resolves the yield bonus of the tool equipped in the
// skill's slot. An empty slot or a tool missing from the catalog gives zero.
func equippedToolBonus(ctx context.Context, tx pgx.Tx, userID, skill string, rules Rules) (string, float64, error) {
	col := slotForSkill(skill)
	var toolKey *string
	q := fmt.Sprintf(`SELECT %s FROM equipped_tools WHERE user_id = $1`, col)
	if err := tx.QueryRow(ctx, q, userID).Scan(&toolKey); err != nil {
		return "", 0, fmt.Errorf("query equipped tool: %w", err)
	}
	if toolKey == nil {
		return "", 0, nil
	}
	for _, tool := range rules.Shop.Tools {
		if tool.Key == *toolKey {
			return tool.Key, tool.Bonus, nil
		}
	}
	return *toolKey, 0, nil
}

// GainXP awards XP directly, outside a work action. Used by the admin CLI.
func (s *Service) GainXP(ctx context.Context, userID, skill string, baseXP int64, now time.Time) (WorkResult, error) {
	if !ValidSkill(skill) {
		return WorkResult{}, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}
	if baseXP <= 0 {
		return WorkResult{}, fmt.Errorf("%w: xp must be positive", ErrInvalidStake)
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return WorkResult{}, err
	}

	var res WorkResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		var level int
		var xp, next int64
		err := tx.QueryRow(ctx, `
			SELECT level, xp, next_level_xp FROM work_progress
			WHERE user_id = $1 AND skill = $2 FOR UPDATE`, userID, skill).Scan(&level, &xp, &next)
		if err != nil {
			return fmt.Errorf("lock progress: %w", err)
		}
		xpMult, err := buffMultiplier(ctx, tx, userID, BuffXP, now)
		if err != nil {
			return err
		}
		gained := int64(math.Floor(float64(baseXP) * xpMult))
		newLevel, newXP, newNext, levelsGained := applyXP(level, xp, next, gained, s.rules.Work.ThresholdGrowth)

		_, err = tx.Exec(ctx, `
			UPDATE work_progress SET level = $3, xp = $4, next_level_xp = $5
			WHERE user_id = $1 AND skill = $2`, userID, skill, newLevel, newXP, newNext)
		if err != nil {
			return fmt.Errorf("update progress: %w", err)
		}
		res = WorkResult{
			Skill: skill, BaseXP: baseXP, XPGained: gained,
			LevelsGained: levelsGained, Level: newLevel, XP: newXP, NextLevelXP: newNext,
		}
		return nil
	})
	if err != nil {
		return WorkResult{}, err
	}
	return res, nil
}
