package economy

import (
	"context"
	"fmt"
	"math"
	mathrand "math/rand"
	"time"

	"github.com/jackc/pgx/v5"
)

// stealDraw holds the unit randoms for one attempt, drawn before the
// transaction so retries replay the same outcome against fresh balances.
type stealDraw struct {
	successRoll float64
	tierRoll    int
	pctFrac     float64
	penaltyFrac float64
}

func drawSteal(r *mathrand.Rand, tiers []StealTier) stealDraw {
	total := 0
	for _, t := range tiers {
		total += t.Weight
	}
	return stealDraw{
		successRoll: r.Float64(),
		tierRoll:    r.Intn(total),
		pctFrac:     r.Float64(),
		penaltyFrac: r.Float64(),
	}
}

// stealRate computes the success chance against a target balance: a base
// rate plus wealth bonuses that saturate at the configured caps, scaled by
// the thief's success buff and the victim's resistance buff.
func stealRate(rules StealRules, targetBalance int64, thiefMult, victimMult float64) (base, final float64) {
	base = rules.BaseRate
	base += rules.WealthBonus * math.Min(float64(targetBalance)/float64(rules.WealthCap), 1)
	base += rules.ExtraWealthBonus * math.Min(float64(targetBalance)/float64(rules.ExtraWealthCap), 1)
	final = base * thiefMult * victimMult
	if final < 0.05 {
		final = 0.05
	}
	if final > 0.95 {
		final = 0.95
	}
	return base, final
}

// stealCut picks the fraction of the target's balance taken on success: a
// weighted tier gives the percentage band, dampened for very large balances
// so one hit cannot move most of a fortune.
func stealCut(rules StealRules, d stealDraw, targetBalance int64) float64 {
	n := d.tierRoll
	tier := rules.Tiers[len(rules.Tiers)-1]
	for _, t := range rules.Tiers {
		n -= t.Weight
		if n < 0 {
			tier = t
			break
		}
	}
	pct := tier.MinPct + d.pctFrac*(tier.MaxPct-tier.MinPct)
	if targetBalance > rules.LargeBalanceThreshold {
		pct *= rules.LargeBalanceDampen
	}
	return pct
}

// AttemptSteal adjudicates one robbery. Success moves a cut of the target's
// wallet to the thief; failure burns a penalty from the thief's wallet
// without crediting the target. The thief's cooldown is committed either
// way; the victim's protection window starts only on a successful hit.
func (s *Service) AttemptSteal(ctx context.Context, thief, target string, now time.Time) (StealResult, error) {
	if thief == target {
		return StealResult{}, fmt.Errorf("%w: cannot steal from yourself", ErrInvalidTarget)
	}
	if err := s.EnsureAccount(ctx, thief); err != nil {
		return StealResult{}, err
	}
	if err := s.EnsureAccount(ctx, target); err != nil {
		return StealResult{}, err
	}

	var draw stealDraw
	s.withRand(func(r *mathrand.Rand) {
		draw = drawSteal(r, s.rules.Steal.Tiers)
	})

	rules := s.rules.Steal
	var res StealResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		balances, err := lockAccounts(ctx, tx, []string{thief, target})
		if err != nil {
			return err
		}
		if err := checkCooldown(ctx, tx, thief, ActionSteal, rules.ThiefCooldown.Duration, now); err != nil {
			return err
		}
		if err := checkCooldown(ctx, tx, target, ActionStolenFrom, rules.VictimCooldown.Duration, now); err != nil {
			return err
		}
		if balances[target] < rules.MinBalance {
			return fmt.Errorf("%w: target balance below %d", ErrInvalidTarget, rules.MinBalance)
		}
		if balances[thief] < rules.MinBalance {
			return fmt.Errorf("%w: your balance is below %d", ErrInvalidTarget, rules.MinBalance)
		}

		thiefMult, err := buffMultiplier(ctx, tx, thief, BuffStealSuccess, now)
		if err != nil {
			return err
		}
		victimMult, err := buffMultiplier(ctx, tx, target, BuffStealResistance, now)
		if err != nil {
			return err
		}
		base, final := stealRate(rules, balances[target], thiefMult, victimMult)
		success := draw.successRoll < final

		res = StealResult{Thief: thief, Target: target, Success: success, BaseRate: base, FinalRate: final}

		if success {
			amount := int64(math.Floor(float64(balances[target]) * stealCut(rules, draw, balances[target])))
			if amount < 1 {
				amount = 1
			}
			if amount > balances[target] {
				amount = balances[target]
			}
			targetBal, err := addBalance(ctx, tx, target, -amount)
			if err != nil {
				return err
			}
			thiefBal, err := addBalance(ctx, tx, thief, amount)
			if err != nil {
				return err
			}
			if err := bumpThiefStats(ctx, tx, thief, true, amount); err != nil {
				return err
			}
			if err := bumpVictimStats(ctx, tx, target, amount); err != nil {
				return err
			}
			if err := touchCooldown(ctx, tx, target, ActionStolenFrom, now); err != nil {
				return err
			}
			res.Amount = amount
			res.ThiefBalance = thiefBal
			res.TargetBalance = targetBal
		} else {
			penaltyPct := rules.FailPenaltyMin + draw.penaltyFrac*(rules.FailPenaltyMax-rules.FailPenaltyMin)
			penalty := int64(math.Floor(float64(balances[thief]) * penaltyPct))
			if penalty > balances[thief] {
				penalty = balances[thief]
			}
			thiefBal, err := addBalance(ctx, tx, thief, -penalty)
			if err != nil {
				return err
			}
			if err := bumpThiefStats(ctx, tx, thief, false, penalty); err != nil {
				return err
			}
			res.Amount = penalty
			res.ThiefBalance = thiefBal
			res.TargetBalance = balances[target]
		}
		return touchCooldown(ctx, tx, thief, ActionSteal, now)
	})
	if err != nil {
		return StealResult{}, err
	}
	s.log.Info("steal", "thief", thief, "target", target, "success", res.Success, "amount", res.Amount)
	return res, nil
}
