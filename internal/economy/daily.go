package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ClaimDaily pays the daily reward. Claims are keyed to the UTC calendar
// date: one claim per date, and the streak survives only when the previous
// claim was the immediately preceding date.
func (s *Service) ClaimDaily(ctx context.Context, userID string, now time.Time) (DailyResult, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return DailyResult{}, err
	}

	var res DailyResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		var (
			streak    int
			lastDaily *time.Time
		)
		err := tx.QueryRow(ctx, `
			SELECT daily_streak, last_daily FROM accounts
			WHERE user_id = $1 FOR UPDATE`, userID).Scan(&streak, &lastDaily)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		today := now.UTC().Truncate(24 * time.Hour)
		if lastDaily != nil {
			lastDay := lastDaily.UTC().Truncate(24 * time.Hour)
			switch {
			case lastDay.Equal(today):
				return &CooldownError{Action: ActionDaily, Remaining: today.Add(24 * time.Hour).Sub(now.UTC())}
			case lastDay.Equal(today.AddDate(0, 0, -1)):
				streak++
			default:
				streak = 1
			}
		} else {
			streak = 1
		}

		base := s.rules.Daily.BaseReward
		bonus := dailyBonus(streak, base, s.rules.Daily.BonusCap)
		total := base + bonus

		var bal int64
		err = tx.QueryRow(ctx, `
			UPDATE accounts
			SET balance = balance + $1, daily_streak = $2, last_daily = $3
			WHERE user_id = $4 RETURNING balance`, total, streak, now, userID).Scan(&bal)
		if err != nil {
			return fmt.Errorf("pay daily: %w", err)
		}
		res = DailyResult{Base: base, Bonus: bonus, Total: total, Streak: streak, NewBalance: bal}
		return nil
	})
	if err != nil {
		return DailyResult{}, err
	}
	s.log.Info("daily claimed", "user", userID, "streak", res.Streak, "total", res.Total)
	return res, nil
}

// dailyBonus doubles per consecutive day and is clamped so long streaks
// cannot overflow.
func dailyBonus(streak int, base, cap int64) int64 {
	bonus := base
	for i := 1; i < streak; i++ {
		bonus *= 2
		if bonus >= cap {
			return cap
		}
	}
	if bonus > cap {
		return cap
	}
	return bonus
}
