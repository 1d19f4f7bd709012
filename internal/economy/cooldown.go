package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// checkCooldown fails with a CooldownError when the action was last used
// less than window ago. A zero window always passes.
func checkCooldown(ctx context.Context, tx pgx.Tx, userID, action string, window time.Duration, now time.Time) error {
	if window <= 0 {
		return nil
	}
	var lastUsed time.Time
	err := tx.QueryRow(ctx, `
		SELECT last_used FROM cooldowns
		WHERE user_id = $1 AND action = $2 FOR UPDATE`, userID, action).Scan(&lastUsed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query cooldown: %w", err)
	}
	if remaining := window - now.Sub(lastUsed); remaining > 0 {
		return &CooldownError{Action: action, Remaining: remaining}
	}
	return nil
}

// touchCooldown records now as the last use of an action. Called in the same
// transaction as the action itself so a retried tx never double-stamps.
func touchCooldown(ctx context.Context, tx pgx.Tx, userID, action string, now time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cooldowns (user_id, action, last_used)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, action) DO UPDATE SET last_used = EXCLUDED.last_used`,
		userID, action, now)
	if err != nil {
		return fmt.Errorf("touch cooldown: %w", err)
	}
	return nil
}

// Cooldowns reports the remaining wait per tracked action. Expired entries
// are omitted.
func (s *Service) Cooldowns(ctx context.Context, userID string, now time.Time) (map[string]time.Duration, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT action, last_used FROM cooldowns WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cooldowns: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Duration)
	for rows.Next() {
		var action string
		var lastUsed time.Time
		if err := rows.Scan(&action, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan cooldown: %w", err)
		}
		window := s.cooldownWindow(action)
		if window <= 0 {
			continue
		}
		if remaining := window - now.Sub(lastUsed); remaining > 0 {
			out[action] = remaining
		}
	}
	return out, rows.Err()
}

func (s *Service) cooldownWindow(action string) time.Duration {
	switch action {
	case ActionSteal:
		return s.rules.Steal.ThiefCooldown.Duration
	case ActionStolenFrom:
		return s.rules.Steal.VictimCooldown.Duration
	case WorkAction(SkillMining), WorkAction(SkillFishing):
		return s.rules.Work.Cooldown.Duration
	default:
		return 0
	}
}
