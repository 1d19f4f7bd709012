package economy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// grantBuff installs a buff for a user, replacing any existing buff of the
// same type regardless of remaining time or uses.
func grantBuff(ctx context.Context, tx pgx.Tx, userID, buffType string, multiplier float64, expiresAt *time.Time, usesLeft *int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO buffs (user_id, buff_type, multiplier, expires_at, uses_left)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, buff_type) DO UPDATE
		SET multiplier = EXCLUDED.multiplier,
		    expires_at = EXCLUDED.expires_at,
		    uses_left = EXCLUDED.uses_left`,
		userID, buffType, multiplier, expiresAt, usesLeft)
	if err != nil {
		return fmt.Errorf("grant buff: %w", err)
	}
	return nil
}

// buffMultiplier returns the active multiplier for a buff type, or 1.0 when
// none applies. Expiry is checked lazily against now; a use-limited buff is
// decremented and deleted once spent. Must run inside the transaction of the
// action the buff modifies.
func buffMultiplier(ctx context.Context, tx pgx.Tx, userID, buffType string, now time.Time) (float64, error) {
	var (
		multiplier float64
		expiresAt  *time.Time
		usesLeft   *int
	)
	err := tx.QueryRow(ctx, `
		SELECT multiplier, expires_at, uses_left FROM buffs
		WHERE user_id = $1 AND buff_type = $2 FOR UPDATE`, userID, buffType).
		Scan(&multiplier, &expiresAt, &usesLeft)
	if errors.Is(err, pgx.ErrNoRows) {
		return 1.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query buff: %w", err)
	}
	if expiresAt != nil && !now.Before(*expiresAt) {
		_, err := tx.Exec(ctx, `DELETE FROM buffs WHERE user_id = $1 AND buff_type = $2`, userID, buffType)
		if err != nil {
			return 0, fmt.Errorf("expire buff: %w", err)
		}
		return 1.0, nil
	}
	if usesLeft != nil {
		if *usesLeft <= 1 {
			_, err := tx.Exec(ctx, `DELETE FROM buffs WHERE user_id = $1 AND buff_type = $2`, userID, buffType)
			if err != nil {
				return 0, fmt.Errorf("spend buff: %w", err)
			}
		} else {
			_, err := tx.Exec(ctx, `
				UPDATE buffs SET uses_left = uses_left - 1
				WHERE user_id = $1 AND buff_type = $2`, userID, buffType)
			if err != nil {
				return 0, fmt.Errorf("decrement buff: %w", err)
			}
		}
	}
	return multiplier, nil
}

// ActiveBuffs lists the user's unexpired buffs without consuming uses.
func (s *Service) ActiveBuffs(ctx context.Context, userID string, now time.Time) ([]BuffView, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT buff_type, multiplier, expires_at, uses_left FROM buffs
		WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY buff_type`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("query buffs: %w", err)
	}
	defer rows.Close()

	var out []BuffView
	for rows.Next() {
		var v BuffView
		if err := rows.Scan(&v.BuffType, &v.Multiplier, &v.ExpiresAt, &v.UsesLeft); err != nil {
			return nil, fmt.Errorf("scan buff: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReapExpiredBuffs deletes time-expired buffs in bulk. Run by the worker so
// rows for inactive users do not accumulate forever.
func (s *Service) ReapExpiredBuffs(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM buffs WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("reap buffs: %w", err)
	}
	return tag.RowsAffected(), nil
}
