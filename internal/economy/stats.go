package economy

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// bumpGameStats folds one game outcome into the per-user counters. delta is
// the net coin movement: positive counts as a win, negative as a loss, zero
// as a push that only bumps the played counter. Runs in the same transaction
// as the payout so the counters can never drift from the ledger.
func bumpGameStats(ctx context.Context, tx pgx.Tx, userID, game string, delta int64) (GameStatsView, error) {
	switch game {
	case GameRoll, GameBlackjack, GameSlots:
	default:
		return GameStatsView{}, fmt.Errorf("unknown game %q", game)
	}
	q := fmt.Sprintf(`
		UPDATE game_stats SET
			%[1]s_played = %[1]s_played + 1,
			%[1]s_won = %[1]s_won + CASE WHEN $2 > 0 THEN 1 ELSE 0 END,
			%[1]s_lost = %[1]s_lost + CASE WHEN $2 < 0 THEN 1 ELSE 0 END,
			%[1]s_total_won = %[1]s_total_won + CASE WHEN $2 > 0 THEN $2 ELSE 0 END,
			%[1]s_total_lost = %[1]s_total_lost + CASE WHEN $2 < 0 THEN -$2 ELSE 0 END
		WHERE user_id = $1
		RETURNING %[1]s_played, %[1]s_won, %[1]s_lost, %[1]s_total_won, %[1]s_total_lost`, game)

	var v GameStatsView
	err := tx.QueryRow(ctx, q, userID, delta).Scan(&v.Played, &v.Won, &v.Lost, &v.TotalWon, &v.TotalLost)
	if err != nil {
		return GameStatsView{}, fmt.Errorf("update %s stats: %w", game, err)
	}
	return v, nil
}

func bumpThiefStats(ctx context.Context, tx pgx.Tx, userID string, success bool, amount int64) error {
	var q string
	if success {
		q = `UPDATE steal_stats SET
			steals_attempted = steals_attempted + 1,
			steals_successful = steals_successful + 1,
			total_amount_stolen = total_amount_stolen + $2
			WHERE user_id = $1`
	} else {
		q = `UPDATE steal_stats SET
			steals_attempted = steals_attempted + 1,
			steals_failed = steals_failed + 1,
			amount_lost_to_failed_steals = amount_lost_to_failed_steals + $2
			WHERE user_id = $1`
	}
	if _, err := tx.Exec(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("update thief stats: %w", err)
	}
	return nil
}

func bumpVictimStats(ctx context.Context, tx pgx.Tx, userID string, amount int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE steal_stats SET
			times_stolen_from = times_stolen_from + 1,
			amount_stolen_by_others = amount_stolen_by_others + $2
		WHERE user_id = $1`, userID, amount)
	if err != nil {
		return fmt.Errorf("update victim stats: %w", err)
	}
	return nil
}

func bumpHeistStats(ctx context.Context, tx pgx.Tx, userID string, won, betrayed bool, backstabs int, gained, lost int64) error {
	var wonInc, lostInc int
	if won {
		wonInc = 1
	} else {
		lostInc = 1
	}
	betrayedInc := 0
	if betrayed {
		betrayedInc = 1
	}
	_, err := tx.Exec(ctx, `
		UPDATE heist_stats SET
			heists_joined = heists_joined + 1,
			heists_won = heists_won + $2,
			heists_lost = heists_lost + $3,
			backstabs = backstabs + $4,
			times_betrayed = times_betrayed + $5,
			total_loot_gained = total_loot_gained + $6,
			total_loot_lost = total_loot_lost + $7
		WHERE user_id = $1`,
		userID, wonInc, lostInc, backstabs, betrayedInc, gained, lost)
	if err != nil {
		return fmt.Errorf("update heist stats: %w", err)
	}
	return nil
}

// Stats assembles the full per-user profile: game counters, steal and heist
// records, skill progression, and inventory.
func (s *Service) Stats(ctx context.Context, userID string) (PlayerStats, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return PlayerStats{}, err
	}
	out := PlayerStats{UserID: userID, Games: make(map[string]GameStatsView)}

	for _, game := range []string{GameRoll, GameBlackjack, GameSlots} {
		q := fmt.Sprintf(`
			SELECT %[1]s_played, %[1]s_won, %[1]s_lost, %[1]s_total_won, %[1]s_total_lost
			FROM game_stats WHERE user_id = $1`, game)
		var v GameStatsView
		if err := s.db.QueryRow(ctx, q, userID).Scan(&v.Played, &v.Won, &v.Lost, &v.TotalWon, &v.TotalLost); err != nil {
			return PlayerStats{}, fmt.Errorf("query %s stats: %w", game, err)
		}
		out.Games[game] = v
	}

	err := s.db.QueryRow(ctx, `
		SELECT steals_attempted, steals_successful, steals_failed,
		       total_amount_stolen, amount_lost_to_failed_steals,
		       times_stolen_from, amount_stolen_by_others
		FROM steal_stats WHERE user_id = $1`, userID).
		Scan(&out.Steal.Attempted, &out.Steal.Successful, &out.Steal.Failed,
			&out.Steal.TotalStolen, &out.Steal.LostToFailedSteals,
			&out.Steal.TimesStolenFrom, &out.Steal.AmountStolenByOthers)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("query steal stats: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT heists_joined, heists_won, heists_lost, backstabs,
		       times_betrayed, total_loot_gained, total_loot_lost
		FROM heist_stats WHERE user_id = $1`, userID).
		Scan(&out.Heist.Joined, &out.Heist.Won, &out.Heist.Lost, &out.Heist.Backstabs,
			&out.Heist.TimesBetrayed, &out.Heist.LootGained, &out.Heist.LootLost)
	if err != nil {
		return PlayerStats{}, fmt.Errorf("query heist stats: %w", err)
	}

	progress, err := s.Progress(ctx, userID)
	if err != nil {
		return PlayerStats{}, err
	}
	out.Progress = progress

	inv, err := s.Inventory(ctx, userID)
	if err != nil {
		return PlayerStats{}, err
	}
	out.Inventory = inv
	return out, nil
}

// Progress returns the per-skill leveling state.
func (s *Service) Progress(ctx context.Context, userID string) ([]WorkProgressView, error) {
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT skill, level, xp, next_level_xp, total_actions, total_value_earned
		FROM work_progress WHERE user_id = $1 ORDER BY skill`, userID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []WorkProgressView
	for rows.Next() {
		var v WorkProgressView
		if err := rows.Scan(&v.Skill, &v.Level, &v.XP, &v.NextLevelXP, &v.TotalActions, &v.TotalValueEarned); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Inventory lists owned items.
func (s *Service) Inventory(ctx context.Context, userID string) ([]InventoryItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT item_name, quantity FROM inventory
		WHERE user_id = $1 AND quantity > 0 ORDER BY item_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []InventoryItem
	for rows.Next() {
		var v InventoryItem
		if err := rows.Scan(&v.ItemName, &v.Quantity); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
