package economy

import (
	"context"
	"fmt"
)

// Leaderboard kinds.
const (
	BoardNetWorth  = "networth"
	BoardStolen    = "stolen"
	BoardHeistLoot = "heist_loot"
)

var leaderboardQueries = map[string]string{
	BoardNetWorth: `
		SELECT RANK() OVER (ORDER BY a.balance + b.bank_balance DESC), a.user_id, a.balance + b.bank_balance
		FROM accounts a JOIN bank_accounts b ON b.user_id = a.user_id
		ORDER BY a.balance + b.bank_balance DESC
		LIMIT $1`,
	BoardStolen: `
		SELECT RANK() OVER (ORDER BY total_amount_stolen DESC), user_id, total_amount_stolen
		FROM steal_stats WHERE total_amount_stolen > 0
		ORDER BY total_amount_stolen DESC
		LIMIT $1`,
	BoardHeistLoot: `
		SELECT RANK() OVER (ORDER BY total_loot_gained DESC), user_id, total_loot_gained
		FROM heist_stats WHERE total_loot_gained > 0
		ORDER BY total_loot_gained DESC
		LIMIT $1`,
}

// Leaderboard returns the top users for a board kind.
func (s *Service) Leaderboard(ctx context.Context, kind string, limit int) ([]LeaderboardRow, error) {
	q, ok := leaderboardQueries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown leaderboard %q", ErrInvalidTarget, kind)
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Rank, &r.UserID, &r.Value); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
