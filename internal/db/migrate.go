package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		user_id text PRIMARY KEY,
		balance bigint NOT NULL DEFAULT 0 CHECK (balance >= 0),
		daily_streak int NOT NULL DEFAULT 0,
		last_daily timestamptz,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bank_accounts (
		user_id text PRIMARY KEY REFERENCES accounts(user_id),
		bank_balance bigint NOT NULL DEFAULT 0 CHECK (bank_balance >= 0),
		bank_cap bigint NOT NULL,
		bank_level int NOT NULL DEFAULT 1,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS work_progress (
		user_id text NOT NULL REFERENCES accounts(user_id),
		skill text NOT NULL,
		level int NOT NULL DEFAULT 1,
		xp bigint NOT NULL DEFAULT 0,
		next_level_xp bigint NOT NULL,
		total_actions bigint NOT NULL DEFAULT 0,
		total_value_earned bigint NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, skill)
	)`,
	`CREATE TABLE IF NOT EXISTS buffs (
		user_id text NOT NULL REFERENCES accounts(user_id),
		buff_type text NOT NULL,
		multiplier double precision NOT NULL,
		expires_at timestamptz,
		uses_left int,
		PRIMARY KEY (user_id, buff_type)
	)`,
	`CREATE TABLE IF NOT EXISTS cooldowns (
		user_id text NOT NULL REFERENCES accounts(user_id),
		action text NOT NULL,
		last_used timestamptz NOT NULL,
		PRIMARY KEY (user_id, action)
	)`,
	`CREATE TABLE IF NOT EXISTS game_stats (
		user_id text PRIMARY KEY REFERENCES accounts(user_id),
		rolls_played bigint NOT NULL DEFAULT 0,
		rolls_won bigint NOT NULL DEFAULT 0,
		rolls_lost bigint NOT NULL DEFAULT 0,
		rolls_total_won bigint NOT NULL DEFAULT 0,
		rolls_total_lost bigint NOT NULL DEFAULT 0,
		blackjacks_played bigint NOT NULL DEFAULT 0,
		blackjacks_won bigint NOT NULL DEFAULT 0,
		blackjacks_lost bigint NOT NULL DEFAULT 0,
		blackjacks_total_won bigint NOT NULL DEFAULT 0,
		blackjacks_total_lost bigint NOT NULL DEFAULT 0,
		slots_played bigint NOT NULL DEFAULT 0,
		slots_won bigint NOT NULL DEFAULT 0,
		slots_lost bigint NOT NULL DEFAULT 0,
		slots_total_won bigint NOT NULL DEFAULT 0,
		slots_total_lost bigint NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS steal_stats (
		user_id text PRIMARY KEY REFERENCES accounts(user_id),
		steals_attempted bigint NOT NULL DEFAULT 0,
		steals_successful bigint NOT NULL DEFAULT 0,
		steals_failed bigint NOT NULL DEFAULT 0,
		total_amount_stolen bigint NOT NULL DEFAULT 0,
		amount_lost_to_failed_steals bigint NOT NULL DEFAULT 0,
		times_stolen_from bigint NOT NULL DEFAULT 0,
		amount_stolen_by_others bigint NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS heist_stats (
		user_id text PRIMARY KEY REFERENCES accounts(user_id),
		heists_joined bigint NOT NULL DEFAULT 0,
		heists_won bigint NOT NULL DEFAULT 0,
		heists_lost bigint NOT NULL DEFAULT 0,
		backstabs bigint NOT NULL DEFAULT 0,
		times_betrayed bigint NOT NULL DEFAULT 0,
		total_loot_gained bigint NOT NULL DEFAULT 0,
		total_loot_lost bigint NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS heists (
		id uuid PRIMARY KEY,
		status text NOT NULL,
		created_by text NOT NULL REFERENCES accounts(user_id),
		created_at timestamptz NOT NULL,
		resolves_at timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS heist_members (
		heist_id uuid NOT NULL REFERENCES heists(id),
		user_id text NOT NULL REFERENCES accounts(user_id),
		stake bigint NOT NULL CHECK (stake > 0),
		joined_at timestamptz NOT NULL,
		PRIMARY KEY (heist_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		user_id text NOT NULL REFERENCES accounts(user_id),
		item_name text NOT NULL,
		quantity bigint NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		PRIMARY KEY (user_id, item_name)
	)`,
	`CREATE TABLE IF NOT EXISTS equipped_tools (
		user_id text PRIMARY KEY REFERENCES accounts(user_id),
		pickaxe text,
		fishing_rod text
	)`,
	`CREATE TABLE IF NOT EXISTS roll_history (
		id uuid PRIMARY KEY,
		user_id text NOT NULL REFERENCES accounts(user_id),
		stake bigint NOT NULL,
		user_roll int NOT NULL,
		dealer_roll int NOT NULL,
		outcome text NOT NULL,
		delta bigint NOT NULL,
		created_at timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_heists_due ON heists (resolves_at) WHERE status = 'open'`,
	`CREATE INDEX IF NOT EXISTS idx_roll_history_user ON roll_history (user_id, created_at)`,
}

// Migrate bootstraps the schema. Statements are idempotent so every binary
// can run this at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
