package economy

import (
	"context"
	"errors"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service is the economy engine. Every mutating operation runs as a single
// serializable transaction; conflicting transactions are retried a bounded
// number of times before surfacing ErrTxConflict.
type Service struct {
	db    *pgxpool.Pool
	log   *slog.Logger
	rules Rules
	mu    sync.Mutex
	rand  *mathrand.Rand
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, rules Rules) *Service {
	return NewServiceWithSource(db, logger, rules, mathrand.NewSource(time.Now().UnixNano()))
}

// NewServiceWithSource injects the randomness source, for deterministic use.
func NewServiceWithSource(db *pgxpool.Pool, logger *slog.Logger, rules Rules, src mathrand.Source) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:    db,
		log:   logger,
		rules: rules,
		rand:  mathrand.New(src),
	}
}

// Rules exposes the active policy tables (read-only).
func (s *Service) Rules() Rules {
	return s.rules
}

func (s *Service) withRand(fn func(*mathrand.Rand)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rand)
}

const maxTxAttempts = 8

// withRetry runs fn inside a serializable transaction, retrying with
// backoff when the storage layer reports a serialization conflict.
func (s *Service) withRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxTxAttempts-1 {
			return ErrTxConflict
		}
		s.log.Debug("serialization conflict, retrying", "attempt", attempt+1)
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// EnsureAccount creates the full per-user row set on first contact. Existing
// rows are left untouched.
func (s *Service) EnsureAccount(ctx context.Context, userID string) error {
	return s.withRetry(ctx, func(tx pgx.Tx) error {
		return s.ensureAccountTx(ctx, tx, userID)
	})
}

func (s *Service) ensureAccountTx(ctx context.Context, tx pgx.Tx, userID string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO accounts (user_id, balance, daily_streak)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO bank_accounts (user_id, bank_balance, bank_cap, bank_level)
		VALUES ($1, 0, $2, 1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, s.rules.Bank.BaseCap); err != nil {
		return err
	}
	stmts := []string{
		`INSERT INTO game_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO steal_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO heist_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		`INSERT INTO equipped_tools (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
	}
	for _, q := range stmts {
		if _, err := tx.Exec(ctx, q, userID); err != nil {
			return err
		}
	}
	for _, skill := range []string{SkillMining, SkillFishing} {
		_, err := tx.Exec(ctx, `
			INSERT INTO work_progress (user_id, skill, level, xp, next_level_xp)
			VALUES ($1, $2, 1, 0, $3)
			ON CONFLICT (user_id, skill) DO NOTHING
		`, userID, skill, s.rules.Work.BaseThresholdXP)
		if err != nil {
			return err
		}
	}
	return nil
}

// lockAccounts takes FOR UPDATE locks on the given account rows in ascending
// user_id order (the fixed global order that keeps multi-user operations
// deadlock-free) and returns the locked balances.
func lockAccounts(ctx context.Context, tx pgx.Tx, userIDs []string) (map[string]int64, error) {
	rows, err := tx.Query(ctx, `
		SELECT user_id, balance
		FROM accounts
		WHERE user_id = ANY($1)
		ORDER BY user_id
		FOR UPDATE
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[string]int64, len(userIDs))
	for rows.Next() {
		var id string
		var balance int64
		if err := rows.Scan(&id, &balance); err != nil {
			return nil, err
		}
		balances[id] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		if _, ok := balances[id]; !ok {
			return nil, ErrAccountNotFound
		}
	}
	return balances, nil
}

// addBalance applies a signed delta to a locked account row. The guard in
// the WHERE clause makes a negative result impossible; callers that already
// validated funds treat a miss as ErrInsufficientFunds.
func addBalance(ctx context.Context, tx pgx.Tx, userID string, delta int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $1, updated_at = now()
		WHERE user_id = $2 AND balance + $1 >= 0
		RETURNING balance
	`, delta, userID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, ErrInsufficientFunds
	}
	return balance, err
}
