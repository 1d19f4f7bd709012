package economy

import (
	"context"
	"errors"
	"fmt"
	"math"
	mathrand "math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// StartHeist opens a heist with the creator as first member. The stake is
// debited immediately; joiners have until resolves_at to buy in.
func (s *Service) StartHeist(ctx context.Context, userID string, stake int64, now time.Time) (HeistView, error) {
	if stake <= 0 {
		return HeistView{}, ErrInvalidStake
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return HeistView{}, err
	}

	id := uuid.New()
	resolvesAt := now.Add(s.rules.Heist.JoinWindow.Duration)
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		if _, err := addBalance(ctx, tx, userID, -stake); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO heists (id, status, created_by, created_at, resolves_at)
			VALUES ($1, $2, $3, $4, $5)`, id, HeistOpen, userID, now, resolvesAt)
		if err != nil {
			return fmt.Errorf("insert heist: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO heist_members (heist_id, user_id, stake, joined_at)
			VALUES ($1, $2, $3, $4)`, id, userID, stake, now)
		if err != nil {
			return fmt.Errorf("insert heist member: %w", err)
		}
		return nil
	})
	if err != nil {
		return HeistView{}, err
	}
	s.log.Info("heist started", "id", id, "user", userID, "stake", stake)
	return s.Heist(ctx, id.String())
}

// JoinHeist buys a user into an open heist before its join window closes.
func (s *Service) JoinHeist(ctx context.Context, heistID, userID string, stake int64, now time.Time) (HeistView, error) {
	if stake <= 0 {
		return HeistView{}, ErrInvalidStake
	}
	id, err := uuid.Parse(heistID)
	if err != nil {
		return HeistView{}, fmt.Errorf("%w: %s", ErrHeistNotFound, heistID)
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return HeistView{}, err
	}

	err = s.withRetry(ctx, func(tx pgx.Tx) error {
		var status string
		var resolvesAt time.Time
		err := tx.QueryRow(ctx, `
			SELECT status, resolves_at FROM heists
			WHERE id = $1 FOR UPDATE`, id).Scan(&status, &resolvesAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrHeistNotFound
		}
		if err != nil {
			return fmt.Errorf("lock heist: %w", err)
		}
		if status != HeistOpen || !now.Before(resolvesAt) {
			return ErrHeistClosed
		}
		var exists bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM heist_members WHERE heist_id = $1 AND user_id = $2
			)`, id, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check heist member: %w", err)
		}
		if exists {
			return ErrAlreadyJoined
		}
		if _, err := lockAccounts(ctx, tx, []string{userID}); err != nil {
			return err
		}
		if _, err := addBalance(ctx, tx, userID, -stake); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO heist_members (heist_id, user_id, stake, joined_at)
			VALUES ($1, $2, $3, $4)`, id, userID, stake, now)
		if err != nil {
			return fmt.Errorf("insert heist member: %w", err)
		}
		return nil
	})
	if err != nil {
		return HeistView{}, err
	}
	s.log.Info("heist joined", "id", id, "user", userID, "stake", stake)
	return s.Heist(ctx, heistID)
}

// Heist returns the current roster and status.
func (s *Service) Heist(ctx context.Context, heistID string) (HeistView, error) {
	id, err := uuid.Parse(heistID)
	if err != nil {
		return HeistView{}, fmt.Errorf("%w: %s", ErrHeistNotFound, heistID)
	}
	var v HeistView
	err = s.db.QueryRow(ctx, `
		SELECT id, status, created_by, created_at, resolves_at
		FROM heists WHERE id = $1`, id).
		Scan(&v.ID, &v.Status, &v.CreatedBy, &v.CreatedAt, &v.ResolvesAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return HeistView{}, ErrHeistNotFound
	}
	if err != nil {
		return HeistView{}, fmt.Errorf("query heist: %w", err)
	}
	rows, err := s.db.Query(ctx, `
		SELECT user_id, stake, joined_at FROM heist_members
		WHERE heist_id = $1 ORDER BY joined_at`, id)
	if err != nil {
		return HeistView{}, fmt.Errorf("query heist members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m HeistMember
		if err := rows.Scan(&m.UserID, &m.Stake, &m.JoinedAt); err != nil {
			return HeistView{}, fmt.Errorf("scan heist member: %w", err)
		}
		v.TotalStake += m.Stake
		v.Members = append(v.Members, m)
	}
	return v, rows.Err()
}

// heistPlan is the pre-computed split of a resolved heist.
type heistPlan struct {
	success     bool
	successRate float64
	loot        int64
	payouts     map[string]int64
	betrayers   map[string]bool
}

// resolveHeistOutcome adjudicates a roster. Success chance grows with roster
// size up to a cap. On success each member independently rolls for betrayal;
// betrayers skim a bonus off their even share before the shrunken pool is
// split evenly among everyone, betrayers included.
func resolveHeistOutcome(r *mathrand.Rand, rules HeistRules, members []HeistMember) heistPlan {
	rate := rules.BaseChance + rules.ChancePerMember*float64(len(members)-1)
	if rate > rules.ChanceCap {
		rate = rules.ChanceCap
	}
	plan := heistPlan{
		successRate: rate,
		success:     r.Float64() < rate,
		payouts:     make(map[string]int64),
		betrayers:   make(map[string]bool),
	}
	if !plan.success {
		return plan
	}
	var totalStake int64
	for _, m := range members {
		totalStake += m.Stake
	}
	plan.loot = int64(math.Floor(float64(totalStake) * rules.LootMultiplier))
	n := int64(len(members))
	evenShare := plan.loot / n

	pool := plan.loot
	for _, m := range members {
		if r.Float64() < rules.BetrayalChance {
			bonus := int64(math.Floor(float64(evenShare) * rules.BetrayerBonusPct))
			plan.betrayers[m.UserID] = true
			plan.payouts[m.UserID] += bonus
			pool -= bonus
		}
	}
	share := pool / n
	for _, m := range members {
		plan.payouts[m.UserID] += share
	}
	return plan
}

// ResolveHeist closes a heist and settles every member atomically. On
// success the loot (stakes times the loot multiplier) is split per the
// betrayal pass; on failure all stakes are forfeit.
func (s *Service) ResolveHeist(ctx context.Context, heistID string, now time.Time) (HeistOutcome, error) {
	id, err := uuid.Parse(heistID)
	if err != nil {
		return HeistOutcome{}, fmt.Errorf("%w: %s", ErrHeistNotFound, heistID)
	}

	var out HeistOutcome
	err = s.withRetry(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `
			SELECT status FROM heists WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrHeistNotFound
		}
		if err != nil {
			return fmt.Errorf("lock heist: %w", err)
		}
		if status != HeistOpen {
			return ErrHeistClosed
		}
		if _, err := tx.Exec(ctx, `UPDATE heists SET status = $2 WHERE id = $1`, id, HeistResolving); err != nil {
			return fmt.Errorf("mark heist resolving: %w", err)
		}

		rows, err := tx.Query(ctx, `
			SELECT user_id, stake, joined_at FROM heist_members
			WHERE heist_id = $1`, id)
		if err != nil {
			return fmt.Errorf("query heist members: %w", err)
		}
		var members []HeistMember
		for rows.Next() {
			var m HeistMember
			if err := rows.Scan(&m.UserID, &m.Stake, &m.JoinedAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan heist member: %w", err)
			}
			members = append(members, m)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(members) == 0 {
			return ErrHeistNotFound
		}
		sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })

		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.UserID
		}
		if _, err := lockAccounts(ctx, tx, ids); err != nil {
			return err
		}

		var plan heistPlan
		s.withRand(func(r *mathrand.Rand) {
			plan = resolveHeistOutcome(r, s.rules.Heist, members)
		})

		anyBetrayal := len(plan.betrayers) > 0
		out = HeistOutcome{ID: heistID, Success: plan.success, SuccessRate: plan.successRate, Loot: plan.loot}
		for _, m := range members {
			mo := HeistMemberOutcome{UserID: m.UserID, Stake: m.Stake}
			if plan.success {
				mo.Payout = plan.payouts[m.UserID]
				mo.Betrayed = anyBetrayal && !plan.betrayers[m.UserID]
				bal, err := addBalance(ctx, tx, m.UserID, mo.Payout)
				if err != nil {
					return err
				}
				mo.NewBalance = bal
				backstabs := 0
				if plan.betrayers[m.UserID] {
					backstabs = 1
				}
				if err := bumpHeistStats(ctx, tx, m.UserID, true, mo.Betrayed, backstabs, mo.Payout, 0); err != nil {
					return err
				}
			} else {
				bal, err := addBalance(ctx, tx, m.UserID, 0)
				if err != nil {
					return err
				}
				mo.NewBalance = bal
				if err := bumpHeistStats(ctx, tx, m.UserID, false, false, 0, 0, m.Stake); err != nil {
					return err
				}
			}
			out.Members = append(out.Members, mo)
		}

		if _, err := tx.Exec(ctx, `UPDATE heists SET status = $2 WHERE id = $1`, id, HeistClosed); err != nil {
			return fmt.Errorf("close heist: %w", err)
		}
		return nil
	})
	if err != nil {
		return HeistOutcome{}, err
	}
	s.log.Info("heist resolved", "id", heistID, "success", out.Success, "members", len(out.Members), "loot", out.Loot)
	return out, nil
}

// ResolveDueHeists settles every open heist whose join window has passed.
// Run by the worker; returns how many were settled.
func (s *Service) ResolveDueHeists(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM heists
		WHERE status = $1 AND resolves_at <= $2`, HeistOpen, now)
	if err != nil {
		return 0, fmt.Errorf("query due heists: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan heist id: %w", err)
		}
		ids = append(ids, id.String())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	resolved := 0
	for _, id := range ids {
		if _, err := s.ResolveHeist(ctx, id, now); err != nil {
			if errors.Is(err, ErrHeistClosed) {
				continue
			}
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}
