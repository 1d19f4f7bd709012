package economy

import (
	"context"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Game outcome labels.
const (
	OutcomeWin     = "win"
	OutcomeLoss    = "loss"
	OutcomeTie     = "tie"
	OutcomePush    = "push"
	OutcomeBust    = "bust"
	OutcomeNatural = "natural"
)

// rollDraw holds the dice for one roll game, drawn before the transaction.
type rollDraw struct {
	user   int
	dealer int
}

func resolveRoll(r *mathrand.Rand, max int) rollDraw {
	return rollDraw{user: r.Intn(max + 1), dealer: r.Intn(max + 1)}
}

func (d rollDraw) outcome() string {
	switch {
	case d.user > d.dealer:
		return OutcomeWin
	case d.user < d.dealer:
		return OutcomeLoss
	default:
		return OutcomeTie
	}
}

// rollDelta maps a roll outcome to the net coin movement for a stake. At
// the stock 2x multiplier a win nets +stake; a tie moves nothing.
func rollDelta(outcome string, stake, winMultiplier int64) int64 {
	switch outcome {
	case OutcomeWin:
		return stake * (winMultiplier - 1)
	case OutcomeLoss:
		return -stake
	default:
		return 0
	}
}

// PlayRoll rolls against the house: both sides draw uniformly over the
// configured range, higher wins. A win pays stake times the configured
// multiplier, a tie returns the stake.
func (s *Service) PlayRoll(ctx context.Context, userID string, stake int64, now time.Time) (RollResult, error) {
	if stake <= 0 {
		return RollResult{}, ErrInvalidStake
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return RollResult{}, err
	}

	var draw rollDraw
	s.withRand(func(r *mathrand.Rand) {
		draw = resolveRoll(r, s.rules.Games.RollMax)
	})

	outcome := draw.outcome()
	delta := rollDelta(outcome, stake, s.rules.Games.RollWinMultiplier)

	var res RollResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		balances, err := lockAccounts(ctx, tx, []string{userID})
		if err != nil {
			return err
		}
		if balances[userID] < stake {
			return ErrInsufficientFunds
		}
		bal, err := addBalance(ctx, tx, userID, delta)
		if err != nil {
			return err
		}
		stats, err := bumpGameStats(ctx, tx, userID, GameRoll, delta)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO roll_history (id, user_id, stake, user_roll, dealer_roll, outcome, delta, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), userID, stake, draw.user, draw.dealer, outcome, delta, now)
		if err != nil {
			return fmt.Errorf("append roll history: %w", err)
		}
		res = RollResult{
			Stake: stake, UserRoll: draw.user, DealerRoll: draw.dealer,
			Outcome: outcome, Delta: delta, NewBalance: bal, Stats: stats,
		}
		return nil
	})
	if err != nil {
		return RollResult{}, err
	}
	s.log.Info("roll", "user", userID, "stake", stake, "outcome", outcome, "delta", delta)
	return res, nil
}

var slotLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func resolveSlotsBoard(r *mathrand.Rand, symbols []string) []string {
	board := make([]string, 9)
	for i := range board {
		board[i] = symbols[r.Intn(len(symbols))]
	}
	return board
}

// evaluateSlots scores a 3x3 board: each matched line pays the line
// multiplier, and the total count of special symbols anywhere on the board
// pays from the count table. Zero total means the stake is lost.
func evaluateSlots(board []string, rules GameRules) int64 {
	var mult int64
	for _, line := range slotLines {
		if board[line[0]] == board[line[1]] && board[line[1]] == board[line[2]] {
			mult += rules.SlotsLineMultiplier
		}
	}
	specials := 0
	for _, sym := range board {
		for _, sp := range rules.SlotsSpecials {
			if sym == sp {
				specials++
				break
			}
		}
	}
	for _, p := range rules.SlotsCountPayouts {
		if p.Count == specials {
			mult += p.Multiplier
			break
		}
	}
	return mult
}

// PlaySlots spins a 3x3 board of uniformly drawn symbols and nets the
// payout against the stake in one balance update.
func (s *Service) PlaySlots(ctx context.Context, userID string, stake int64, now time.Time) (SlotsResult, error) {
	if stake <= 0 {
		return SlotsResult{}, ErrInvalidStake
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return SlotsResult{}, err
	}

	var board []string
	s.withRand(func(r *mathrand.Rand) {
		board = resolveSlotsBoard(r, s.rules.Games.SlotsSymbols)
	})

	mult := evaluateSlots(board, s.rules.Games)
	delta := stake*mult - stake
	outcome := OutcomeLoss
	switch {
	case delta > 0:
		outcome = OutcomeWin
	case delta == 0:
		outcome = OutcomePush
	}

	var res SlotsResult
	err := s.withRetry(ctx, func(tx pgx.Tx) error {
		balances, err := lockAccounts(ctx, tx, []string{userID})
		if err != nil {
			return err
		}
		if balances[userID] < stake {
			return ErrInsufficientFunds
		}
		bal, err := addBalance(ctx, tx, userID, delta)
		if err != nil {
			return err
		}
		stats, err := bumpGameStats(ctx, tx, userID, GameSlots, delta)
		if err != nil {
			return err
		}
		res = SlotsResult{
			Stake: stake, Board: board, Outcome: outcome,
			Multiplier: mult, Delta: delta, NewBalance: bal, Stats: stats,
		}
		return nil
	})
	if err != nil {
		return SlotsResult{}, err
	}
	s.log.Info("slots", "user", userID, "stake", stake, "multiplier", mult, "delta", delta)
	return res, nil
}
