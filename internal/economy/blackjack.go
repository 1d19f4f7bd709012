package economy

import (
	"context"
	"math"
	mathrand "math/rand"
	"time"

	"github.com/jackc/pgx/v5"
)

var blackjackRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

func cardValue(rank string) int {
	switch rank {
	case "J", "Q", "K", "10":
		return 10
	case "A":
		return 11
	default:
		return int(rank[0] - '0')
	}
}

// handValue totals a hand with ace demotion: aces start at 11 and drop to 1
// one at a time while the hand would bust. soft reports whether an ace is
// still counted as 11.
func handValue(hand []string) (total int, soft bool) {
	aces := 0
	for _, c := range hand {
		total += cardValue(c)
		if c == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

type blackjackDraw struct {
	player      []string
	dealer      []string
	playerTotal int
	dealerTotal int
	outcome     string
}

// resolveBlackjack plays a full hand against the house from a shuffled shoe.
// The player hits below the stand threshold; the dealer hits below 17 and on
// soft 17. A two-card 21 is a natural unless the dealer also has one.
func resolveBlackjack(r *mathrand.Rand, rules GameRules) blackjackDraw {
	shoe := make([]string, 0, len(blackjackRanks)*rules.BlackjackDeckCopies)
	for i := 0; i < rules.BlackjackDeckCopies; i++ {
		shoe = append(shoe, blackjackRanks...)
	}
	r.Shuffle(len(shoe), func(i, j int) { shoe[i], shoe[j] = shoe[j], shoe[i] })

	next := 0
	deal := func() string {
		c := shoe[next]
		next++
		return c
	}

	d := blackjackDraw{
		player: []string{deal(), deal()},
		dealer: []string{deal(), deal()},
	}
	playerTotal, _ := handValue(d.player)
	dealerTotal, _ := handValue(d.dealer)

	if playerTotal == 21 {
		d.playerTotal, d.dealerTotal = playerTotal, dealerTotal
		if dealerTotal == 21 {
			d.outcome = OutcomePush
		} else {
			d.outcome = OutcomeNatural
		}
		return d
	}

	for playerTotal < rules.BlackjackStandAt {
		d.player = append(d.player, deal())
		playerTotal, _ = handValue(d.player)
	}
	if playerTotal > 21 {
		d.playerTotal, d.dealerTotal = playerTotal, dealerTotal
		d.outcome = OutcomeBust
		return d
	}

	dealerSoft := false
	dealerTotal, dealerSoft = handValue(d.dealer)
	for dealerTotal < 17 || (dealerTotal == 17 && dealerSoft) {
		d.dealer = append(d.dealer, deal())
		dealerTotal, dealerSoft = handValue(d.dealer)
	}

	d.playerTotal, d.dealerTotal = playerTotal, dealerTotal
	switch {
	case dealerTotal > 21 || playerTotal > dealerTotal:
		d.outcome = OutcomeWin
	case playerTotal < dealerTotal:
		d.outcome = OutcomeLoss
	default:
		d.outcome = OutcomePush
	}
	return d
}

// PlayBlackjack plays one hand. A natural pays the configured premium, a
// regular win pays even money, a push returns the stake.
func (s *Service) PlayBlackjack(ctx context.Context, userID string, stake int64, now time.Time) (BlackjackResult, error) {
	if stake <= 0 {
		return BlackjackResult{}, ErrInvalidStake
	}
	if err := s.EnsureAccount(ctx, userID); err != nil {
		return BlackjackResult{}, err
	}

	var draw blackjackDraw
	s.withRand(func(r *mathrand.Rand) {
		draw = resolveBlackjack(r, s.rules.Games)
	})

	var delta int64
	switch draw.outcome {
	case OutcomeNatural:
		delta = int64(math.Floor(float64(stake) * s.rules.Games.BlackjackNaturalPayout))
	case OutcomeWin:
		delta = stake
	case OutcomeLoss, OutcomeBust:
		delta = -stake
	}

	var res BlackjackResult
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
		stats, err := bumpGameStats(ctx, tx, userID, GameBlackjack, delta)
		if err != nil {
			return err
		}
		res = BlackjackResult{
			Stake:       stake,
			PlayerHand:  draw.player,
			DealerHand:  draw.dealer,
			PlayerTotal: draw.playerTotal,
			DealerTotal: draw.dealerTotal,
			Outcome:     draw.outcome,
			Delta:       delta,
			NewBalance:  bal,
			Stats:       stats,
		}
		return nil
	})
	if err != nil {
		return BlackjackResult{}, err
	}
	s.log.Info("blackjack", "user", userID, "stake", stake, "outcome", draw.outcome, "delta", delta)
	return res, nil
}
