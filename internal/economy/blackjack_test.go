package economy

import (
	mathrand "math/rand"
	"testing"
)

func TestHandValue(t *testing.T) {
	tests := []struct {
		hand     []string
		want     int
		wantSoft bool
	}{
		{hand: []string{"A", "K"}, want: 21, wantSoft: true},
		{hand: []string{"A", "A", "9"}, want: 21, wantSoft: true},
		{hand: []string{"A", "A"}, want: 12, wantSoft: true},
		{hand: []string{"A", "6"}, want: 17, wantSoft: true},
		{hand: []string{"A", "6", "10"}, want: 17, wantSoft: false},
		{hand: []string{"K", "Q", "5"}, want: 25, wantSoft: false},
		{hand: []string{"2", "3", "4"}, want: 9, wantSoft: false},
		{hand: []string{"10", "J"}, want: 20, wantSoft: false},
		{hand: []string{"A", "A", "A", "8"}, want: 21, wantSoft: true},
	}
	for _, tc := range tests {
		got, soft := handValue(tc.hand)
		if got != tc.want || soft != tc.wantSoft {
			t.Fatalf("handValue(%v) = (%d, %t), want (%d, %t)", tc.hand, got, soft, tc.want, tc.wantSoft)
		}
	}
}

func TestResolveBlackjackInvariants(t *testing.T) {
	rules := DefaultRules().Games
	r := mathrand.New(mathrand.NewSource(3))

	for i := 0; i < 2_000; i++ {
		d := resolveBlackjack(r, rules)
		switch d.outcome {
		case OutcomeNatural:
			if d.playerTotal != 21 || len(d.player) != 2 {
				t.Fatalf("natural with hand %v total %d", d.player, d.playerTotal)
			}
			if d.dealerTotal == 21 && len(d.dealer) == 2 {
				t.Fatalf("dealer natural should push, not lose")
			}
		case OutcomeBust:
			if d.playerTotal <= 21 {
				t.Fatalf("bust with total %d", d.playerTotal)
			}
		case OutcomeWin:
			if d.playerTotal > 21 {
				t.Fatalf("win with busted hand %d", d.playerTotal)
			}
			if d.dealerTotal <= 21 && d.playerTotal <= d.dealerTotal {
				t.Fatalf("win with player %d vs dealer %d", d.playerTotal, d.dealerTotal)
			}
		case OutcomeLoss:
			if d.playerTotal > 21 || d.dealerTotal > 21 || d.playerTotal >= d.dealerTotal {
				t.Fatalf("loss with player %d vs dealer %d", d.playerTotal, d.dealerTotal)
			}
		case OutcomePush:
			if len(d.player) > 2 && d.playerTotal != d.dealerTotal {
				t.Fatalf("push with player %d vs dealer %d", d.playerTotal, d.dealerTotal)
			}
		default:
			t.Fatalf("unknown outcome %q", d.outcome)
		}

		// Player policy: stands at or above the threshold, never below it.
		if d.outcome != OutcomeNatural && d.playerTotal < rules.BlackjackStandAt && d.playerTotal <= 21 {
			t.Fatalf("player stood at %d, below the stand threshold", d.playerTotal)
		}
		// Dealer never stands below 17 once the hand goes to comparison.
		switch d.outcome {
		case OutcomeWin, OutcomeLoss:
			if d.dealerTotal < 17 {
				t.Fatalf("dealer stood at %d", d.dealerTotal)
			}
		case OutcomePush:
			if len(d.player) > 2 && d.dealerTotal < 17 {
				t.Fatalf("dealer stood at %d", d.dealerTotal)
			}
		}
	}
}
