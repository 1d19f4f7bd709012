package economy

import (
	mathrand "math/rand"
	"testing"
)

func board(symbols ...string) []string {
	if len(symbols) != 9 {
		panic("board needs 9 symbols")
	}
	return symbols
}

func TestEvaluateSlots(t *testing.T) {
	rules := DefaultRules().Games
	tests := []struct {
		name  string
		board []string
		want  int64
	}{
		{
			name: "diagonal only",
			board: board(
				"apple", "orange", "lemon",
				"lemon", "apple", "grape",
				"orange", "lemon", "apple"),
			// The main diagonal is all apples: one line.
			want: 2,
		},
		{
			name: "single row",
			board: board(
				"apple", "apple", "apple",
				"orange", "lemon", "grape",
				"grape", "orange", "lemon"),
			want: 2,
		},
		{
			name: "full board of a plain symbol",
			board: board(
				"apple", "apple", "apple",
				"apple", "apple", "apple",
				"apple", "apple", "apple"),
			// All 8 lines match; apple is not a special symbol.
			want: 16,
		},
		{
			name: "full board of a special symbol",
			board: board(
				"melon", "melon", "melon",
				"melon", "melon", "melon",
				"melon", "melon", "melon"),
			// 8 lines plus the nine-special jackpot.
			want: 16 + 100_000,
		},
		{
			name: "three specials scattered",
			board: board(
				"melon", "apple", "orange",
				"apple", "cherry", "grape",
				"orange", "grape", "pear"),
			// No line; melon, cherry and pear count as three specials.
			want: 1,
		},
		{
			name: "true zero",
			board: board(
				"apple", "orange", "grape",
				"orange", "lemon", "apple",
				"grape", "orange", "strawberry"),
			want: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := evaluateSlots(tc.board, rules); got != tc.want {
				t.Fatalf("multiplier = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResolveSlotsBoard(t *testing.T) {
	rules := DefaultRules().Games
	r := mathrand.New(mathrand.NewSource(5))
	allowed := make(map[string]bool, len(rules.SlotsSymbols))
	for _, s := range rules.SlotsSymbols {
		allowed[s] = true
	}
	b := resolveSlotsBoard(r, rules.SlotsSymbols)
	if len(b) != 9 {
		t.Fatalf("board has %d cells", len(b))
	}
	for _, sym := range b {
		if !allowed[sym] {
			t.Fatalf("unknown symbol %q", sym)
		}
	}
}

func TestResolveRoll(t *testing.T) {
	r := mathrand.New(mathrand.NewSource(9))
	sawWin, sawLoss := false, false
	for i := 0; i < 1_000; i++ {
		d := resolveRoll(r, 100)
		if d.user < 0 || d.user > 100 || d.dealer < 0 || d.dealer > 100 {
			t.Fatalf("roll out of range: %+v", d)
		}
		switch d.outcome() {
		case OutcomeWin:
			sawWin = true
			if d.user <= d.dealer {
				t.Fatalf("win with %d vs %d", d.user, d.dealer)
			}
		case OutcomeLoss:
			sawLoss = true
			if d.user >= d.dealer {
				t.Fatalf("loss with %d vs %d", d.user, d.dealer)
			}
		case OutcomeTie:
			if d.user != d.dealer {
				t.Fatalf("tie with %d vs %d", d.user, d.dealer)
			}
		}
	}
	if !sawWin || !sawLoss {
		t.Fatalf("expected both wins and losses over 1k rolls")
	}
}

func TestRollDelta(t *testing.T) {
	tests := []struct {
		name    string
		outcome string
		stake   int64
		mult    int64
		want    int64
	}{
		// At 2x odds a win returns the stake plus the same again, so the
		// net movement equals the stake.
		{name: "win at double odds", outcome: OutcomeWin, stake: 500, mult: 2, want: 500},
		{name: "win at triple odds", outcome: OutcomeWin, stake: 500, mult: 3, want: 1_000},
		{name: "loss forfeits stake", outcome: OutcomeLoss, stake: 500, mult: 2, want: -500},
		{name: "tie moves nothing", outcome: OutcomeTie, stake: 500, mult: 2, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rollDelta(tt.outcome, tt.stake, tt.mult); got != tt.want {
				t.Fatalf("rollDelta(%s, %d, %d) = %d, want %d", tt.outcome, tt.stake, tt.mult, got, tt.want)
			}
		})
	}

	// Wins are the only deltas bumpGameStats counts toward the won total,
	// so a double-odds win grows rolls_total_won by exactly the stake.
	if d := rollDelta(OutcomeWin, 250, DefaultRules().Games.RollWinMultiplier); d != 250 {
		t.Fatalf("default-rules win delta = %d, want 250", d)
	}
}
