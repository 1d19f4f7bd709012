package economy

import (
	mathrand "math/rand"
	"testing"
)

func TestStealRate(t *testing.T) {
	rules := DefaultRules().Steal
	tests := []struct {
		name     string
		target   int64
		thief    float64
		victim   float64
		wantBase float64
	}{
		{name: "broke target", target: 0, thief: 1, victim: 1, wantBase: 0.5},
		{name: "wealth cap reached", target: 500_000, thief: 1, victim: 1, wantBase: 0.75 + 0.10*0.05},
		{name: "whale", target: 10_000_000, thief: 1, victim: 1, wantBase: 0.85},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base, final := stealRate(rules, tc.target, tc.thief, tc.victim)
			if diff := base - tc.wantBase; diff > 1e-9 || diff < -1e-9 {
				t.Fatalf("base = %v, want %v", base, tc.wantBase)
			}
			if final < 0.05 || final > 0.95 {
				t.Fatalf("final rate %v outside clamp", final)
			}
		})
	}
}

func TestStealRateBuffsAndClamp(t *testing.T) {
	rules := DefaultRules().Steal

	_, boosted := stealRate(rules, 500_000, 1.25, 1)
	_, plain := stealRate(rules, 500_000, 1, 1)
	if boosted <= plain {
		t.Fatalf("success buff should raise the rate: %v <= %v", boosted, plain)
	}

	_, guarded := stealRate(rules, 500_000, 1, 0.5)
	if guarded >= plain {
		t.Fatalf("resistance buff should lower the rate: %v >= %v", guarded, plain)
	}

	// A huge buff stack still clamps below certainty.
	_, capped := stealRate(rules, 10_000_000, 10, 1)
	if capped != 0.95 {
		t.Fatalf("rate should clamp at 0.95, got %v", capped)
	}
}

func TestStealCutBounds(t *testing.T) {
	rules := DefaultRules().Steal
	r := mathrand.New(mathrand.NewSource(13))

	lo, hi := rules.Tiers[0].MinPct, rules.Tiers[len(rules.Tiers)-1].MaxPct
	for i := 0; i < 5_000; i++ {
		d := drawSteal(r, rules.Tiers)
		pct := stealCut(rules, d, 500_000)
		if pct < lo || pct > hi {
			t.Fatalf("cut %v outside [%v, %v]", pct, lo, hi)
		}
	}
}

func TestStealCutDampensWhales(t *testing.T) {
	rules := DefaultRules().Steal
	d := stealDraw{tierRoll: 0, pctFrac: 0.5}

	normal := stealCut(rules, d, 500_000)
	whale := stealCut(rules, d, 20_000_000)
	want := normal * rules.LargeBalanceDampen
	if diff := whale - want; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("whale cut = %v, want %v", whale, want)
	}
}
