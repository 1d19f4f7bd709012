package economy

import (
	mathrand "math/rand"
	"testing"
)

func heistRoster(n int, stake int64) []HeistMember {
	members := make([]HeistMember, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, HeistMember{UserID: string(rune('a' + i)), Stake: stake})
	}
	return members
}

func TestHeistSuccessRate(t *testing.T) {
	rules := DefaultRules().Heist
	r := mathrand.New(mathrand.NewSource(1))
	tests := []struct {
		members int
		want    float64
	}{
		{members: 1, want: 0.35},
		{members: 2, want: 0.40},
		{members: 5, want: 0.55},
		{members: 12, want: 0.55},
	}
	for _, tc := range tests {
		plan := resolveHeistOutcome(r, rules, heistRoster(tc.members, 10_000))
		if diff := plan.successRate - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("rate for %d members = %v, want %v", tc.members, plan.successRate, tc.want)
		}
	}
}

func TestHeistPayoutConservation(t *testing.T) {
	rules := DefaultRules().Heist
	r := mathrand.New(mathrand.NewSource(7))

	for i := 0; i < 2_000; i++ {
		n := 1 + r.Intn(8)
		members := heistRoster(n, int64(1_000+r.Intn(50_000)))
		plan := resolveHeistOutcome(r, rules, members)

		if !plan.success {
			if plan.loot != 0 || len(plan.payouts) != 0 {
				t.Fatalf("failed heist should pay nothing, got loot %d payouts %v", plan.loot, plan.payouts)
			}
			continue
		}

		var totalStake, paid int64
		for _, m := range members {
			totalStake += m.Stake
			paid += plan.payouts[m.UserID]
		}
		if plan.loot != int64(float64(totalStake)*rules.LootMultiplier) {
			t.Fatalf("loot = %d for stakes %d", plan.loot, totalStake)
		}
		// Integer division may burn a sub-share remainder, never more.
		if rem := plan.loot - paid; rem < 0 || rem >= int64(n) {
			t.Fatalf("paid %d of %d loot across %d members", paid, plan.loot, n)
		}
		for id := range plan.betrayers {
			if _, ok := plan.payouts[id]; !ok {
				t.Fatalf("betrayer %s missing from payouts", id)
			}
		}
	}
}

func TestHeistBetrayerSkimsBonus(t *testing.T) {
	rules := DefaultRules().Heist
	rules.BaseChance = 1
	rules.ChanceCap = 1
	rules.BetrayalChance = 1

	r := mathrand.New(mathrand.NewSource(3))
	members := heistRoster(4, 10_000)
	plan := resolveHeistOutcome(r, rules, members)
	if !plan.success {
		t.Fatal("heist should always succeed at chance 1")
	}
	if len(plan.betrayers) != len(members) {
		t.Fatalf("all members should betray, got %d", len(plan.betrayers))
	}

	evenShare := plan.loot / int64(len(members))
	bonus := int64(float64(evenShare) * rules.BetrayerBonusPct)
	pool := plan.loot - bonus*int64(len(members))
	want := bonus + pool/int64(len(members))
	for _, m := range members {
		if plan.payouts[m.UserID] != want {
			t.Fatalf("payout for %s = %d, want %d", m.UserID, plan.payouts[m.UserID], want)
		}
	}
}
