package economy

import (
	mathrand "math/rand"
	"testing"
)

func TestApplyXPSingleLevel(t *testing.T) {
	level, xp, next, gained := applyXP(1, 0, 50, 50, 1.25)
	if level != 2 || xp != 0 || gained != 1 {
		t.Fatalf("level=%d xp=%d gained=%d", level, xp, gained)
	}
	if next != 62 {
		t.Fatalf("next threshold = %d, want 62", next)
	}
}

func TestApplyXPCarryOver(t *testing.T) {
	// 130 XP from level 1: clears 50 and 62, leaves 18 toward the 77
	// threshold.
	level, xp, next, gained := applyXP(1, 0, 50, 130, 1.25)
	if gained != 2 {
		t.Fatalf("levels gained = %d, want 2", gained)
	}
	if level != 3 || xp != 18 || next != 77 {
		t.Fatalf("level=%d xp=%d next=%d", level, xp, next)
	}
}

func TestApplyXPNoLevel(t *testing.T) {
	level, xp, next, gained := applyXP(4, 10, 97, 5, 1.25)
	if gained != 0 || level != 4 || xp != 15 || next != 97 {
		t.Fatalf("level=%d xp=%d next=%d gained=%d", level, xp, next, gained)
	}
}

func TestApplyXPThresholdsStrictlyIncrease(t *testing.T) {
	next := int64(50)
	prev := int64(0)
	for i := 0; i < 50; i++ {
		if next <= prev {
			t.Fatalf("threshold stopped increasing at step %d: %d <= %d", i, next, prev)
		}
		prev = next
		_, _, next, _ = applyXP(1, 0, next, next, 1.25)
	}
}

func TestPickRarityTierWeights(t *testing.T) {
	tiers := DefaultRules().Work.Mining
	r := mathrand.New(mathrand.NewSource(7))

	counts := make(map[string]int)
	for i := 0; i < 10_000; i++ {
		counts[pickRarityTier(r, tiers).Name]++
	}
	if counts["Common"] <= counts["Legendary"] {
		t.Fatalf("common should dominate legendary: %v", counts)
	}
	for _, tier := range tiers {
		if counts[tier.Name] == 0 && tier.Weight > 0 {
			t.Fatalf("tier %s never drawn in 10k samples", tier.Name)
		}
	}
}

func TestResolveWorkRanges(t *testing.T) {
	rules := DefaultRules()
	r := mathrand.New(mathrand.NewSource(11))
	for i := 0; i < 1_000; i++ {
		draw := resolveWork(r, rules.Work.Mining, rules.Work.XPMin, rules.Work.XPMax)
		if draw.item == "" || draw.rarity == "" {
			t.Fatalf("empty draw: %+v", draw)
		}
		if draw.baseXP < int64(rules.Work.XPMin) || draw.baseXP > int64(rules.Work.XPMax) {
			t.Fatalf("base xp %d outside [%d, %d]", draw.baseXP, rules.Work.XPMin, rules.Work.XPMax)
		}
		var tier *RarityTier
		for j := range rules.Work.Mining {
			if rules.Work.Mining[j].Name == draw.rarity {
				tier = &rules.Work.Mining[j]
			}
		}
		if tier == nil {
			t.Fatalf("unknown rarity %q", draw.rarity)
		}
		if draw.baseValue < tier.MinValue || draw.baseValue > tier.MaxValue {
			t.Fatalf("value %d outside %s range [%d, %d]", draw.baseValue, tier.Name, tier.MinValue, tier.MaxValue)
		}
	}
}
