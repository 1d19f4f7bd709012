package economy

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultRulesValidate(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules should validate: %v", err)
	}
}

func TestLoadRulesEmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.Daily.BaseReward != DefaultRules().Daily.BaseReward {
		t.Fatalf("expected defaults when no file is given")
	}
}

func TestLoadRulesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	body := `
[daily]
base_reward = 500

[steal]
thief_cooldown = "30m"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if rules.Daily.BaseReward != 500 {
		t.Fatalf("base_reward = %d, want 500", rules.Daily.BaseReward)
	}
	if rules.Steal.ThiefCooldown.Duration != 30*time.Minute {
		t.Fatalf("thief_cooldown = %s, want 30m", rules.Steal.ThiefCooldown.Duration)
	}
	// Untouched knobs keep their defaults.
	if rules.Bank.BaseCap != 1_000_000 {
		t.Fatalf("bank base cap = %d", rules.Bank.BaseCap)
	}
	if len(rules.Work.Mining) == 0 {
		t.Fatalf("mining table should survive a partial overlay")
	}
}

func TestLoadRulesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	body := `
[work]
threshold_growth = 0.9
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatalf("expected shrinking threshold growth to be rejected")
	}
}

func TestBankCapAndUpgradePrice(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		level     int
		wantCap   int64
		wantPrice int64
	}{
		{level: 1, wantCap: 1_000_000, wantPrice: 500_000},
		{level: 2, wantCap: 1_500_000, wantPrice: 1_000_000},
		{level: 5, wantCap: 3_000_000, wantPrice: 2_500_000},
	}
	for _, tc := range tests {
		if got := rules.BankCapForLevel(tc.level); got != tc.wantCap {
			t.Fatalf("cap(level=%d) = %d, want %d", tc.level, got, tc.wantCap)
		}
		if got := rules.BankUpgradePrice(tc.level); got != tc.wantPrice {
			t.Fatalf("price(level=%d) = %d, want %d", tc.level, got, tc.wantPrice)
		}
	}
}
