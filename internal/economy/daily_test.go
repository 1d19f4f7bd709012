package economy

import "testing"

func TestDailyBonus(t *testing.T) {
	tests := []struct {
		streak int
		want   int64
	}{
		{streak: 1, want: 1_000},
		{streak: 2, want: 2_000},
		{streak: 3, want: 4_000},
		{streak: 10, want: 512_000},
		{streak: 11, want: 1_000_000},
		{streak: 40, want: 1_000_000},
		{streak: 500, want: 1_000_000},
	}
	for _, tc := range tests {
		if got := dailyBonus(tc.streak, 1_000, 1_000_000); got != tc.want {
			t.Fatalf("dailyBonus(%d) = %d, want %d", tc.streak, got, tc.want)
		}
	}
}

func TestDailyBonusSmallCap(t *testing.T) {
	if got := dailyBonus(1, 1_000, 500); got != 500 {
		t.Fatalf("base above cap should clamp, got %d", got)
	}
}
