package economy

import "testing"

func TestClampDeposit(t *testing.T) {
	tests := []struct {
		name      string
		requested int64
		bankBal   int64
		bankCap   int64
		want      int64
	}{
		{name: "plenty of room", requested: 500, bankBal: 0, bankCap: 1_000_000, want: 500},
		{name: "exact fit", requested: 200, bankBal: 999_800, bankCap: 1_000_000, want: 200},
		{name: "partial near cap", requested: 500, bankBal: 999_800, bankCap: 1_000_000, want: 200},
		{name: "bank full", requested: 500, bankBal: 1_000_000, bankCap: 1_000_000, want: 0},
		{name: "bank over cap", requested: 500, bankBal: 1_000_100, bankCap: 1_000_000, want: 0},
		{name: "one coin of room", requested: 500, bankBal: 999_999, bankCap: 1_000_000, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clampDeposit(tt.requested, tt.bankBal, tt.bankCap)
			if got != tt.want {
				t.Fatalf("clampDeposit(%d, %d, %d) = %d, want %d",
					tt.requested, tt.bankBal, tt.bankCap, got, tt.want)
			}
		})
	}
}
