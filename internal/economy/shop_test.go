package economy

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestCheckOwnership(t *testing.T) {
	storageErr := errors.New("connection reset")
	tests := []struct {
		name     string
		qty      int64
		err      error
		notOwned bool
		wantErr  error
	}{
		{name: "owned", qty: 2, err: nil},
		{name: "no inventory row", qty: 0, err: pgx.ErrNoRows, notOwned: true},
		{name: "quantity drained", qty: 0, err: nil, notOwned: true},
		{name: "storage failure", qty: 0, err: storageErr, wantErr: storageErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkOwnership(tt.qty, tt.err, "iron_pickaxe")
			if tt.notOwned {
				if !errors.Is(err, ErrNotOwned) {
					t.Fatalf("got %v, want ErrNotOwned", err)
				}
				return
			}
			if tt.wantErr != nil {
				if errors.Is(err, ErrNotOwned) {
					t.Fatalf("storage failure reported as not owned: %v", err)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want wrapped %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
