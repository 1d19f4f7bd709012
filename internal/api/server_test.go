package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plunder/internal/economy"
)

func testServer() *Server {
	return &Server{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestWriteDomainErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "insufficient funds", err: economy.ErrInsufficientFunds, status: http.StatusConflict},
		{name: "invalid stake", err: economy.ErrInvalidStake, status: http.StatusBadRequest},
		{name: "not owned", err: fmt.Errorf("%w: iron_pickaxe", economy.ErrNotOwned), status: http.StatusBadRequest},
		{name: "heist not found", err: economy.ErrHeistNotFound, status: http.StatusNotFound},
		{name: "heist closed", err: economy.ErrHeistClosed, status: http.StatusConflict},
		{name: "tx conflict", err: economy.ErrTxConflict, status: http.StatusServiceUnavailable},
		{name: "unclassified", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError},
	}
	s := testServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeDomainError(rec, tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestWriteDomainErrorHidesInternalDetail(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.writeDomainError(rec, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "10.0.0.5") || strings.Contains(body, "connection refused") {
		t.Fatalf("response leaks internal detail: %s", body)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["error"] != "internal error" {
		t.Fatalf("error = %q, want opaque message", payload["error"])
	}
}

func TestWriteDomainErrorCooldownPayload(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.writeDomainError(rec, &economy.CooldownError{Action: "daily", Remaining: 90 * time.Second})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload["action"] != "daily" {
		t.Fatalf("action = %q, want daily", payload["action"])
	}
	if payload["remaining_seconds"].(float64) != 90 {
		t.Fatalf("remaining_seconds = %v, want 90", payload["remaining_seconds"])
	}
}
