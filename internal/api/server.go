package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"plunder/internal/config"
	"plunder/internal/economy"
	"plunder/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type contextKey string

const userContextKey contextKey = "user"

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	economy *economy.Service
	mux     *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, svc *economy.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		economy: svc,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.userMiddleware)

			r.Get("/balances", s.instrument("balances", s.handleBalances))
			r.Post("/daily", s.instrument("daily", s.handleDaily))
			r.Post("/deposit", s.instrument("deposit", s.handleDeposit))
			r.Post("/withdraw", s.instrument("withdraw", s.handleWithdraw))
			r.Post("/transfer", s.instrument("transfer", s.handleTransfer))

			r.Post("/work/{skill}", s.instrument("work", s.handleWork))
			r.Get("/progress", s.instrument("progress", s.handleProgress))
			r.Get("/buffs", s.instrument("buffs", s.handleBuffs))
			r.Get("/cooldowns", s.instrument("cooldowns", s.handleCooldowns))

			r.Post("/games/roll", s.instrument("roll", s.handleRoll))
			r.Post("/games/blackjack", s.instrument("blackjack", s.handleBlackjack))
			r.Post("/games/slots", s.instrument("slots", s.handleSlots))

			r.Post("/steal", s.instrument("steal", s.handleSteal))

			r.Post("/heists", s.instrument("heist_start", s.handleHeistStart))
			r.Get("/heists/{id}", s.instrument("heist_get", s.handleHeistGet))
			r.Post("/heists/{id}/join", s.instrument("heist_join", s.handleHeistJoin))
			r.Post("/heists/{id}/resolve", s.instrument("heist_resolve", s.handleHeistResolve))

			r.Get("/stats", s.instrument("stats", s.handleStats))
			r.Get("/inventory", s.instrument("inventory", s.handleInventory))
			r.Get("/shop", s.instrument("shop", s.handleShop))
			r.Post("/shop/buy", s.instrument("shop_buy", s.handleShopBuy))
			r.Post("/shop/bank-upgrade", s.instrument("bank_upgrade", s.handleBankUpgrade))
			r.Post("/equip", s.instrument("equip", s.handleEquip))
		})

		r.Get("/leaderboard/{kind}", s.instrument("leaderboard", s.handleLeaderboard))

		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/admin/grant", s.instrument("admin_grant", s.handleAdminGrant))
			r.Post("/admin/xp", s.instrument("admin_xp", s.handleAdminXP))
		})
	})
}

// userMiddleware resolves the acting user. The chat front end authenticates
// its users itself and forwards the stable identity in X-User-ID.
func (s *Server) userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled")
			return
		}
		if bearerToken(r.Header.Get("Authorization")) != s.cfg.AdminToken {
			writeError(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument wraps a handler with per-action latency and outcome metrics.
func (s *Server) instrument(action string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		h(ww, r)
		outcome := "ok"
		if ww.Status() >= 400 {
			outcome = "error"
		}
		metrics.ActionsTotal.WithLabelValues(action, outcome).Inc()
		metrics.ActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}
}

func userFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userContextKey).(string)
	return userID
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	v, err := s.economy.Balances(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.ClaimDaily(r.Context(), userFromContext(r.Context()), time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.Deposit(r.Context(), userFromContext(r.Context()), in.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.Withdraw(r.Context(), userFromContext(r.Context()), in.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var in struct {
		To     string `json:"to"`
		Amount int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.Transfer(r.Context(), userFromContext(r.Context()), in.To, in.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWork(w http.ResponseWriter, r *http.Request) {
	skill := chi.URLParam(r, "skill")
	res, err := s.economy.Work(r.Context(), userFromContext(r.Context()), skill, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.Progress(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": res})
}

func (s *Server) handleBuffs(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.ActiveBuffs(r.Context(), userFromContext(r.Context()), time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"buffs": res})
}

func (s *Server) handleCooldowns(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.Cooldowns(r.Context(), userFromContext(r.Context()), time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	out := make(map[string]float64, len(res))
	for action, remaining := range res {
		out[action] = remaining.Seconds()
	}
	writeJSON(w, http.StatusOK, map[string]any{"cooldowns": out})
}

func decodeStake(r *http.Request) (int64, error) {
	var in struct {
		Stake int64 `json:"stake"`
	}
	if err := decodeJSON(r, &in); err != nil {
		return 0, err
	}
	return in.Stake, nil
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	stake, err := decodeStake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.PlayRoll(r.Context(), userFromContext(r.Context()), stake, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBlackjack(w http.ResponseWriter, r *http.Request) {
	stake, err := decodeStake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.PlayBlackjack(r.Context(), userFromContext(r.Context()), stake, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	stake, err := decodeStake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.PlaySlots(r.Context(), userFromContext(r.Context()), stake, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSteal(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Target string `json:"target"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.AttemptSteal(r.Context(), userFromContext(r.Context()), in.Target, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeistStart(w http.ResponseWriter, r *http.Request) {
	stake, err := decodeStake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.StartHeist(r.Context(), userFromContext(r.Context()), stake, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeistGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.Heist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeistJoin(w http.ResponseWriter, r *http.Request) {
	stake, err := decodeStake(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.JoinHeist(r.Context(), chi.URLParam(r, "id"), userFromContext(r.Context()), stake, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeistResolve(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.ResolveHeist(r.Context(), chi.URLParam(r, "id"), time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	result := "failure"
	if res.Success {
		result = "success"
	}
	metrics.HeistsResolved.WithLabelValues(result).Inc()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.Stats(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.Inventory(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"inventory": res})
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.Catalog(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleShopBuy(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ItemKey string `json:"item_key"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.BuyItem(r.Context(), userFromContext(r.Context()), in.ItemKey, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBankUpgrade(w http.ResponseWriter, r *http.Request) {
	res, err := s.economy.BuyBankUpgrade(r.Context(), userFromContext(r.Context()))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEquip(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ItemKey string `json:"item_key"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.EquipTool(r.Context(), userFromContext(r.Context()), in.ItemKey)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	res, err := s.economy.Leaderboard(r.Context(), chi.URLParam(r, "kind"), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": res})
}

func (s *Server) handleAdminGrant(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
		Amount int64  `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := s.economy.Grant(r.Context(), in.UserID, in.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": in.UserID, "balance": balance})
}

func (s *Server) handleAdminXP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID string `json:"user_id"`
		Skill  string `json:"skill"`
		XP     int64  `json:"xp"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.economy.GainXP(r.Context(), in.UserID, in.Skill, in.XP, time.Now())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var cd *economy.CooldownError
	switch {
	case errors.As(err, &cd):
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":             cd.Error(),
			"action":            cd.Action,
			"remaining_seconds": cd.Remaining.Seconds(),
		})
	case errors.Is(err, economy.ErrOnCooldown):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, economy.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, economy.ErrInvalidTarget),
		errors.Is(err, economy.ErrInvalidStake),
		errors.Is(err, economy.ErrUnknownSkill),
		errors.Is(err, economy.ErrLevelRequired),
		errors.Is(err, economy.ErrNotOwned):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, economy.ErrHeistNotFound),
		errors.Is(err, economy.ErrUnknownItem),
		errors.Is(err, economy.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, economy.ErrHeistClosed),
		errors.Is(err, economy.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, economy.ErrTxConflict):
		metrics.TxConflicts.Inc()
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		// Unclassified failures are internal; the detail stays in the log.
		s.log.Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
