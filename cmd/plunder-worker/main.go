package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"plunder/internal/config"
	"plunder/internal/db"
	"plunder/internal/economy"
	"plunder/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	rules, err := economy.LoadRules(cfg.RulesPath)
	if err != nil {
		logger.Error("load rules failed", "err", err)
		os.Exit(1)
	}
	svc := economy.NewService(pool, logger, rules)

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("PLUNDER_WORKER_RUN_ONCE")), "true")
	if runOnce {
		now := time.Now()
		if _, err := svc.ResolveDueHeists(ctx, now); err != nil {
			logger.Error("heist resolution failed", "err", err)
			os.Exit(1)
		}
		if _, err := svc.ReapExpiredBuffs(ctx, now); err != nil {
			logger.Error("buff reap failed", "err", err)
			os.Exit(1)
		}
		if _, err := svc.AccrueInterest(ctx); err != nil {
			logger.Error("interest accrual failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	heistTicker := time.NewTicker(cfg.HeistTickEvery)
	defer heistTicker.Stop()
	buffTicker := time.NewTicker(cfg.BuffReapEvery)
	defer buffTicker.Stop()
	interestTicker := time.NewTicker(cfg.InterestTickEvery)
	defer interestTicker.Stop()

	logger.Info("worker started",
		"heist_tick", cfg.HeistTickEvery.String(),
		"buff_reap", cfg.BuffReapEvery.String(),
		"interest_tick", cfg.InterestTickEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-heistTicker.C:
			n, err := svc.ResolveDueHeists(ctx, time.Now())
			if err != nil {
				logger.Error("heist resolution failed", "err", err)
				continue
			}
			if n > 0 {
				metrics.HeistsResolved.WithLabelValues("settled").Add(float64(n))
				logger.Info("heists resolved", "count", n)
			}
		case <-buffTicker.C:
			n, err := svc.ReapExpiredBuffs(ctx, time.Now())
			if err != nil {
				logger.Error("buff reap failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("expired buffs reaped", "count", n)
			}
		case <-interestTicker.C:
			n, err := svc.AccrueInterest(ctx)
			if err != nil {
				logger.Error("interest accrual failed", "err", err)
				continue
			}
			logger.Info("interest accrued", "accounts", n)
		}
	}
}
