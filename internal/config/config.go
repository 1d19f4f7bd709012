package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr           string
	DatabaseURL    string
	DBMaxConns     int32
	RulesPath      string
	AdminToken     string
	RequestTimeout time.Duration
}

type WorkerConfig struct {
	DatabaseURL       string
	DBMaxConns        int32
	RulesPath         string
	HeistTickEvery    time.Duration
	BuffReapEvery     time.Duration
	InterestTickEvery time.Duration
}

type CLIConfig struct {
	APIBaseURL string
	AdminToken string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("PLUNDER_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:           addr,
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:     int32(envIntDefault("PLUNDER_DB_MAX_CONNS", 20)),
		RulesPath:      strings.TrimSpace(os.Getenv("PLUNDER_RULES_PATH")),
		AdminToken:     strings.TrimSpace(os.Getenv("PLUNDER_ADMIN_TOKEN")),
		RequestTimeout: envDurationDefault("PLUNDER_REQUEST_TIMEOUT", 15*time.Second),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:        int32(envIntDefault("PLUNDER_DB_MAX_CONNS", 5)),
		RulesPath:         strings.TrimSpace(os.Getenv("PLUNDER_RULES_PATH")),
		HeistTickEvery:    envDurationDefault("PLUNDER_HEIST_TICK_EVERY", 5*time.Second),
		BuffReapEvery:     envDurationDefault("PLUNDER_BUFF_REAP_EVERY", 10*time.Minute),
		InterestTickEvery: envDurationDefault("PLUNDER_INTEREST_TICK_EVERY", time.Hour),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("PLUNDER_API_BASE_URL", "http://localhost:8080"), "/"),
		AdminToken: strings.TrimSpace(os.Getenv("PLUNDER_ADMIN_TOKEN")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
