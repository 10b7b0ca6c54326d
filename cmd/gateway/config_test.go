package main

import (
	"log/slog"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("UPSTREAM_URL", "http://localhost:8081")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestReadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.listenAddr != ":8080" || cfg.cacheBackend != "redis" || cfg.redisAddr != "localhost:6379" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.cacheClearInterval != 3*time.Hour {
		t.Fatalf("expected 3h clear interval, got %s", cfg.cacheClearInterval)
	}
	if !cfg.strictRouting || !cfg.addHeaders || !cfg.forwardCaller {
		t.Fatalf("expected strict routing and headers on by default")
	}
	if cfg.logLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %s", cfg.logLevel)
	}
}

func TestReadConfig_ClearIntervalAcceptsMillis(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CACHE_CLEAR_INTERVAL", "10800000")

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.cacheClearInterval != 3*time.Hour {
		t.Fatalf("expected 3h, got %s", cfg.cacheClearInterval)
	}

	t.Setenv("CACHE_CLEAR_INTERVAL", "90m")
	cfg, err = readConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.cacheClearInterval != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", cfg.cacheClearInterval)
	}
}

func TestReadConfig_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"missing upstream":    {"UPSTREAM_URL": ""},
		"short secret":        {"SESSION_SECRET": "short"},
		"unknown backend":     {"CACHE_BACKEND": "memcached"},
		"stats without redis": {"CACHE_BACKEND": "memory", "STATS_ENABLED": "true"},
		"bad log level":       {"LOG_LEVEL": "loud"},
		"bad log format":      {"LOG_FORMAT": "xml"},
		"zero clear interval": {"CACHE_CLEAR_INTERVAL": "0"},
		"negative clear rate": {"CACHE_CLEAR_RATE": "-1"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := readConfig(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
