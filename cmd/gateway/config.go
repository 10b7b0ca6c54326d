package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type config struct {
	listenAddr  string
	upstreamURL string

	cacheBackend  string
	redisAddr     string
	redisUsername string
	redisPassword string
	redisDB       int

	sessionSecret string
	sessionIssuer string
	tokenHeader   string
	sessionCookie string
	cookieSecure  bool

	lockTimeout        time.Duration
	cacheClearInterval time.Duration
	cacheClearOnStart  bool
	cacheClearRate     float64

	strictRouting bool
	addHeaders    bool
	forwardCaller bool

	statsEnabled       bool
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackSubjects bool

	metricsEnabled bool
	metricsAddr    string

	logLevel  slog.Level
	logFormat string
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.upstreamURL = strings.TrimSpace(os.Getenv("UPSTREAM_URL"))

	cfg.cacheBackend = strings.ToLower(getenvDefault("CACHE_BACKEND", "redis"))
	cfg.redisAddr = getenvDefault("REDIS_ADDR", "localhost:6379")
	cfg.redisUsername = os.Getenv("REDIS_USERNAME")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)

	cfg.sessionSecret = os.Getenv("SESSION_SECRET")
	cfg.sessionIssuer = getenvDefault("SESSION_ISSUER", "authgate")
	cfg.tokenHeader = getenvDefault("TOKEN_HEADER", "Authorization")
	cfg.sessionCookie = getenvDefault("SESSION_COOKIE", "gate_sid")
	cfg.cookieSecure = getenvBoolDefault("COOKIE_SECURE", false)

	cfg.lockTimeout = getenvDurationDefault("LOCK_TIMEOUT", 2*time.Second)
	// aceita ms puros (10800000) ou duração Go (3h)
	cfg.cacheClearInterval = getenvDurationDefault("CACHE_CLEAR_INTERVAL", 3*time.Hour)
	cfg.cacheClearOnStart = getenvBoolDefault("CACHE_CLEAR_ON_START", false)
	cfg.cacheClearRate = getenvFloatDefault("CACHE_CLEAR_RATE", 20)

	cfg.strictRouting = getenvBoolDefault("STRICT_ROUTING", true)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", true)
	cfg.forwardCaller = getenvBoolDefault("FORWARD_CALLER", true)

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	cfg.statsPrefix = getenvDefault("STATS_PREFIX", "ratelimits:stats")
	cfg.statsTTL = getenvDurationDefault("STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("STATS_BUCKET", "minute")
	cfg.statsTrackSubjects = getenvBoolDefault("STATS_TRACK_SUBJECTS", false)

	cfg.metricsEnabled = getenvBoolDefault("METRICS_ENABLED", true)
	cfg.metricsAddr = getenvDefault("METRICS_ADDR", ":9090")

	cfg.logFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))
	if err := cfg.logLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if cfg.upstreamURL == "" {
		return config{}, errors.New("UPSTREAM_URL is required")
	}
	if len(cfg.sessionSecret) < 16 {
		return config{}, errors.New("SESSION_SECRET must have at least 16 bytes")
	}
	switch cfg.cacheBackend {
	case "redis":
		if strings.TrimSpace(cfg.redisAddr) == "" {
			return config{}, errors.New("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	case "memory":
		if cfg.statsEnabled {
			return config{}, errors.New("STATS_ENABLED requires CACHE_BACKEND=redis")
		}
	default:
		return config{}, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.cacheBackend)
	}
	if cfg.cacheClearInterval <= 0 {
		return config{}, errors.New("CACHE_CLEAR_INTERVAL must be > 0")
	}
	if cfg.cacheClearRate < 0 {
		return config{}, errors.New("CACHE_CLEAR_RATE must be >= 0")
	}
	switch cfg.logFormat {
	case "text", "json":
	default:
		return config{}, fmt.Errorf("unknown LOG_FORMAT %q", cfg.logFormat)
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getenvDurationDefault aceita "1500ms"/"3h" ou um inteiro em milissegundos.
func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
