package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authgate/middleware/gate"
	"authgate/middleware/gate/application"
	"authgate/middleware/gate/domain"
	"authgate/middleware/gate/infra"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env é opcional: variáveis já definidas no ambiente têm prioridade
	_ = godotenv.Load()

	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		if domain.IsConnectionError(err) {
			logger.Error("cache unreachable, rate limiting cannot work", "err", err)
		} else {
			logger.Error("gateway stopped", "err", err)
		}
		os.Exit(1)
	}
}

func newLogger(cfg config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.logLevel}
	if cfg.logFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newCache(ctx context.Context, cfg config) (domain.CacheStore, *infra.RedisCache, error) {
	if cfg.cacheBackend == "memory" {
		mem := infra.NewMemoryCache()
		mem.StartJanitor(ctx)
		return mem, nil, nil
	}

	rc, err := infra.NewRedisCache(infra.RedisConfig{
		Addr:     cfg.redisAddr,
		Username: cfg.redisUsername,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	}, infra.WithClearRate(cfg.cacheClearRate, 5))
	if err != nil {
		return nil, nil, err
	}
	return rc, rc, nil
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	target, err := url.Parse(cfg.upstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("proxy error", "method", r.Method, "path", r.URL.Path, "err", err)
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	cache, redisCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cache.Close() }()

	if err := cache.Connect(ctx); err != nil {
		return err
	}

	sessions, err := infra.NewJWTSessions(cfg.sessionSecret, infra.WithIssuer(cfg.sessionIssuer))
	if err != nil {
		return err
	}

	var stats infra.MultiStats
	var metrics *infra.PrometheusStats
	if cfg.metricsEnabled {
		metrics, err = infra.NewPrometheusStats("authgate")
		if err != nil {
			return err
		}
		stats = append(stats, metrics)
	}
	if cfg.statsEnabled && redisCache != nil {
		stats = append(stats, infra.NewRedisStatsStore(
			redisCache.Client(),
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackSubjects(cfg.statsTrackSubjects),
		))
	}

	tracker := &application.Tracker{
		Cache: cache,
		Locker: application.KeyLocker{
			Pool:           infra.NewKeyedChanPool(),
			AcquireTimeout: cfg.lockTimeout,
		},
	}
	authz := application.NewAuthorizer(tracker)
	if len(stats) > 0 {
		authz.OnDecision = func(ctx context.Context, ev domain.StatsEvent) {
			// best-effort: estatística nunca derruba a requisição
			if err := stats.Record(ctx, ev); err != nil {
				logger.Warn("stats record failed", "err", err)
			}
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if !cfg.strictRouting {
		r.Use(middleware.StripSlashes)
	}
	r.Use(gate.SessionCookie(cfg.sessionCookie, cfg.cookieSecure))
	r.NotFound(gate.NotFound().ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	gate.Mount(r, gate.Options{
		Authorizer:          authz,
		CallerFn:            gate.DefaultCallerFunc(sessions, cfg.tokenHeader, cfg.sessionCookie),
		Logger:              logger,
		AddRateLimitHeaders: cfg.addHeaders,
		ForwardCaller:       cfg.forwardCaller,
	}, apiRoutes(), proxy)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	servers := []*http.Server{srv}
	if metrics != nil {
		servers = append(servers, &http.Server{
			Addr:              cfg.metricsAddr,
			Handler:           metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	sweeper := application.NewSweeper(cache, logger.With("component", "sweeper"))
	sweeper.Interval = cfg.cacheClearInterval
	sweeper.ClearOnStart = cfg.cacheClearOnStart

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		s := s // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		g.Go(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", s.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error { return sweeper.Run(gctx) })

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, s := range servers {
			_ = s.Shutdown(shutdownCtx)
		}
		return nil
	})

	logger.Info("gateway listening", "addr", cfg.listenAddr, "upstream", target.String())
	logger.Info("cache", "backend", cfg.cacheBackend, "redisAddr", cfg.redisAddr, "clearInterval", cfg.cacheClearInterval, "clearOnStart", cfg.cacheClearOnStart)
	logger.Info("gate", "routes", len(apiRoutes()), "strictRouting", cfg.strictRouting, "lockTimeout", cfg.lockTimeout)
	logger.Info("stats", "metrics", cfg.metricsEnabled, "metricsAddr", cfg.metricsAddr, "redis", cfg.statsEnabled)

	return g.Wait()
}
