package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authgate/middleware/gate"
	"authgate/middleware/gate/application"
	"authgate/middleware/gate/domain"
	"authgate/middleware/gate/infra"

	"github.com/go-chi/chi/v5"
)

// devSecret só serve para o exemplo local.
const devSecret = "example-server-dev-secret-change-me"

func main() {
	// Exemplo: gate embutido direto no seu webserver (sem proxy), cache em memória
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cache := infra.NewMemoryCache()
	cache.StartJanitor(ctx)

	sessions, err := infra.NewJWTSessions(devSecret, infra.WithSessionTTL(time.Hour))
	if err != nil {
		logger.Error("sessions", "err", err)
		os.Exit(1)
	}

	stats := infra.NewMemoryStatsStore(infra.WithTrackSubjects(true))
	authz := application.NewAuthorizer(&application.Tracker{
		Cache:  cache,
		Locker: application.KeyLocker{Pool: infra.NewKeyedChanPool(), AcquireTimeout: time.Second},
	})
	authz.OnDecision = func(ctx context.Context, ev domain.StatsEvent) { _ = stats.Record(ctx, ev) }

	base := gate.Options{
		Authorizer:          authz,
		CallerFn:            gate.DefaultCallerFunc(sessions, "", ""),
		Logger:              logger,
		AddRateLimitHeaders: true,
	}
	with := func(route domain.Route) func(http.Handler) http.Handler {
		opts := base
		opts.Route = route
		return gate.Middleware(opts)
	}

	r := chi.NewRouter()
	r.Use(gate.SessionCookie("", false))
	r.NotFound(gate.NotFound().ServeHTTP)

	// login de desenvolvimento: só para quem ainda não tem sessão
	r.With(with(domain.Route{
		Method:  http.MethodPost,
		Pattern: "/login",
		Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedOut},
		Rate:    domain.Options{Requests: domain.RequestOptions{Max: 5, Reset: time.Minute}},
	})).Post("/login", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("user")
		if id == "" {
			http.Error(w, "missing user", http.StatusBadRequest)
			return
		}
		flags, err := domain.ParseFlags(r.URL.Query()["flag"]...)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tok, err := sessions.Issue(domain.Caller{ID: id, Flags: flags})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]string{"token": tok})
	})

	r.With(with(domain.Route{
		Method:  http.MethodGet,
		Pattern: "/me",
		Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedIn},
		Rate: domain.Options{
			Requests: domain.RequestOptions{Max: 3, Reset: 10 * time.Second},
			Flags:    []domain.FlagOption{{Flag: domain.FlagStaff, Bypass: true}},
		},
	})).Get("/me", func(w http.ResponseWriter, r *http.Request) {
		c, _ := gate.CallerFromContext(r.Context())
		writeJSON(w, map[string]any{"id": c.ID, "flags": c.Flags.Names()})
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"total": stats.Total(), "byReason": stats.ByReason()})
	})

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}
