package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"authgate/middleware/gate/domain"
)

// DefaultSweepInterval é o intervalo padrão da limpeza do cache (3h).
const DefaultSweepInterval = 3 * time.Hour

// Sweeper apaga periodicamente tudo que não pertence ao namespace preservado.
// Contadores de rate limit (Keep) nunca são tocados.
type Sweeper struct {
	Cache    domain.CacheStore
	Keep     string
	Interval time.Duration
	// ClearOnStart faz uma limpeza antes do primeiro tick.
	ClearOnStart bool
	Logger       *slog.Logger
}

func NewSweeper(cache domain.CacheStore, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		Cache:    cache,
		Keep:     domain.RateLimitNamespace,
		Interval: DefaultSweepInterval,
		Logger:   logger,
	}
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Sweep faz uma passada e devolve as chaves removidas.
func (s *Sweeper) Sweep(ctx context.Context) ([]string, error) {
	if s.Cache == nil {
		return nil, errors.New("sweeper has no cache store")
	}
	keep := s.Keep
	if keep == "" {
		keep = domain.RateLimitNamespace
	}

	start := time.Now()
	cleared, err := s.Cache.ClearExcept(ctx, keep)
	if err != nil {
		s.logger().Error("cache sweep failed", "keep", keep, "cleared", len(cleared), "err", err)
		return cleared, err
	}
	s.logger().Info("cache swept", "keep", keep, "cleared", len(cleared), "took", time.Since(start))
	return cleared, nil
}

// Run bloqueia até ctx encerrar. Falhas de uma passada são logadas e não
// interrompem as seguintes.
func (s *Sweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	if s.ClearOnStart {
		_, _ = s.Sweep(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}
