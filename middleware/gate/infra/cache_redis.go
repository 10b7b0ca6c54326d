package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"authgate/middleware/gate/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// RedisCache implementa domain.CacheStore sobre Redis.
//
// Update usa WATCH/MULTI/EXEC: se a chave mudar entre o GET e o EXEC a
// transação é descartada e o retorno é domain.ErrRaceLost.
// ClearExcept varre com SCAN e apaga em lotes, com ritmo controlado por
// um token bucket (x/time/rate) para não competir com o tráfego normal.
type RedisCache struct {
	rdb         *redis.Client
	addr        string
	pingTimeout time.Duration
	scanCount   int64
	clearLim    *rate.Limiter
}

type RedisCacheOption func(*RedisCache)

func WithPingTimeout(d time.Duration) RedisCacheOption {
	return func(c *RedisCache) { c.pingTimeout = d }
}

// WithScanCount define o COUNT de cada SCAN (tamanho aproximado do lote).
func WithScanCount(n int64) RedisCacheOption {
	return func(c *RedisCache) {
		if n > 0 {
			c.scanCount = n
		}
	}
}

// WithClearRate limita quantos lotes de DEL por segundo ClearExcept pode emitir.
// batchesPerSecond <= 0 remove o limite.
func WithClearRate(batchesPerSecond float64, burst int) RedisCacheOption {
	return func(c *RedisCache) {
		if batchesPerSecond <= 0 {
			c.clearLim = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.clearLim = rate.NewLimiter(rate.Limit(batchesPerSecond), burst)
	}
}

var _ domain.CacheStore = (*RedisCache)(nil)

// NewRedisCache cria o client sem conectar; chame Connect na inicialização.
func NewRedisCache(cfg RedisConfig, opts ...RedisCacheOption) (*RedisCache, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisCacheFromClient(rdb, opts...), nil
}

// NewRedisCacheFromClient reaproveita um client já criado (ex: compartilhado com stats).
func NewRedisCacheFromClient(rdb *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		rdb:         rdb,
		addr:        rdb.Options().Addr,
		pingTimeout: 5 * time.Second,
		scanCount:   500,
		clearLim:    rate.NewLimiter(rate.Limit(20), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client expõe o client subjacente para quem precisa compartilhar a conexão.
func (c *RedisCache) Client() *redis.Client { return c.rdb }

func (c *RedisCache) Connect(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()

	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		return &domain.ConnectionError{Addr: c.addr, Err: err}
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Update(ctx context.Context, key string, ttl time.Duration, fn domain.UpdateFunc) error {
	if ttl < 0 {
		ttl = 0
	}

	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			found = false
			current = nil
		} else if err != nil {
			return fmt.Errorf("cache get %q: %w", key, err)
		}

		next, write, err := fn(current, found)
		if err != nil || !write {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrRaceLost
	}
	return err
}

func (c *RedisCache) ClearExcept(ctx context.Context, namespace string) ([]string, error) {
	prefix := strings.TrimSuffix(namespace, ":") + ":"
	cleared := make([]string, 0)

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, "*", c.scanCount).Result()
		if err != nil {
			return cleared, fmt.Errorf("cache scan: %w", err)
		}

		batch := keys[:0]
		for _, k := range keys {
			if !strings.HasPrefix(k, prefix) {
				batch = append(batch, k)
			}
		}

		if len(batch) > 0 {
			if c.clearLim != nil {
				if err := c.clearLim.Wait(ctx); err != nil {
					return cleared, err
				}
			}
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return cleared, fmt.Errorf("cache delete batch: %w", err)
			}
			cleared = append(cleared, batch...)
		}

		cursor = next
		if cursor == 0 {
			return cleared, nil
		}
	}
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
