package infra

import (
	"context"
	"strings"
	"sync"
	"time"

	"authgate/middleware/gate/domain"
)

// MemoryCache é uma implementação de domain.CacheStore em memória,
// com TTL por chave e limpeza periódica.
//
// Útil para testes e instância única; não compartilha estado entre processos.
type MemoryCache struct {
	mu           sync.Mutex
	entries      map[string]*cacheEntry
	now          func() time.Time
	cleanupEvery time.Duration
	closed       bool
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
	version   uint64
}

type MemoryCacheOption func(*MemoryCache)

// WithClock troca o relógio usado para TTL (testes).
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) { c.now = now }
}

func WithCleanupEvery(d time.Duration) MemoryCacheOption {
	return func(c *MemoryCache) { c.cleanupEvery = d }
}

var _ domain.CacheStore = (*MemoryCache)(nil)

func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		entries:      make(map[string]*cacheEntry),
		now:          time.Now,
		cleanupEvery: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Connect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return &domain.ConnectionError{Addr: "memory", Err: domain.ErrCacheClosed}
	}
	return nil
}

// live devolve a entrada se existir e não estiver expirada. Chamar com mu travado.
func (c *MemoryCache) live(key string, now time.Time) (*cacheEntry, bool) {
	ent, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !ent.expiresAt.IsZero() && !now.Before(ent.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return ent, true
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, domain.ErrCacheClosed
	}

	ent, ok := c.live(key, c.now())
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), ent.value...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrCacheClosed
	}

	c.write(key, value, ttl, c.now())
	return nil
}

// write grava e incrementa a versão da chave. Chamar com mu travado.
func (c *MemoryCache) write(key string, value []byte, ttl time.Duration, now time.Time) {
	var version uint64
	if prev, ok := c.entries[key]; ok {
		version = prev.version
	}
	ent := &cacheEntry{value: append([]byte(nil), value...), version: version + 1}
	if ttl > 0 {
		ent.expiresAt = now.Add(ttl)
	}
	c.entries[key] = ent
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrCacheClosed
	}
	delete(c.entries, key)
	return nil
}

// Update lê a versão, roda fn fora do lock e só grava se a versão não mudou.
func (c *MemoryCache) Update(_ context.Context, key string, ttl time.Duration, fn domain.UpdateFunc) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrCacheClosed
	}
	var (
		current []byte
		version uint64
	)
	ent, found := c.live(key, c.now())
	if found {
		current = append([]byte(nil), ent.value...)
		version = ent.version
	}
	c.mu.Unlock()

	next, write, err := fn(current, found)
	if err != nil || !write {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrCacheClosed
	}

	now := c.now()
	latest, stillFound := c.live(key, now)
	switch {
	case found && (!stillFound || latest.version != version):
		return domain.ErrRaceLost
	case !found && stillFound:
		return domain.ErrRaceLost
	}

	c.write(key, next, ttl, now)
	return nil
}

func (c *MemoryCache) ClearExcept(_ context.Context, namespace string) ([]string, error) {
	prefix := strings.TrimSuffix(namespace, ":") + ":"

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrCacheClosed
	}

	cleared := make([]string, 0)
	for k := range c.entries {
		if !strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			cleared = append(cleared, k)
		}
	}
	return cleared, nil
}

// Cleanup remove as chaves expiradas.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, ent := range c.entries {
		if !ent.expiresAt.IsZero() && !now.Before(ent.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa chaves expiradas periodicamente.
// Pare cancelando o contexto.
func (c *MemoryCache) StartJanitor(ctx DoneContext) {
	if c.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(c.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.Cleanup()
			}
		}
	}()
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = make(map[string]*cacheEntry)
	return nil
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
