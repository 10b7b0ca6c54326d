package application

import (
	"context"
	"testing"
	"time"
)

type blockingPool struct {
}

func (p *blockingPool) Acquire(ctx context.Context, key string) (func(), bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-time.After(5 * time.Second):
		// não deve chegar aqui nos testes
		return nil, false
	}
}

type immediatePool struct {
	acquired []string
}

func (p *immediatePool) Acquire(ctx context.Context, key string) (func(), bool) {
	p.acquired = append(p.acquired, key)
	return func() {}, true
}

func TestKeyLocker_Acquire_AllowsWhenNoPool(t *testing.T) {
	l := KeyLocker{}
	release, ok := l.Acquire(context.Background(), "k")
	if !ok {
		t.Fatalf("expected ok")
	}
	release()
}

func TestKeyLocker_Acquire_UsesTimeout(t *testing.T) {
	pool := &blockingPool{}
	l := KeyLocker{Pool: pool, AcquireTimeout: 10 * time.Millisecond}

	_, ok := l.Acquire(context.Background(), "k")
	if ok {
		t.Fatalf("expected timeout and ok=false")
	}
}

func TestKeyLocker_Acquire_NoTimeoutDelegatesToPool(t *testing.T) {
	pool := &immediatePool{}
	l := KeyLocker{Pool: pool, AcquireTimeout: 0}

	_, ok := l.Acquire(context.Background(), "ratelimits:u1:GET:/x")
	if !ok {
		t.Fatalf("expected ok")
	}
	if len(pool.acquired) != 1 || pool.acquired[0] != "ratelimits:u1:GET:/x" {
		t.Fatalf("expected pool Acquire to be called once with the key, got %v", pool.acquired)
	}
}
