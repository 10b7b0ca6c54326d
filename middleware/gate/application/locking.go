package application

import (
	"context"
	"time"

	"authgate/middleware/gate/domain"
)

// KeyLocker concentra a regra de aquisição da vaga por chave com timeout,
// sem saber nada sobre o cache ou HTTP.
type KeyLocker struct {
	Pool           domain.KeyedSlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir a vaga da chave.
// - Se `AcquireTimeout <= 0`, espera indefinidamente (até ctx cancelar).
// - Se `AcquireTimeout > 0`, espera até o timeout.
// Retorna (release, ok). Se ok=false, nenhuma vaga foi adquirida.
// Sem Pool, devolve sucesso imediato (serialização fica só a cargo do cache).
func (l KeyLocker) Acquire(ctx context.Context, key string) (func(), bool) {
	if l.Pool == nil {
		return func() {}, true
	}

	if l.AcquireTimeout <= 0 {
		return l.Pool.Acquire(ctx, key)
	}

	acqCtx, cancel := context.WithTimeout(ctx, l.AcquireTimeout)
	defer cancel()
	return l.Pool.Acquire(acqCtx, key)
}
