package infra

import (
	"context"
	"sync"

	"authgate/middleware/gate/domain"
)

// keyedSlot é o semáforo de capacidade 1 de uma chave, com contagem de
// interessados para saber quando pode sair do mapa.
type keyedSlot struct {
	sem  chan struct{}
	refs int
}

// KeyedChanPool serializa por chave usando um channel de capacidade 1 por chave.
// Slots sem ninguém esperando ou segurando são removidos, então o mapa só
// cresce com as chaves em uso no momento.
type KeyedChanPool struct {
	mu    sync.Mutex
	slots map[string]*keyedSlot
}

var _ domain.KeyedSlotPool = (*KeyedChanPool)(nil)

func NewKeyedChanPool() *KeyedChanPool {
	return &KeyedChanPool{slots: make(map[string]*keyedSlot)}
}

func (p *KeyedChanPool) Acquire(ctx context.Context, key string) (func(), bool) {
	p.mu.Lock()
	slot, ok := p.slots[key]
	if !ok {
		slot = &keyedSlot{sem: make(chan struct{}, 1)}
		p.slots[key] = slot
	}
	slot.refs++
	p.mu.Unlock()

	select {
	case slot.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.sem
				p.unref(key, slot)
			})
		}, true
	case <-ctx.Done():
		p.unref(key, slot)
		return nil, false
	}
}

func (p *KeyedChanPool) unref(key string, slot *keyedSlot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot.refs--
	if slot.refs == 0 && p.slots[key] == slot {
		delete(p.slots, key)
	}
}

// Len devolve quantas chaves têm slot ativo (útil em testes).
func (p *KeyedChanPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}
