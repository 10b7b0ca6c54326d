package infra

import (
	"context"
	"sync"

	"authgate/middleware/gate/domain"
)

type Counters struct {
	Allowed  int64
	Denied   int64
	Bypassed int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     Counters
	byRoute   map[string]Counters
	byReason  map[domain.Reason]int64
	bySubject map[string]Counters

	trackSubjects bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackSubjects(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackSubjects = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute:   make(map[string]Counters),
		byReason:  make(map[domain.Reason]int64),
		bySubject: make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bump(c Counters, ev domain.StatsEvent) Counters {
	if ev.Allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
	if ev.Bypassed {
		c.Bypassed++
	}
	return c
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Route

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = bump(s.total, ev)
	s.byRoute[route] = bump(s.byRoute[route], ev)
	if !ev.Allowed {
		s.byReason[ev.Reason]++
	}
	if s.trackSubjects {
		s.bySubject[ev.Subject] = bump(s.bySubject[ev.Subject], ev)
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByRoute() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byRoute))
	for k, v := range s.byRoute {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByReason() map[domain.Reason]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Reason]int64, len(s.byReason))
	for k, v := range s.byReason {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) BySubject() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.bySubject))
	for k, v := range s.bySubject {
		out[k] = v
	}
	return out
}
