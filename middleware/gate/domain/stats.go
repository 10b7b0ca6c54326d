package domain

import (
	"context"
	"time"
)

// StatsEvent representa uma decisão do gate.
//
// Ele é propositalmente "agnóstico de HTTP": Method/Route são strings genéricas.
// Route é o padrão registrado (ex: /v1/users/{id}/block), não o path concreto,
// para manter a cardinalidade sob controle.
type StatsEvent struct {
	Subject  string
	Allowed  bool
	Reason   Reason
	Bypassed bool

	Method string
	Route  string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do gate.
//
// Implementações podem armazenar em Redis, Prometheus, memória, etc.
// Quem chama deve tratar erro como best-effort (não derrubar request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

// NewStatsEvent monta o evento de uma decisão para a rota.
func NewStatsEvent(caller Caller, route Route, v Verdict, at time.Time) StatsEvent {
	return StatsEvent{
		Subject:  caller.Subject(),
		Allowed:  v.Allowed,
		Reason:   v.Reason,
		Bypassed: v.Bypassed,
		Method:   route.Method,
		Route:    route.Pattern,
		At:       at,
	}
}
