package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (tipos/janela) sem dependência de net/http nem do cache concreto.

import (
	"strings"
	"time"
)

const (
	// RateLimitNamespace é o prefixo das chaves de rate limit no cache.
	// A limpeza periódica (ClearExcept) preserva tudo que começa com ele.
	RateLimitNamespace = "ratelimits"

	// MaxRequestHistory limita o histórico de resets guardado em RateLimitObject.Requests.
	MaxRequestHistory = 10

	// MaxObjectTTL é o teto de TTL quando a rota não define janela.
	MaxObjectTTL = 24 * time.Hour
)

type Key string

// RateLimitKey monta a chave de cache para (subject, método, padrão da rota).
// O método é normalizado em maiúsculas: "put" e "PUT" compartilham o contador.
func RateLimitKey(subject, method, regex string) Key {
	return Key(RateLimitNamespace + ":" + subject + ":" + strings.ToUpper(method) + ":" + regex)
}

// RequestEntry é um evento de reset de janela: quando ocorreu e quantas
// requisições a janela anterior acumulou.
type RequestEntry struct {
	Date      int64 `json:"date"`
	Increment int   `json:"increment"`
}

// RateLimitObject é o estado de rate limit de um subject para um par rota/método.
//
// LastRequest marca o início da janela corrente (ms desde epoch): só muda na
// criação e no reset, nunca em incrementos.
type RateLimitObject struct {
	ID          string         `json:"id"`
	Method      string         `json:"method"`
	Regex       string         `json:"regex"`
	Increment   int            `json:"increment"`
	LastRequest int64          `json:"lastRequest"`
	Requests    []RequestEntry `json:"requests"`
}

// NewRateLimitObject cria o objeto zerado de um subject que ainda não tem estado.
func NewRateLimitObject(subject, method, regex string, now time.Time) *RateLimitObject {
	return &RateLimitObject{
		ID:          subject,
		Method:      strings.ToUpper(method),
		Regex:       regex,
		LastRequest: now.UnixMilli(),
		Requests:    []RequestEntry{},
	}
}

// WindowElapsed informa se a janela corrente já terminou em now.
func (o *RateLimitObject) WindowElapsed(now time.Time, reset time.Duration) bool {
	return now.UnixMilli()-o.LastRequest >= reset.Milliseconds()
}

// ResetWindow abre uma nova janela em now, registrando o incremento anterior no histórico.
func (o *RateLimitObject) ResetWindow(now time.Time) {
	ms := now.UnixMilli()
	o.Requests = append(o.Requests, RequestEntry{Date: ms, Increment: o.Increment})
	if extra := len(o.Requests) - MaxRequestHistory; extra > 0 {
		o.Requests = append([]RequestEntry(nil), o.Requests[extra:]...)
	}
	o.Increment = 0
	if ms > o.LastRequest {
		o.LastRequest = ms
	}
}

// RetryAfter é quanto falta para a janela corrente terminar (nunca negativo).
func (o *RateLimitObject) RetryAfter(now time.Time, reset time.Duration) time.Duration {
	left := reset.Milliseconds() - (now.UnixMilli() - o.LastRequest)
	if left < 0 {
		left = 0
	}
	return time.Duration(left) * time.Millisecond
}

// RequestOptions define o orçamento de uma rota: Max requisições a cada Reset.
type RequestOptions struct {
	Max   int
	Reset time.Duration
}

// Enabled é falso quando Max ou Reset não foram definidos: rate limit desligado.
func (r RequestOptions) Enabled() bool {
	return r.Max > 0 && r.Reset > 0
}

// FlagOption diz que quem tem Flag no bitmask pula o rate limit quando Bypass é true.
type FlagOption struct {
	Flag   Flags
	Bypass bool
}

// Options é a política de rate limit declarada por rota.
type Options struct {
	Requests RequestOptions
	Flags    []FlagOption
}

type Decision struct {
	Allowed bool
	// RetryAfter é o tempo até a janela reabrir quando bloqueado.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
	// Object é o estado após a avaliação (nil quando o rate limit está desligado).
	Object *RateLimitObject
}
