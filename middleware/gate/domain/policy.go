package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccessType diz se a rota exige, proíbe ou ignora sessão autenticada.
type AccessType string

const (
	AccessAll       AccessType = "All"
	AccessLoggedIn  AccessType = "LoggedIn"
	AccessLoggedOut AccessType = "LoggedOut"
)

// RequesterType restringe a categoria de quem chama.
type RequesterType string

const (
	RequesterAll  RequesterType = "All"
	RequesterBot  RequesterType = "Bot"
	RequesterUser RequesterType = "User"
)

// AccessPolicy é a declaração de acesso de uma rota.
//
// Flags são exigidas (todas); DisallowedFlags vetam (qualquer uma) e o veto
// vale mesmo quando o caller tem flag de bypass de rate limit.
type AccessPolicy struct {
	AccessType        AccessType
	AllowedRequesters RequesterType
	Flags             Flags
	DisallowedFlags   Flags
}

// Route junta método, padrão e as duas políticas. É declarada uma vez no
// registro da rota e nunca alterada por requisição.
type Route struct {
	Method  string
	Pattern string
	Access  AccessPolicy
	Rate    Options
}

// Validate confere a declaração da rota. Erro aqui é bug de registro.
func (r Route) Validate() error {
	if strings.TrimSpace(r.Method) == "" {
		return fmt.Errorf("route %q: empty method", r.Pattern)
	}
	if !strings.HasPrefix(r.Pattern, "/") {
		return fmt.Errorf("route %s %q: pattern must start with /", r.Method, r.Pattern)
	}
	switch r.Access.AccessType {
	case "", AccessAll, AccessLoggedIn, AccessLoggedOut:
	default:
		return fmt.Errorf("route %s %s: unknown access type %q", r.Method, r.Pattern, r.Access.AccessType)
	}
	switch r.Access.AllowedRequesters {
	case "", RequesterAll, RequesterBot, RequesterUser:
	default:
		return fmt.Errorf("route %s %s: unknown requester type %q", r.Method, r.Pattern, r.Access.AllowedRequesters)
	}
	if r.Access.Flags&r.Access.DisallowedFlags != 0 {
		return fmt.Errorf("route %s %s: flags %s both required and disallowed", r.Method, r.Pattern, r.Access.Flags&r.Access.DisallowedFlags)
	}
	if r.Rate.Requests.Max < 0 || r.Rate.Requests.Reset < 0 {
		return fmt.Errorf("route %s %s: negative rate limit", r.Method, r.Pattern)
	}
	return nil
}

// Caller é o resultado da resolução de sessão feita antes do gate.
type Caller struct {
	ID            string
	SessionID     string
	Authenticated bool
	ExpiresAt     time.Time
	Requester     RequesterType
	Flags         Flags
}

// LoggedIn informa se há sessão resolvida e não expirada em now.
// ExpiresAt zero significa sessão sem expiração conhecida.
func (c Caller) LoggedIn(now time.Time) bool {
	if !c.Authenticated || c.ID == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

// Subject é a identidade usada nas chaves de rate limit.
func (c Caller) Subject() string {
	if c.Authenticated && c.ID != "" {
		return c.ID
	}
	if c.SessionID != "" {
		return "anon:" + c.SessionID
	}
	return "anon"
}

// Reason é o código estável de negação entregue à camada de borda.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNotAuthenticated   Reason = "NotAuthenticated"
	ReasonWrongRequesterType Reason = "WrongRequesterType"
	ReasonFlagDisallowed     Reason = "FlagDisallowed"
	ReasonMissingFlag        Reason = "MissingFlag"
	ReasonRateLimited        Reason = "RateLimited"
)

// Verdict é a decisão final do gate para uma requisição.
type Verdict struct {
	Allowed bool
	Reason  Reason
	// Detail é texto livre para logs/payload ("already authenticated", flags faltando...).
	Detail     string
	RetryAfter time.Duration
	// Bypassed indica que o rate limit foi pulado por flag.
	Bypassed bool
	// RateLimit é o estado do contador quando o tracker foi consultado.
	RateLimit *RateLimitObject
}

func (v Verdict) RetryAfterMs() int64 { return v.RetryAfter.Milliseconds() }

func Allow() Verdict { return Verdict{Allowed: true} }

func Deny(reason Reason, detail string) Verdict {
	return Verdict{Allowed: false, Reason: reason, Detail: detail}
}
