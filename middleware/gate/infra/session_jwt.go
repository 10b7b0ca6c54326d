package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"authgate/middleware/gate/domain"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimSessionID = "sid"
	claimFlags     = "flags"
	claimBot       = "bot"
)

// JWTSessions resolve e emite tokens de sessão HS256.
//
// Claims: sub (id do usuário/bot), sid, flags (bitmask numérico), bot (bool), exp, iss.
type JWTSessions struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type JWTOption func(*JWTSessions)

func WithIssuer(iss string) JWTOption {
	return func(s *JWTSessions) { s.issuer = iss }
}

// WithSessionTTL define a validade dos tokens emitidos por Issue.
func WithSessionTTL(d time.Duration) JWTOption {
	return func(s *JWTSessions) { s.ttl = d }
}

func WithSessionClock(now func() time.Time) JWTOption {
	return func(s *JWTSessions) { s.now = now }
}

var _ domain.SessionResolver = (*JWTSessions)(nil)

func NewJWTSessions(secret string, opts ...JWTOption) (*JWTSessions, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("session secret must have at least 16 bytes")
	}
	s := &JWTSessions{
		key:    []byte(secret),
		issuer: "authgate",
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue assina um token para o caller. Usado por testes e pelo example-server.
func (s *JWTSessions) Issue(c domain.Caller) (string, error) {
	now := s.now()
	exp := c.ExpiresAt
	if exp.IsZero() {
		exp = now.Add(s.ttl)
	}

	tok, err := jwt.NewBuilder().
		Subject(c.ID).
		Issuer(s.issuer).
		IssuedAt(now).
		Expiration(exp).
		Claim(claimSessionID, c.SessionID).
		Claim(claimFlags, uint64(c.Flags)).
		Claim(claimBot, c.Requester == domain.RequesterBot).
		Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, s.key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return string(signed), nil
}

// Resolve valida assinatura, emissor e expiração e devolve o Caller autenticado.
// Qualquer falha vira domain.ErrInvalidSession (embrulhado).
func (s *JWTSessions) Resolve(_ context.Context, token string) (domain.Caller, error) {
	if token == "" {
		return domain.Caller{}, domain.ErrInvalidSession
	}

	parsed, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(jwa.HS256, s.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
	}
	if parsed.Subject() == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing subject", domain.ErrInvalidSession)
	}

	caller := domain.Caller{
		ID:            parsed.Subject(),
		Authenticated: true,
		ExpiresAt:     parsed.Expiration(),
		Requester:     domain.RequesterUser,
	}

	if v, ok := parsed.Get(claimSessionID); ok {
		if sid, ok := v.(string); ok {
			caller.SessionID = sid
		}
	}
	if v, ok := parsed.Get(claimBot); ok {
		if bot, ok := v.(bool); ok && bot {
			caller.Requester = domain.RequesterBot
		}
	}
	if v, ok := parsed.Get(claimFlags); ok {
		flags, err := flagsClaim(v)
		if err != nil {
			return domain.Caller{}, fmt.Errorf("%w: %v", domain.ErrInvalidSession, err)
		}
		caller.Flags = flags
	}

	return caller, nil
}

// flagsClaim aceita os tipos numéricos que o decoder JSON pode produzir.
func flagsClaim(v any) (domain.Flags, error) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("negative flags claim")
		}
		return domain.Flags(n), nil
	case json.Number:
		u, err := n.Int64()
		if err != nil || u < 0 {
			return 0, fmt.Errorf("invalid flags claim %q", n)
		}
		return domain.Flags(u), nil
	case int64:
		return domain.Flags(n), nil
	case uint64:
		return domain.Flags(n), nil
	case int:
		return domain.Flags(n), nil
	default:
		return 0, fmt.Errorf("unsupported flags claim type %T", v)
	}
}
