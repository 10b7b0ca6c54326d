package domain

import (
	"context"
	"errors"
)

// ErrInvalidSession indica token ausente, malformado, expirado ou com assinatura inválida.
var ErrInvalidSession = errors.New("invalid session token")

// SessionResolver transforma o token de sessão em um Caller autenticado.
// A resolução de sessão é upstream do gate; esta é só a fronteira.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (Caller, error)
}
