package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRaceLost indica que outra escrita alterou o contador entre leitura e escrita.
	ErrRaceLost = errors.New("rate limit update lost a concurrent write race")

	// ErrCacheClosed é devolvido por operações em um store já fechado.
	ErrCacheClosed = errors.New("cache store closed")
)

// ConnectionError indica que o cache está inacessível (rede ou autenticação).
// Na inicialização é fatal: sem contadores duráveis não há rate limit.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cache connection to %s failed: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

func IsRaceLost(err error) bool {
	return errors.Is(err, ErrRaceLost)
}
