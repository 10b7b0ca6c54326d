package domain

import (
	"context"
	"time"
)

// UpdateFunc recebe o valor atual (found=false quando a chave não existe) e
// devolve o novo valor. write=false encerra sem gravar nada.
type UpdateFunc func(current []byte, found bool) (next []byte, write bool, err error)

// CacheStore é o key-value remoto (Redis em produção) usado pelo gate.
//
// Nenhuma operação pode engolir falha de conexão: todo erro volta ao chamador.
type CacheStore interface {
	// Connect estabelece a conexão. Falha => *ConnectionError, e o processo deve abortar.
	Connect(ctx context.Context) error

	// Get devolve (valor, true) ou (nil, false) quando a chave não existe.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set grava incondicionalmente. ttl <= 0 grava sem expiração.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Update faz read-modify-write otimista: se a chave mudou entre a leitura e
	// a escrita, nada é gravado e o retorno é ErrRaceLost.
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error

	// ClearExcept remove toda chave que não começa com namespace+":" e devolve
	// as chaves removidas.
	ClearExcept(ctx context.Context, namespace string) ([]string, error)

	Close() error
}
