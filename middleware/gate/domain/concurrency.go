package domain

import "context"

// KeyedSlotPool serializa operações por chave: no máximo um detentor por chave.
//
// A semântica é: Acquire bloqueia até conseguir a vaga da chave ou até o ctx encerrar.
// Ao adquirir, retorna uma função de release que deve ser chamada exatamente uma vez.
// Chaves diferentes nunca se bloqueiam.
type KeyedSlotPool interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool)
}
