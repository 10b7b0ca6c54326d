// Package domain define contratos e tipos de domínio do gate de autorização e rate limit.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Aqui ficam o bitmask de flags, o RateLimitObject persistido no cache,
// as políticas declaradas por rota (AccessPolicy + Options), o Caller
// resolvido pela sessão e o Verdict devolvido ao adapter HTTP.
package domain
