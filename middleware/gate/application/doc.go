// Package application contém os casos de uso do gate (regras puras + orquestração),
// dependendo apenas de contratos do pacote domain.
//
//   - Tracker: janela de rate limit por (subject, método, rota) sobre o CacheStore
//   - CheckFlags / Authorizer: política de acesso e bypass
//   - KeyLocker: exclusividade por chave com timeout
//   - Sweeper: limpeza periódica do cache preservando os contadores
package application
