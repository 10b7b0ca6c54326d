// Package gate fornece o adapter HTTP (net/http + chi) do gate de autorização e rate limit.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (tracker, política de acesso, bypass, limpeza) sem net/http
//   - infra: implementações concretas (Redis, memória, JWT, estatísticas)
//   - gate (este pacote): middleware HTTP + extração do caller + tradução para status/headers
//
// Fluxo por requisição:
//
//  1. Resolve o caller (token de sessão ou sessão anônima por cookie)
//  2. Chama o Authorizer com a rota declarada no registro
//  3. Se negado, responde o payload de erro com código estável (401/403/429)
//  4. Se permitido, repassa o caller (contexto + headers X-Gate-*) e chama o próximo handler
//
// Variáveis de ambiente do binário gateway (cmd/gateway) controlam o comportamento,
// como REDIS_ADDR, SESSION_SECRET, CACHE_CLEAR_INTERVAL e STRICT_ROUTING.
package gate
