// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisCache: CacheStore sobre Redis (WATCH/MULTI para escrita otimista, SCAN para limpeza)
//   - MemoryCache: CacheStore em memória com TTL e janitor
//   - KeyedChanPool: semáforo de capacidade 1 por chave
//   - MemoryStatsStore / RedisStatsStore / PrometheusStats: estatísticas de decisão
//   - JWTSessions: resolução de sessão a partir de token HS256
package infra
