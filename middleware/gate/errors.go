package gate

import (
	"encoding/json"
	"net/http"

	"authgate/middleware/gate/domain"
)

// Tipos de erro além dos motivos de negação do domínio.
const (
	ErrorRouteNotFound    = "RouteNotFound"
	ErrorCacheUnavailable = "CacheUnavailable"
)

// ErrorPayload é o corpo JSON de toda resposta de erro do gate.
type ErrorPayload struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	// RetryAfter em milissegundos, só para RateLimited.
	RetryAfter int64 `json:"retry_after,omitempty"`
}

type errorSpec struct {
	status int
	code   int
}

var reasonSpecs = map[domain.Reason]errorSpec{
	domain.ReasonNotAuthenticated:   {http.StatusUnauthorized, 4001},
	domain.ReasonWrongRequesterType: {http.StatusForbidden, 4002},
	domain.ReasonFlagDisallowed:     {http.StatusForbidden, 4003},
	domain.ReasonMissingFlag:        {http.StatusForbidden, 4004},
	domain.ReasonRateLimited:        {http.StatusTooManyRequests, 4029},
}

var (
	routeNotFoundSpec    = errorSpec{http.StatusNotFound, 4040}
	cacheUnavailableSpec = errorSpec{http.StatusServiceUnavailable, 5030}
)

// StatusFor devolve o status HTTP e o código numérico de um motivo de negação.
// Motivo desconhecido vira 403.
func StatusFor(reason domain.Reason) (status, code int) {
	if s, ok := reasonSpecs[reason]; ok {
		return s.status, s.code
	}
	return http.StatusForbidden, 4000
}

// PayloadFor monta o corpo de erro de um veredito negado.
func PayloadFor(v domain.Verdict) (int, ErrorPayload) {
	status, code := StatusFor(v.Reason)
	p := ErrorPayload{Type: string(v.Reason), Code: code, Message: v.Detail}
	if v.Reason == domain.ReasonRateLimited {
		p.RetryAfter = v.RetryAfterMs()
	}
	return status, p
}

func writeError(w http.ResponseWriter, status int, p ErrorPayload) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

// NotFound responde o payload RouteNotFound; usado como fallback do router.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, routeNotFoundSpec.status, ErrorPayload{
			Type:    ErrorRouteNotFound,
			Code:    routeNotFoundSpec.code,
			Message: r.Method + " " + r.URL.Path,
		})
	})
}
