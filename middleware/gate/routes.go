package gate

import (
	"net/http"

	"authgate/middleware/gate/domain"

	"github.com/go-chi/chi/v5"
)

// Mount registra cada rota no router com seu próprio middleware do gate.
// base carrega Authorizer/CallerFn/Logger comuns; base.Route é ignorada.
func Mount(r chi.Router, base Options, routes []domain.Route, h http.Handler) {
	for _, route := range routes {
		opts := base
		opts.Route = route
		r.With(Middleware(opts)).Method(route.Method, route.Pattern, h)
	}
}
