package gate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"authgate/middleware/gate/domain"
)

// Authorizer é o que o middleware precisa da camada application.
type Authorizer interface {
	Authorize(ctx context.Context, caller domain.Caller, route domain.Route) (domain.Verdict, error)
}

type Options struct {
	Authorizer Authorizer
	Route      domain.Route
	CallerFn   CallerFunc
	Logger     *slog.Logger
	// AddRateLimitHeaders escreve X-RateLimit-* quando o tracker foi consultado.
	AddRateLimitHeaders bool
	// ForwardCaller escreve X-Gate-Subject/X-Gate-Flags na requisição repassada.
	ForwardCaller bool
	Now           func() time.Time
}

// Middleware aplica a política da rota antes do handler.
// Rota inválida ou Authorizer ausente é erro de programação: panic no registro.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if err := opts.Route.Validate(); err != nil {
		panic("gate: " + err.Error())
	}
	if opts.Authorizer == nil {
		panic("gate: nil Authorizer for " + opts.Route.Method + " " + opts.Route.Pattern)
	}
	if opts.CallerFn == nil {
		opts.CallerFn = DefaultCallerFunc(nil, "", "")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	route := opts.Route
	log := opts.Logger.With("method", route.Method, "route", route.Pattern)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// X-Gate-* só pode vir do próprio gate
			r.Header.Del(HeaderSubject)
			r.Header.Del(HeaderFlags)

			caller, err := opts.CallerFn(r)
			if err != nil {
				log.Error("caller resolution failed", "err", err)
				writeError(w, cacheUnavailableSpec.status, ErrorPayload{
					Type: ErrorCacheUnavailable, Code: cacheUnavailableSpec.code,
				})
				return
			}

			v, err := opts.Authorizer.Authorize(r.Context(), caller, route)
			if err != nil {
				log.Error("authorization failed", "subject", caller.Subject(), "err", err)
				writeError(w, cacheUnavailableSpec.status, ErrorPayload{
					Type: ErrorCacheUnavailable, Code: cacheUnavailableSpec.code,
				})
				return
			}

			if opts.AddRateLimitHeaders {
				setRateLimitHeaders(w.Header(), route.Rate.Requests, v.RateLimit, opts.Now())
			}

			if !v.Allowed {
				log.Debug("request denied", "subject", caller.Subject(), "reason", v.Reason, "detail", v.Detail)
				if v.Reason == domain.ReasonRateLimited {
					w.Header().Set("Retry-After", formatInt(retryAfterSeconds(v.RetryAfter)))
				}
				status, payload := PayloadFor(v)
				writeError(w, status, payload)
				return
			}

			if opts.ForwardCaller {
				r.Header.Set(HeaderSubject, caller.Subject())
				r.Header.Set(HeaderFlags, formatUint(uint64(caller.Flags)))
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

func setRateLimitHeaders(h http.Header, req domain.RequestOptions, obj *domain.RateLimitObject, now time.Time) {
	if obj == nil || !req.Enabled() {
		return
	}
	remaining := req.Max - obj.Increment
	if remaining < 0 {
		remaining = 0
	}
	h.Set("X-RateLimit-Limit", formatInt(req.Max))
	h.Set("X-RateLimit-Remaining", formatInt(remaining))
	h.Set("X-RateLimit-Reset-After", formatSeconds(obj.RetryAfter(now, req.Reset)))
}
