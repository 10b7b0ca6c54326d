package gate

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"authgate/middleware/gate/domain"

	"github.com/google/uuid"
)

// CallerFunc resolve quem está chamando. Erro só para falha de infraestrutura:
// token inválido resulta em caller anônimo, não em erro.
type CallerFunc func(r *http.Request) (domain.Caller, error)

const (
	DefaultTokenHeader   = "Authorization"
	DefaultSessionCookie = "gate_sid"

	HeaderSubject = "X-Gate-Subject"
	HeaderFlags   = "X-Gate-Flags"
)

type ctxKey struct{}

func WithCaller(ctx context.Context, c domain.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFromContext devolve o caller que o gate resolveu para a requisição.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(domain.Caller)
	return c, ok
}

// TokenFromRequest lê o token do header (com ou sem prefixo "Bearer ").
func TokenFromRequest(r *http.Request, header string) string {
	if header == "" {
		header = DefaultTokenHeader
	}
	v := strings.TrimSpace(r.Header.Get(header))
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		v = strings.TrimSpace(v[7:])
	}
	return v
}

// DefaultCallerFunc resolve o token via resolver e, sem sessão válida,
// devolve um caller anônimo identificado pelo cookie de sessão (se houver).
func DefaultCallerFunc(resolver domain.SessionResolver, tokenHeader, cookieName string) CallerFunc {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(r *http.Request) (domain.Caller, error) {
		anon := domain.Caller{Requester: domain.RequesterUser}
		if ck, err := r.Cookie(cookieName); err == nil {
			anon.SessionID = ck.Value
		}

		tok := TokenFromRequest(r, tokenHeader)
		if tok == "" || resolver == nil {
			return anon, nil
		}

		c, err := resolver.Resolve(r.Context(), tok)
		if errors.Is(err, domain.ErrInvalidSession) {
			return anon, nil
		}
		if err != nil {
			return domain.Caller{}, err
		}
		return c, nil
	}
}

// SessionCookie garante um id de sessão anônima (UUID) em cookie, para que
// chamadas sem login tenham contador de rate limit próprio.
func SessionCookie(name string, secure bool) func(next http.Handler) http.Handler {
	if name == "" {
		name = DefaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ck, err := r.Cookie(name); err != nil || !validSessionID(ck.Value) {
				ck := &http.Cookie{
					Name:     name,
					Value:    uuid.NewString(),
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				}
				http.SetCookie(w, ck)

				// troca o cookie da requisição para o handler seguinte ver o id novo
				cookies := r.Cookies()
				r = r.Clone(r.Context())
				r.Header.Del("Cookie")
				for _, c := range cookies {
					if c.Name != name {
						r.AddCookie(c)
					}
				}
				r.AddCookie(ck)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validSessionID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}
