package main

import (
	"net/http"
	"time"

	"authgate/middleware/gate/domain"
)

// staffBypass: staff nunca é limitado por rate limit (mas continua sujeito a flags vetadas).
var staffBypass = []domain.FlagOption{{Flag: domain.FlagStaff, Bypass: true}}

func budget(max int, reset time.Duration) domain.Options {
	return domain.Options{
		Requests: domain.RequestOptions{Max: max, Reset: reset},
		Flags:    staffBypass,
	}
}

// apiRoutes é a tabela de rotas protegidas pelo gateway.
func apiRoutes() []domain.Route {
	return []domain.Route{
		{
			Method:  http.MethodPost,
			Pattern: "/auth/register",
			Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedOut, AllowedRequesters: domain.RequesterUser},
			Rate:    budget(5, time.Hour),
		},
		{
			Method:  http.MethodGet,
			Pattern: "/auth/logout",
			Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedIn, AllowedRequesters: domain.RequesterUser},
			Rate:    budget(10, time.Minute),
		},
		{
			// validação de e-mail chega sem sessão: sem política de acesso
			Method:  http.MethodPost,
			Pattern: "/auth/verify/validate",
			Rate:    budget(10, 10*time.Minute),
		},
		{
			Method:  http.MethodPut,
			Pattern: "/v1/users/@me/disable",
			Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedIn, AllowedRequesters: domain.RequesterAll},
			Rate:    budget(3, time.Hour),
		},
		{
			Method:  http.MethodPut,
			Pattern: "/v1/users/{id}/block",
			Access: domain.AccessPolicy{
				AccessType:        domain.AccessLoggedIn,
				AllowedRequesters: domain.RequesterUser,
				DisallowedFlags:   domain.MustParseFlags("FriendBan"),
			},
			Rate: budget(5, 10*time.Second),
		},
		{
			Method:  http.MethodGet,
			Pattern: "/v1/guilds/{id}/cowners",
			Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedIn, AllowedRequesters: domain.RequesterUser},
			Rate:    budget(30, time.Minute),
		},
		{
			Method:  http.MethodDelete,
			Pattern: "/v1/guilds/{id}/invites/purge",
			Access:  domain.AccessPolicy{AccessType: domain.AccessLoggedIn, AllowedRequesters: domain.RequesterAll},
			Rate:    budget(2, time.Minute),
		},
	}
}
