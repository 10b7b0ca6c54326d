package application

import "authgate/middleware/gate/domain"

// CheckFlags informa se o caller pula o rate limit: basta uma entrada com
// Bypass cujo bit esteja presente em callerFlags.
func CheckFlags(callerFlags domain.Flags, options []domain.FlagOption) bool {
	for _, opt := range options {
		if opt.Bypass && callerFlags.Has(opt.Flag) {
			return true
		}
	}
	return false
}

// checkAccess aplica os passos de sessão, categoria e flags da política.
// Devolve ok=false com o veredito de negação do primeiro passo que falhar.
func checkAccess(caller domain.Caller, p domain.AccessPolicy, loggedIn bool) (domain.Verdict, bool) {
	switch p.AccessType {
	case domain.AccessLoggedIn:
		if !loggedIn {
			return domain.Deny(domain.ReasonNotAuthenticated, "session required"), false
		}
	case domain.AccessLoggedOut:
		if loggedIn {
			return domain.Deny(domain.ReasonNotAuthenticated, "already authenticated"), false
		}
	}

	if !requesterAllowed(caller.Requester, p.AllowedRequesters) {
		return domain.Deny(domain.ReasonWrongRequesterType, "requester "+string(requesterOf(caller.Requester))+" not allowed"), false
	}

	if vetoed := caller.Flags & p.DisallowedFlags; vetoed != 0 {
		return domain.Deny(domain.ReasonFlagDisallowed, vetoed.String()), false
	}

	if missing := p.Flags &^ caller.Flags; missing != 0 {
		return domain.Deny(domain.ReasonMissingFlag, missing.String()), false
	}

	return domain.Allow(), true
}

// requesterOf trata caller sem categoria como usuário.
func requesterOf(r domain.RequesterType) domain.RequesterType {
	if r == "" || r == domain.RequesterAll {
		return domain.RequesterUser
	}
	return r
}

func requesterAllowed(r, allowed domain.RequesterType) bool {
	if allowed == "" || allowed == domain.RequesterAll {
		return true
	}
	return requesterOf(r) == allowed
}
