package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"authgate/middleware/gate/domain"
)

// Authorizer decide, por requisição, se o caller passa pela política da rota.
//
// Ordem: sessão, categoria, flags vetadas, flags exigidas, bypass, rate limit.
// Negações de política são valores (Verdict); o erro fica reservado para
// falha do cache.
type Authorizer struct {
	Tracker RateTracker
	// OnDecision recebe um evento por veredito (nil => ignorado).
	OnDecision func(ctx context.Context, ev domain.StatsEvent)
	Now        func() time.Time
}

func NewAuthorizer(tracker RateTracker) *Authorizer {
	return &Authorizer{Tracker: tracker}
}

func (a *Authorizer) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Authorizer) Authorize(ctx context.Context, caller domain.Caller, route domain.Route) (domain.Verdict, error) {
	now := a.now()

	v, err := a.decide(ctx, caller, route, now)
	if err != nil {
		return v, err
	}

	if a.OnDecision != nil {
		a.OnDecision(ctx, domain.NewStatsEvent(caller, route, v, now))
	}
	return v, nil
}

func (a *Authorizer) decide(ctx context.Context, caller domain.Caller, route domain.Route, now time.Time) (domain.Verdict, error) {
	if v, ok := checkAccess(caller, route.Access, caller.LoggedIn(now)); !ok {
		return v, nil
	}

	if CheckFlags(caller.Flags, route.Rate.Flags) {
		v := domain.Allow()
		v.Bypassed = true
		return v, nil
	}

	if !route.Rate.Requests.Enabled() {
		return domain.Allow(), nil
	}
	if a.Tracker == nil {
		return domain.Verdict{}, errors.New("authorizer has no rate tracker")
	}

	dec, err := a.Tracker.Evaluate(ctx, caller.Subject(), route.Method, route.Pattern, route.Rate)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("rate limit %s %s: %w", route.Method, route.Pattern, err)
	}

	if !dec.Allowed {
		v := domain.Deny(domain.ReasonRateLimited, fmt.Sprintf("retry after %dms", dec.RetryAfter.Milliseconds()))
		v.RetryAfter = dec.RetryAfter
		v.RateLimit = dec.Object
		return v, nil
	}

	v := domain.Allow()
	v.RateLimit = dec.Object
	return v, nil
}
