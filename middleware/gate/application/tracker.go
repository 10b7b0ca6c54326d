package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"authgate/middleware/gate/domain"
)

// RateTracker é o que o Authorizer precisa do tracker (permite fakes em teste).
type RateTracker interface {
	Evaluate(ctx context.Context, subject, method, regex string, opts domain.Options) (domain.Decision, error)
}

// Tracker concentra a regra de janela do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas carrega, avança e
// persiste o RateLimitObject de (subject, método, rota) no cache.
//
// A leitura-modificação-escrita de uma chave é serializada localmente pelo
// Locker e protegida entre processos pela escrita otimista do cache:
// perdeu a corrida, relê e tenta uma vez; perdeu de novo, nega.
type Tracker struct {
	Cache  domain.CacheStore
	Locker KeyLocker
	// Now é o relógio (nil => time.Now).
	Now func() time.Time
}

var _ RateTracker = (*Tracker)(nil)

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func ttlFor(reset time.Duration) time.Duration {
	if reset <= 0 {
		return domain.MaxObjectTTL
	}
	return reset
}

// Evaluate avalia e, quando permitido, contabiliza a requisição.
func (t *Tracker) Evaluate(ctx context.Context, subject, method, regex string, opts domain.Options) (domain.Decision, error) {
	req := opts.Requests
	if !req.Enabled() {
		return domain.Decision{Allowed: true}, nil
	}
	if t.Cache == nil {
		return domain.Decision{}, errors.New("rate limit tracker has no cache store")
	}

	key := string(domain.RateLimitKey(subject, method, regex))

	release, ok := t.Locker.Acquire(ctx, key)
	if !ok {
		if err := ctx.Err(); err != nil {
			return domain.Decision{}, err
		}
		// não conseguimos exclusividade a tempo: nega em vez de arriscar passar do limite
		return domain.Decision{Allowed: false, RetryAfter: t.Locker.AcquireTimeout}, nil
	}
	defer release()

	var (
		dec domain.Decision
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		dec, err = t.attempt(ctx, key, subject, method, regex, req)
		if !domain.IsRaceLost(err) {
			return dec, err
		}
	}

	// duas derrotas seguidas: falha segura, nega como rate limited
	retry := req.Reset
	if dec.Object != nil {
		retry = dec.Object.RetryAfter(t.now(), req.Reset)
	}
	return domain.Decision{Allowed: false, RetryAfter: retry, Object: dec.Object}, nil
}

func (t *Tracker) attempt(ctx context.Context, key, subject, method, regex string, req domain.RequestOptions) (domain.Decision, error) {
	now := t.now()
	var dec domain.Decision

	err := t.Cache.Update(ctx, key, ttlFor(req.Reset), func(current []byte, found bool) ([]byte, bool, error) {
		obj := decodeObject(current, found, subject, method, regex, now)

		if obj.WindowElapsed(now, req.Reset) {
			obj.ResetWindow(now)
		}

		if obj.Increment >= req.Max {
			dec = domain.Decision{Allowed: false, RetryAfter: obj.RetryAfter(now, req.Reset), Object: obj}
			return nil, false, nil
		}

		obj.Increment++
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, false, fmt.Errorf("encode rate limit object: %w", err)
		}
		dec = domain.Decision{Allowed: true, Object: obj}
		return raw, true, nil
	})
	if err != nil {
		return dec, err
	}
	return dec, nil
}

// decodeObject devolve o objeto armazenado ou um novo zerado.
// Valor ilegível é tratado como ausente: o próximo write o substitui.
func decodeObject(raw []byte, found bool, subject, method, regex string, now time.Time) *domain.RateLimitObject {
	if found {
		var stored domain.RateLimitObject
		if err := json.Unmarshal(raw, &stored); err == nil {
			if stored.Requests == nil {
				stored.Requests = []domain.RequestEntry{}
			}
			return &stored
		}
	}
	return domain.NewRateLimitObject(subject, method, regex, now)
}

// Peek devolve o estado atual sem contabilizar nada (nil quando não há estado).
func (t *Tracker) Peek(ctx context.Context, subject, method, regex string) (*domain.RateLimitObject, error) {
	if t.Cache == nil {
		return nil, errors.New("rate limit tracker has no cache store")
	}
	raw, found, err := t.Cache.Get(ctx, string(domain.RateLimitKey(subject, method, regex)))
	if err != nil || !found {
		return nil, err
	}
	var obj domain.RateLimitObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode rate limit object: %w", err)
	}
	return &obj, nil
}

// Reset apaga o contador de (subject, método, rota).
func (t *Tracker) Reset(ctx context.Context, subject, method, regex string) error {
	if t.Cache == nil {
		return errors.New("rate limit tracker has no cache store")
	}
	return t.Cache.Delete(ctx, string(domain.RateLimitKey(subject, method, regex)))
}
