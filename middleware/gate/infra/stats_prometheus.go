package infra

import (
	"context"
	"net/http"

	"authgate/middleware/gate/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusStats conta decisões por método, rota, resultado e motivo.
// Subject não vira label: cardinalidade ilimitada.
type PrometheusStats struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	bypassed  *prometheus.CounterVec
}

func NewPrometheusStats(namespace string) (*PrometheusStats, error) {
	reg := prometheus.NewRegistry()

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Authorization and rate limit decisions per route.",
	}, []string{"method", "route", "outcome", "reason"})

	bypassed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_ratelimit_bypass_total",
		Help:      "Requests that skipped rate limiting through a bypass flag.",
	}, []string{"method", "route"})

	for _, c := range []prometheus.Collector{decisions, bypassed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PrometheusStats{registry: reg, decisions: decisions, bypassed: bypassed}, nil
}

func (p *PrometheusStats) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	p.decisions.WithLabelValues(ev.Method, ev.Route, outcome, string(ev.Reason)).Inc()
	if ev.Bypassed {
		p.bypassed.WithLabelValues(ev.Method, ev.Route).Inc()
	}
	return nil
}

func (p *PrometheusStats) Registry() *prometheus.Registry { return p.registry }

// Handler expõe o registry no formato de scrape do Prometheus.
func (p *PrometheusStats) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
