package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes used as the "outcome" label.
const (
	OutcomeFound      = "found"
	OutcomeNotFound   = "not_found"
	OutcomeInvalid    = "invalid"
	OutcomeNavigation = "navigation_error"
	OutcomeTimeout    = "timeout"
	OutcomeInternal   = "internal_error"
)

// Metrics groups the service collectors on a private registry, so several
// instances (one per test) never collide. A nil *Metrics is a no-op.
type Metrics struct {
	registry *prometheus.Registry

	LookupsTotal     *prometheus.CounterVec
	LookupDuration   prometheus.Histogram
	StatusResolution *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oab_lookups_total",
			Help: "Registry lookups by outcome",
		}, []string{"outcome"}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "oab_lookup_duration_seconds",
			Help:    "End-to-end duration of a registry lookup, browser launch included",
			Buckets: []float64{1, 2.5, 5, 7.5, 10, 15, 20, 30, 60, 120},
		}),
		StatusResolution: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oab_status_resolution_total",
			Help: "Image status resolution attempts by result",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oab_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveLookup(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(outcome).Inc()
	m.LookupDuration.Observe(time.Since(start).Seconds())
}

// IncrementStatusResolution records a status resolver attempt; result is
// "ok" or "failed".
func (m *Metrics) IncrementStatusResolution(result string) {
	if m == nil {
		return
	}
	m.StatusResolution.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
