package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	// outcome is one of accepted, rate_limited, body_too_large,
	// missing_fields, invalid_type, invalid_email, invalid_length,
	// delivery_failed, unexpected_error.
	SubmissionsTotal = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome",
		},
		[]string{"outcome"},
	)

	RateLimitedTotal = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "contact_rate_limited_total",
			Help: "Submissions refused because the client used its quota",
		},
	)

	DeliveryDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contact_delivery_duration_seconds",
			Help:    "Time spent handing a message to the email provider",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "result"},
	)

	LedgerKeys = promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "contact_ledger_keys",
			Help: "Client identifiers tracked by the in-memory rate-limit ledger",
		},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
