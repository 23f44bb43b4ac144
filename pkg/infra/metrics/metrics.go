package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors for the external API gateway. Registered on the default
// registry and exposed through the metrics server.
var (
	ExternalAPICalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "configcore_external_api_calls_total",
		Help: "Outbound external API calls by integration kind and outcome.",
	}, []string{"kind", "outcome"})

	ExternalAPIRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "configcore_external_api_retries_total",
		Help: "Retry attempts issued by the external API gateway.",
	})

	ExternalAPIDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "configcore_external_api_duration_seconds",
		Help:    "Latency of outbound external API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	ConfigurationsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "configcore_configurations_saved_total",
		Help: "Configurations persisted successfully.",
	})
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)
