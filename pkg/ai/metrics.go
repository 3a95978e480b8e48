package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of AI generation requests",
	}, []string{"provider"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of AI generation failures by kind",
	}, []string{"provider", "kind"})

	aiRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "ai",
		Name:      "request_retries_total",
		Help:      "Number of retried AI generation attempts",
	}, []string{"provider"})
)

func recordFailure(provider string, err error) {
	kind := "permanent"
	if IsTransient(err) {
		kind = "transient"
	}
	aiFailures.WithLabelValues(provider, kind).Inc()
}
