package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

const (
	outcomeParsed   = "parsed"
	outcomeDegraded = "degraded"
	outcomeFallback = "fallback"
	outcomeFailed   = "failed"
)

var (
	tracer = otel.Tracer("github.com/noah-isme/gema-assess-api/internal/service")

	analysisResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gema",
		Subsystem: "analysis",
		Name:      "results_total",
		Help:      "Analysis runs by kind and how their result was produced.",
	}, []string{"analysis", "outcome"})
)
