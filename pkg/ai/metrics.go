package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talentflow",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of hosted model requests",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40},
	}, []string{"provider", "operation", "model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentflow",
		Subsystem: "ai",
		Name:      "request_failures_total",
		Help:      "Number of failed hosted model requests",
	}, []string{"provider", "operation", "model"})
)
