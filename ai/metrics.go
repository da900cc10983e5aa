package ai

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "neurodvach_ai_generations_total",
			Help: "Total number of AI generation calls by credential source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "neurodvach_ai_generation_duration_seconds",
			Help:    "Duration of AI backend calls in seconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
		[]string{"model"},
	)

	repliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "neurodvach_ai_replies_total",
			Help: "Total number of AI replies handed out for publishing, placeholders included.",
		},
	)
)
