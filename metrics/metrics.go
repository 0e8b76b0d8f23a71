package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LeadRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadlens_requests_total",
			Help: "Total number of lead analyses by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	LeadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadlens_generation_duration_seconds",
			Help:    "Duration of Gemini generations in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"mode"},
	)

	LeadsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadlens_requests_in_flight",
			Help: "Number of lead analyses waiting on Gemini",
		},
		[]string{"mode"},
	)

	CitationsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadlens_citations_total",
			Help: "Grounding citations returned by kind",
		},
		[]string{"kind"},
	)

	DictationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadlens_dictation_requests_total",
			Help: "Server-side dictation requests by outcome",
		},
		[]string{"outcome"},
	)
)
