package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcomes recorded in EventsTotal.
const (
	OutcomeReconstructed = "reconstructed"
	OutcomeSkipped       = "skipped"
	OutcomeFailed        = "failed"
)

var (
	// EventsTotal counts processed events by outcome.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clever_events_total",
		Help: "Events processed by the vertex seeder, by outcome",
	}, []string{"outcome"})

	// StageHits records the working-set size leaving each hit-selection stage.
	StageHits = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clever_stage_hits",
		Help:    "Hits surviving each selection stage",
		Buckets: prometheus.ExponentialBuckets(4, 2, 10),
	}, []string{"stage"})

	// Candidates records the number of merged vertex candidates per event.
	Candidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "clever_candidates",
		Help:    "Vertex candidates emitted per event",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// WindowFallbacks counts events where the combination window search
	// ended on its best observed window instead of an exact match.
	WindowFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clever_window_fallbacks_total",
		Help: "Combination window searches that fell back to the best observed window",
	})

	// DegenerateSolves counts four-hit solves that produced more than one
	// candidate.
	DegenerateSolves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clever_degenerate_solves_total",
		Help: "Four-hit solves with more than one admissible candidate",
	})
)
