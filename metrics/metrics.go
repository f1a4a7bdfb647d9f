// Package metrics exposes Prometheus counters for the engine's externally
// visible operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsAnalyzed counts completed analysis runs by outcome.
	DocumentsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syllascan",
		Subsystem: "analysis",
		Name:      "documents_total",
		Help:      "Documents analyzed, by outcome.",
	}, []string{"outcome"})

	// SimilarityMatches counts corpus matches recorded by risk level.
	SimilarityMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syllascan",
		Subsystem: "analysis",
		Name:      "similarity_matches_total",
		Help:      "Similarity matches recorded, by risk level.",
	}, []string{"risk"})

	// Revisions counts revision runs by outcome.
	Revisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syllascan",
		Subsystem: "revision",
		Name:      "runs_total",
		Help:      "Revision runs, by outcome.",
	}, []string{"outcome"})

	// RecommendationDecisions counts instructor decisions by target status.
	RecommendationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "syllascan",
		Subsystem: "revision",
		Name:      "recommendation_decisions_total",
		Help:      "Recommendation lifecycle decisions, by target status.",
	}, []string{"status"})

	// ChallengeRounds counts challenge dialogue exchanges.
	ChallengeRounds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "syllascan",
		Subsystem: "challenge",
		Name:      "rounds_total",
		Help:      "Challenge dialogue rounds recorded.",
	})
)

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)
