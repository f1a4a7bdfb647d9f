// Package revision implements the recommendation lifecycle, the challenge
// dialogue and the orchestration of accepted recommendations into one
// consolidated drafting request.
package revision

import (
	"fmt"
	"sort"
	"time"

	"github.com/syllascan/syllascan/document"
)

// Transition applies an instructor decision to a recommendation and returns
// the updated value. It is a pure transition function: the owning document's
// mutation is the caller's responsibility.
//
// Valid targets are accepted, rejected and commented. Re-transitioning an
// already-resolved recommendation is permitted (re-commenting in particular);
// every transition overwrites RespondedAt.
func Transition(rec document.Recommendation, newStatus document.RecommendationStatus, comment string) (document.Recommendation, error) {
	switch newStatus {
	case document.RecommendationAccepted, document.RecommendationRejected, document.RecommendationCommented:
	default:
		return rec, fmt.Errorf("transition %q -> %q: %w", rec.Status, newStatus, document.ErrInvalidTransition)
	}

	if newStatus == document.RecommendationCommented && comment == "" {
		return rec, fmt.Errorf("comment is required for commented status: %w", document.ErrInvalidInput)
	}

	now := time.Now().UTC()
	rec.Status = newStatus
	rec.RespondedAt = &now
	if newStatus == document.RecommendationCommented {
		rec.InstructorComment = comment
	}

	return rec, nil
}

// Timeline orders recommendations by event time regardless of insertion
// order: responded recommendations sort by RespondedAt, pending ones by
// CreatedAt.
func Timeline(recs []document.Recommendation) []document.Recommendation {
	out := make([]document.Recommendation, len(recs))
	copy(out, recs)

	eventTime := func(r document.Recommendation) time.Time {
		if r.RespondedAt != nil {
			return *r.RespondedAt
		}
		return r.CreatedAt
	}

	sort.SliceStable(out, func(i, j int) bool {
		return eventTime(out[i]).Before(eventTime(out[j]))
	})
	return out
}
