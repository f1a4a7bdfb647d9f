package revision

import (
	"errors"
	"testing"
	"time"

	"github.com/syllascan/syllascan/document"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    document.RecommendationStatus
		to      document.RecommendationStatus
		comment string
		wantErr error
	}{
		{
			name: "pending to accepted",
			from: document.RecommendationPending,
			to:   document.RecommendationAccepted,
		},
		{
			name: "pending to rejected",
			from: document.RecommendationPending,
			to:   document.RecommendationRejected,
		},
		{
			name:    "pending to commented with comment",
			from:    document.RecommendationPending,
			to:      document.RecommendationCommented,
			comment: "I disagree with the premise.",
		},
		{
			name:    "commented requires comment",
			from:    document.RecommendationPending,
			to:      document.RecommendationCommented,
			wantErr: document.ErrInvalidInput,
		},
		{
			name:    "pending is not a valid target",
			from:    document.RecommendationAccepted,
			to:      document.RecommendationPending,
			wantErr: document.ErrInvalidTransition,
		},
		{
			name:    "unknown target",
			from:    document.RecommendationPending,
			to:      document.RecommendationStatus("archived"),
			wantErr: document.ErrInvalidTransition,
		},
		{
			name: "re-transition is permitted",
			from: document.RecommendationAccepted,
			to:   document.RecommendationRejected,
		},
		{
			name:    "re-commenting is permitted",
			from:    document.RecommendationCommented,
			to:      document.RecommendationCommented,
			comment: "Second thought.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := document.NewRecommendation("structure", "Add a schedule", "Weekly topics are missing.", document.PriorityHigh)
			rec.Status = tt.from

			got, err := Transition(rec, tt.to, tt.comment)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				if got.Status != tt.from {
					t.Errorf("failed transition changed status to %s", got.Status)
				}
				return
			}

			if err != nil {
				t.Fatalf("Transition: %v", err)
			}
			if got.Status != tt.to {
				t.Errorf("status = %s, want %s", got.Status, tt.to)
			}
			if got.RespondedAt == nil {
				t.Error("RespondedAt not set")
			}
			if tt.to == document.RecommendationCommented && got.InstructorComment != tt.comment {
				t.Errorf("comment = %q, want %q", got.InstructorComment, tt.comment)
			}
		})
	}
}

func TestTransitionOverwritesRespondedAt(t *testing.T) {
	rec := document.NewRecommendation("structure", "Add a schedule", "Weekly topics are missing.", document.PriorityHigh)

	first, err := Transition(rec, document.RecommendationAccepted, "")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	earlier := first.RespondedAt.Add(-time.Hour)
	first.RespondedAt = &earlier

	second, err := Transition(first, document.RecommendationRejected, "")
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if !second.RespondedAt.After(earlier) {
		t.Error("re-transition did not overwrite RespondedAt")
	}
}

func TestTimeline(t *testing.T) {
	now := time.Now().UTC()

	older := document.NewRecommendation("a", "first created", "", document.PriorityLow)
	older.CreatedAt = now.Add(-3 * time.Hour)

	responded := document.NewRecommendation("b", "responded recently", "", document.PriorityLow)
	responded.CreatedAt = now.Add(-2 * time.Hour)
	respondedAt := now.Add(-time.Minute)
	responded.RespondedAt = &respondedAt

	newest := document.NewRecommendation("c", "created last", "", document.PriorityLow)
	newest.CreatedAt = now.Add(-time.Hour)

	ordered := Timeline([]document.Recommendation{responded, newest, older})

	wantTitles := []string{"first created", "created last", "responded recently"}
	for i, want := range wantTitles {
		if ordered[i].Title != want {
			t.Errorf("position %d = %q, want %q", i, ordered[i].Title, want)
		}
	}
}
