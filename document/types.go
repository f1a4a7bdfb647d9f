// Package document defines the core data model for syllabus documents and
// provides document storage backed by NATS JetStream KV.
package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of a document.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusAnalyzed   Status = "analyzed"
	StatusReviewed   Status = "reviewed"
	StatusApproved   Status = "approved"
	StatusError      Status = "error"
)

// EditingStatus marks whether a revision is in flight for a document.
// It acts as a per-document mutex enforced via KV compare-and-set.
type EditingStatus string

const (
	EditingIdle       EditingStatus = "idle"
	EditingProcessing EditingStatus = "processing"
)

// RecommendationStatus represents the lifecycle state of a recommendation.
type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationAccepted  RecommendationStatus = "accepted"
	RecommendationRejected  RecommendationStatus = "rejected"
	RecommendationCommented RecommendationStatus = "commented"
)

// IsValid checks if the status is a known recommendation status.
func (s RecommendationStatus) IsValid() bool {
	switch s {
	case RecommendationPending, RecommendationAccepted, RecommendationRejected, RecommendationCommented:
		return true
	}
	return false
}

// Priority represents the urgency of a recommendation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid checks if the priority is a known priority level.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ChallengeStatus represents the state of a challenge dialogue.
type ChallengeStatus string

const (
	ChallengePending    ChallengeStatus = "pending"
	ChallengeInProgress ChallengeStatus = "in-progress"
	ChallengeCompleted  ChallengeStatus = "completed"
)

// Excerpt is a matched passage recorded as similarity evidence.
type Excerpt struct {
	// Text is a context window starting at the matched phrase.
	Text string `json:"text"`

	// Position is the character offset of the phrase in the document text.
	Position int `json:"position"`
}

// SimilarityMatch records an originality overlap against another document.
// Matches are immutable once produced; re-analysis supersedes them.
type SimilarityMatch struct {
	// OtherDocumentID identifies the corpus document matched against.
	OtherDocumentID string `json:"other_document_id"`

	// Score is the similarity percentage, 0-100.
	Score int `json:"score"`

	// Excerpts are evidence passages shared between the two documents.
	Excerpts []Excerpt `json:"excerpts,omitempty"`
}

// Recommendation is a single proposed change to a document with its own
// accept/reject/comment lifecycle. Recommendations are never deleted, only
// superseded by a new status.
type Recommendation struct {
	// ID uniquely identifies this recommendation (format: rec-{uuid}).
	ID string `json:"id"`

	// Category groups recommendations (e.g. "structure", "practicality").
	Category string `json:"category"`

	// Title is a short summary of the proposed change.
	Title string `json:"title"`

	// Description explains the change in full.
	Description string `json:"description"`

	// SuggestedText is optional replacement prose.
	SuggestedText string `json:"suggested_text,omitempty"`

	// Priority indicates how important the change is.
	Priority Priority `json:"priority"`

	// Status is the current lifecycle state.
	Status RecommendationStatus `json:"status"`

	// InstructorComment holds the instructor's comment, if any.
	InstructorComment string `json:"instructor_comment,omitempty"`

	// AIResponse holds the contextual reply to an instructor comment.
	AIResponse string `json:"ai_response,omitempty"`

	// CreatedAt is when the recommendation was generated.
	CreatedAt time.Time `json:"created_at"`

	// RespondedAt is when the instructor last acted on it.
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// NewRecommendation creates a pending recommendation with a generated ID.
func NewRecommendation(category, title, description string, priority Priority) Recommendation {
	if !priority.IsValid() {
		priority = PriorityMedium
	}
	return Recommendation{
		ID:          fmt.Sprintf("rec-%s", uuid.New().String()[:8]),
		Category:    category,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      RecommendationPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// DiscussionRound is one instructor/AI exchange in a challenge dialogue.
type DiscussionRound struct {
	InstructorResponse string    `json:"instructor_response"`
	AIResponse         string    `json:"ai_response"`
	RespondedAt        time.Time `json:"responded_at"`
}

// ChallengeState tracks a bounded multi-round question/response exchange
// tied to a document. Rounds are appended monotonically; the state reaches
// completed only on explicit finalize.
type ChallengeState struct {
	// InitialQuestion is the opening question posed to the instructor.
	InitialQuestion string `json:"initial_question"`

	// Status is the dialogue state.
	Status ChallengeStatus `json:"status"`

	// Discussion holds the exchange rounds in order.
	Discussion []DiscussionRound `json:"discussion,omitempty"`
}

// Document is a syllabus under analysis. The store owns the canonical copy;
// engine components read and write it only through explicit operations.
type Document struct {
	// ID uniquely identifies the document (format: doc-{uuid}).
	ID string `json:"id"`

	// Title is the display title of the syllabus.
	Title string `json:"title,omitempty"`

	// Text is the current canonical body.
	Text string `json:"text"`

	// Status is the document lifecycle status.
	Status Status `json:"status"`

	// EditingStatus guards revision orchestration (see Store.BeginRevision).
	EditingStatus EditingStatus `json:"editing_status"`

	// Fingerprint is the L2-normalized term-frequency vector, nil until analyzed.
	Fingerprint []float64 `json:"fingerprint,omitempty"`

	// SimilarityFindings are ordered highest score first.
	SimilarityFindings []SimilarityMatch `json:"similarity_findings,omitempty"`

	// Recommendations are appended by analysis and the challenge dialogue.
	Recommendations []Recommendation `json:"recommendations,omitempty"`

	// Challenge is the challenge dialogue state, if one was opened.
	Challenge *ChallengeState `json:"challenge,omitempty"`

	// ErrorReason records why the document entered the error status.
	ErrorReason string `json:"error_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDocument creates a document in the processing state.
func NewDocument(title, text string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:            fmt.Sprintf("doc-%s", uuid.New().String()[:8]),
		Title:         title,
		Text:          text,
		Status:        StatusProcessing,
		EditingStatus: EditingIdle,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Recommendation returns the recommendation with the given ID.
func (d *Document) Recommendation(id string) (*Recommendation, bool) {
	for i := range d.Recommendations {
		if d.Recommendations[i].ID == id {
			return &d.Recommendations[i], true
		}
	}
	return nil, false
}

// AcceptedRecommendations returns the recommendations currently accepted.
func (d *Document) AcceptedRecommendations() []Recommendation {
	var accepted []Recommendation
	for _, rec := range d.Recommendations {
		if rec.Status == RecommendationAccepted {
			accepted = append(accepted, rec)
		}
	}
	return accepted
}
