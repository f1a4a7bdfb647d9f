package revision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
	"github.com/syllascan/syllascan/metrics"
	"github.com/syllascan/syllascan/model"
)

// supplementaryCategory tags recommendations distilled from a challenge
// dialogue.
const supplementaryCategory = "practicality"

// finalizeReplyWindow is how many trailing AI replies the finalize summary
// considers.
const finalizeReplyWindow = 3

// maxSupplementary bounds recommendations distilled per dialogue round.
const maxSupplementary = 3

// maxSummaryRecommendations bounds recommendations produced at finalize.
const maxSummaryRecommendations = 6

// ChallengeManager drives the multi-round challenge dialogue attached to a
// document. All state lives on the document; the manager is stateless.
type ChallengeManager struct {
	store  document.Store
	llm    Completer
	logger *slog.Logger
}

// NewChallengeManager creates a challenge dialogue manager.
func NewChallengeManager(store document.Store, client Completer, logger *slog.Logger) *ChallengeManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChallengeManager{store: store, llm: client, logger: logger}
}

// Open starts a challenge dialogue: it poses the opening question and stores
// the dialogue in the pending state, waiting for the instructor's first
// response. Opening a dialogue on a document that already has one returns
// ErrInvalidTransition.
func (m *ChallengeManager) Open(ctx context.Context, docID string) (*document.ChallengeState, error) {
	doc, err := m.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	if doc.Challenge != nil {
		return nil, fmt.Errorf("challenge already open for document %s: %w", docID, document.ErrInvalidTransition)
	}

	resp, err := m.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("challenge")),
		Messages: []llm.Message{
			{Role: "system", Content: challengeQuestionSystemPrompt},
			{Role: "user", Content: clipText(doc.Text, 6000)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate opening question: %w", err)
	}

	doc.Challenge = &document.ChallengeState{
		InitialQuestion: resp.Content,
		Status:          document.ChallengePending,
	}

	if err := m.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist challenge: %w", err)
	}

	m.logger.Info("Challenge opened", "document_id", docID)
	return doc.Challenge, nil
}

// Respond records an instructor response, generates the counter-reply and
// appends the exchange as a new round. The first response moves the dialogue
// from pending to in-progress. From the second exchange onward each round
// also distills 1-3 supplementary recommendations from the discussion.
// Responding to a completed dialogue returns ErrInvalidTransition.
func (m *ChallengeManager) Respond(ctx context.Context, docID, instructorResponse string) (*document.ChallengeState, error) {
	if instructorResponse == "" {
		return nil, fmt.Errorf("instructor response is empty: %w", document.ErrInvalidInput)
	}

	doc, err := m.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	challenge := doc.Challenge
	if challenge == nil {
		return nil, fmt.Errorf("no challenge open for document %s: %w", docID, document.ErrNotFound)
	}
	if challenge.Status == document.ChallengeCompleted {
		return nil, fmt.Errorf("challenge is completed: %w", document.ErrInvalidTransition)
	}

	resp, err := m.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("challenge")),
		Messages: []llm.Message{
			{Role: "system", Content: challengeReplySystemPrompt},
			{Role: "user", Content: BuildChallengeReplyPrompt(doc.Text, challenge, instructorResponse)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate challenge reply: %w", err)
	}

	// The first exchange just establishes the dialogue; distillation needs
	// at least one prior round of discussion to draw on.
	distill := len(challenge.Discussion) >= 1

	challenge.Discussion = append(challenge.Discussion, document.DiscussionRound{
		InstructorResponse: instructorResponse,
		AIResponse:         resp.Content,
		RespondedAt:        time.Now().UTC(),
	})
	challenge.Status = document.ChallengeInProgress

	if distill {
		recs, distillErr := m.distillRecommendations(ctx, challenge)
		if distillErr != nil {
			m.logger.Warn("Failed to distill supplementary recommendations",
				"document_id", docID,
				"error", distillErr)
		} else {
			doc.Recommendations = append(doc.Recommendations, recs...)
		}
	}

	if err := m.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist challenge round: %w", err)
	}

	metrics.ChallengeRounds.Inc()
	m.logger.Info("Challenge round recorded",
		"document_id", docID,
		"rounds", len(challenge.Discussion))

	return challenge, nil
}

// Finalize closes the dialogue unconditionally. If the document holds no
// recommendations at all, the trailing AI replies are summarized into a
// compact recommendation set so the dialogue's findings are not lost.
func (m *ChallengeManager) Finalize(ctx context.Context, docID string) (*document.ChallengeState, error) {
	doc, err := m.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	challenge := doc.Challenge
	if challenge == nil {
		return nil, fmt.Errorf("no challenge open for document %s: %w", docID, document.ErrNotFound)
	}

	if len(doc.Recommendations) == 0 {
		replies := lastReplies(challenge, finalizeReplyWindow)
		if len(replies) > 0 {
			recs, sumErr := m.summarizeRecommendations(ctx, replies)
			if sumErr != nil {
				m.logger.Warn("Failed to summarize challenge outcome",
					"document_id", docID,
					"error", sumErr)
			} else {
				doc.Recommendations = append(doc.Recommendations, recs...)
			}
		}
	}

	challenge.Status = document.ChallengeCompleted

	if err := m.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist challenge completion: %w", err)
	}

	m.logger.Info("Challenge finalized",
		"document_id", docID,
		"rounds", len(challenge.Discussion),
		"recommendations", len(doc.Recommendations))

	return challenge, nil
}

// distillRecommendations extracts supplementary recommendations from the
// discussion so far.
func (m *ChallengeManager) distillRecommendations(ctx context.Context, challenge *document.ChallengeState) ([]document.Recommendation, error) {
	resp, err := m.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("challenge")),
		Messages: []llm.Message{
			{Role: "system", Content: distillSystemPrompt},
			{Role: "user", Content: BuildDistillPrompt(challenge)},
		},
	})
	if err != nil {
		return nil, err
	}

	return ParseRecommendations(resp.Content, supplementaryCategory, maxSupplementary)
}

// summarizeRecommendations turns the reviewer's final remarks into a compact
// recommendation set at finalize time.
func (m *ChallengeManager) summarizeRecommendations(ctx context.Context, replies []string) ([]document.Recommendation, error) {
	resp, err := m.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("challenge")),
		Messages: []llm.Message{
			{Role: "system", Content: summarizeSystemPrompt},
			{Role: "user", Content: BuildSummarizePrompt(replies)},
		},
	})
	if err != nil {
		return nil, err
	}

	return ParseRecommendations(resp.Content, supplementaryCategory, maxSummaryRecommendations)
}

// lastReplies returns up to n trailing AI replies, oldest first.
func lastReplies(challenge *document.ChallengeState, n int) []string {
	rounds := challenge.Discussion
	if len(rounds) > n {
		rounds = rounds[len(rounds)-n:]
	}

	replies := make([]string, 0, len(rounds))
	for _, round := range rounds {
		if round.AIResponse != "" {
			replies = append(replies, round.AIResponse)
		}
	}
	return replies
}
