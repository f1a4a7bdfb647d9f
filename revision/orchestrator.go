package revision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
	"github.com/syllascan/syllascan/metrics"
	"github.com/syllascan/syllascan/model"
	"github.com/syllascan/syllascan/textdiff"
)

// Completer is the slice of the LLM client the revision package needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Revision is the result of applying accepted recommendations to a document.
type Revision struct {
	// RevisedText is the complete revised document body.
	RevisedText string `json:"revised_text"`

	// ChangeLog describes the changes the collaborator reports applying.
	ChangeLog []ChangeDescriptor `json:"change_log"`

	// Diff is the token-level diff from the original to the revised text.
	Diff textdiff.Result `json:"diff"`
}

// Orchestrator coordinates the revision flow: lock, gather accepted
// recommendations, one consolidated drafting call, validate, persist.
type Orchestrator struct {
	store  document.Store
	llm    Completer
	logger *slog.Logger
}

// NewOrchestrator creates a revision orchestrator.
func NewOrchestrator(store document.Store, client Completer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{store: store, llm: client, logger: logger}
}

// Apply runs a full revision of the document: it acquires the editing lock,
// batches every accepted recommendation into one drafting request and
// persists the revised text. A concurrent Apply on the same document fails
// with ErrAlreadyInProgress.
//
// A drafting failure marks the document status=error with a bounded reason
// and releases the lock; the document text is left untouched.
func (o *Orchestrator) Apply(ctx context.Context, docID string) (*Revision, error) {
	doc, err := o.store.BeginRevision(ctx, docID)
	if err != nil {
		return nil, err
	}

	accepted := doc.AcceptedRecommendations()
	if len(accepted) == 0 {
		// Nothing to apply; release the lock without touching the document.
		if endErr := o.store.EndRevision(ctx, docID, nil); endErr != nil {
			o.logger.Warn("Failed to release editing lock",
				"document_id", docID,
				"error", endErr)
		}
		return nil, document.ErrNoAcceptedRecommendations
	}

	o.logger.Info("Starting revision",
		"document_id", docID,
		"accepted_recommendations", len(accepted))

	rev, err := o.ApplyRecommendations(ctx, doc.Text, accepted)
	if err != nil {
		metrics.Revisions.WithLabelValues(metrics.OutcomeFailed).Inc()
		reason := document.TruncateReason(err.Error())
		// The lock must clear even when the caller's context has expired,
		// so a retry can proceed.
		cleanupCtx := context.WithoutCancel(ctx)
		if endErr := o.store.EndRevision(cleanupCtx, docID, func(d *document.Document) {
			d.Status = document.StatusError
			d.ErrorReason = reason
		}); endErr != nil {
			o.logger.Error("Failed to record revision failure",
				"document_id", docID,
				"error", endErr)
		}
		return nil, err
	}

	if err := o.store.EndRevision(ctx, docID, func(d *document.Document) {
		d.Text = rev.RevisedText
		d.Status = document.StatusReviewed
		d.ErrorReason = ""
	}); err != nil {
		metrics.Revisions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("persist revised document: %w", err)
	}

	metrics.Revisions.WithLabelValues(metrics.OutcomeOK).Inc()
	o.logger.Info("Revision complete",
		"document_id", docID,
		"changes", len(rev.ChangeLog),
		"added_tokens", rev.Diff.Stats.Added,
		"removed_tokens", rev.Diff.Stats.Removed)

	return rev, nil
}

// ApplyRecommendations runs the drafting call for the given text and
// accepted recommendations without touching the store. Exactly one LLM call
// is made regardless of how many recommendations are batched.
func (o *Orchestrator) ApplyRecommendations(ctx context.Context, original string, accepted []document.Recommendation) (*Revision, error) {
	if len(accepted) == 0 {
		return nil, document.ErrNoAcceptedRecommendations
	}

	resp, err := o.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("revise")),
		Messages: []llm.Message{
			{Role: "system", Content: revisionSystemPrompt},
			{Role: "user", Content: BuildRevisionPrompt(original, accepted)},
		},
	})
	if err != nil {
		return nil, newRevisionError("drafting call failed", err)
	}

	reply, err := parseRevisionReply(resp.Content)
	if err != nil {
		return nil, err
	}

	return &Revision{
		RevisedText: reply.EditedText,
		ChangeLog:   reply.Changes,
		Diff:        textdiff.Diff(original, reply.EditedText),
	}, nil
}

// Decide applies an instructor decision to one recommendation and persists
// the updated document. For a commented decision, a contextual reply is
// generated and attached; reply generation failure does not fail the
// decision itself.
func (o *Orchestrator) Decide(ctx context.Context, docID, recID string, newStatus document.RecommendationStatus, comment string) (*document.Recommendation, error) {
	doc, err := o.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	rec, ok := doc.Recommendation(recID)
	if !ok {
		return nil, fmt.Errorf("recommendation %s: %w", recID, document.ErrNotFound)
	}

	updated, err := Transition(*rec, newStatus, comment)
	if err != nil {
		return nil, err
	}

	if newStatus == document.RecommendationCommented {
		reply, replyErr := o.replyToComment(ctx, doc.Text, updated)
		if replyErr != nil {
			o.logger.Warn("Failed to generate comment reply",
				"document_id", docID,
				"recommendation_id", recID,
				"error", replyErr)
		} else {
			updated.AIResponse = reply
		}
	}

	*rec = updated
	if err := o.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}

	metrics.RecommendationDecisions.WithLabelValues(string(newStatus)).Inc()
	return &updated, nil
}

// replyToComment generates a contextual reply to an instructor comment.
func (o *Orchestrator) replyToComment(ctx context.Context, docText string, rec document.Recommendation) (string, error) {
	resp, err := o.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("comment")),
		Messages: []llm.Message{
			{Role: "system", Content: commentReplySystemPrompt},
			{Role: "user", Content: BuildCommentReplyPrompt(docText, rec)},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
