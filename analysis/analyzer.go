package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
	"github.com/syllascan/syllascan/metrics"
	"github.com/syllascan/syllascan/model"
	"github.com/syllascan/syllascan/revision"
)

// Completer is the slice of the LLM client the analysis package needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Service runs the full analysis pipeline for a document: fingerprint,
// corpus comparison, recommendation seeding.
type Service struct {
	store  document.Store
	engine *Engine
	llm    Completer
	logger *slog.Logger
}

// NewService creates an analysis service. A nil engine uses defaults; a nil
// llm disables recommendation seeding.
func NewService(store document.Store, engine *Engine, client Completer, logger *slog.Logger) *Service {
	if engine == nil {
		engine, _ = NewEngine(DefaultSimilarityConfig())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, engine: engine, llm: client, logger: logger}
}

// Analyze runs the pipeline for a stored document. Re-analysis is allowed
// and supersedes the previous fingerprint and findings. A failure marks the
// document status=error with a bounded reason.
func (s *Service) Analyze(ctx context.Context, docID string) (*SimilarityResult, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}

	doc.Status = document.StatusProcessing
	if err := s.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark document processing: %w", err)
	}

	fingerprint, err := Vectorize(doc.Text)
	if err != nil {
		s.fail(ctx, docID, err)
		return nil, err
	}
	doc.Fingerprint = fingerprint

	// Snapshot the corpus once; documents analyzed mid-comparison are
	// picked up by the next analysis, not this one.
	corpus, err := s.store.ListAnalyzed(ctx)
	if err != nil {
		s.fail(ctx, docID, err)
		return nil, fmt.Errorf("list corpus: %w", err)
	}

	result := s.engine.FindSimilar(doc, corpus)
	for range result.Matches {
		metrics.SimilarityMatches.WithLabelValues(string(result.RiskLevel)).Inc()
	}

	recs := s.seedRecommendations(ctx, doc, result)

	doc.SimilarityFindings = result.Matches
	doc.Recommendations = append(doc.Recommendations, recs...)
	doc.Status = document.StatusAnalyzed
	doc.ErrorReason = ""

	if err := s.store.Put(ctx, doc); err != nil {
		metrics.DocumentsAnalyzed.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	metrics.DocumentsAnalyzed.WithLabelValues(metrics.OutcomeOK).Inc()
	s.logger.Info("Analysis complete",
		"document_id", docID,
		"risk", result.RiskLevel,
		"matches", len(result.Matches),
		"recommendations", len(recs))

	return &result, nil
}

// seedRecommendations asks the reviewer model for improvement
// recommendations. Seeding is best-effort: a failed call leaves the document
// analyzed with no seeded recommendations.
func (s *Service) seedRecommendations(ctx context.Context, doc *document.Document, result SimilarityResult) []document.Recommendation {
	if s.llm == nil {
		return nil
	}

	resp, err := s.llm.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityForTask("analyze")),
		Messages: []llm.Message{
			{Role: "system", Content: analysisSystemPrompt},
			{Role: "user", Content: BuildAnalysisPrompt(doc, result)},
		},
	})
	if err != nil {
		s.logger.Warn("Recommendation seeding failed",
			"document_id", doc.ID,
			"error", err)
		return nil
	}

	recs, err := revision.ParseRecommendations(resp.Content, "content", 0)
	if err != nil {
		s.logger.Warn("Could not parse seeded recommendations",
			"document_id", doc.ID,
			"error", err)
		return nil
	}
	return recs
}

// fail marks the document errored with a bounded reason. Best-effort: the
// original analysis error is what the caller sees.
func (s *Service) fail(ctx context.Context, docID string, cause error) {
	metrics.DocumentsAnalyzed.WithLabelValues(metrics.OutcomeFailed).Inc()

	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		s.logger.Error("Failed to load document for error marking",
			"document_id", docID,
			"error", err)
		return
	}

	doc.Status = document.StatusError
	doc.ErrorReason = document.TruncateReason(cause.Error())
	if err := s.store.Put(ctx, doc); err != nil {
		s.logger.Error("Failed to record analysis failure",
			"document_id", docID,
			"error", err)
	}
}
