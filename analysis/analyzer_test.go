package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/syllascan/syllascan/document"
	"github.com/syllascan/syllascan/llm"
)

// stubCompleter returns canned responses without any HTTP traffic.
type stubCompleter struct {
	responses []string
	err       error
	calls     int
}

func (s *stubCompleter) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	content := ""
	if len(s.responses) > 0 {
		content = s.responses[0]
		if len(s.responses) > 1 {
			s.responses = s.responses[1:]
		}
	}
	return &llm.Response{Content: content, Model: "stub"}, nil
}

func TestAnalyzeMarksAnalyzed(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	service := NewService(store, nil, nil, nil)

	doc := document.NewDocument("CS101", "students complete weekly assignments quizzes and final projects")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := service.Analyze(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.RiskLevel != RiskNone {
		t.Errorf("risk = %s, want none for empty corpus", result.RiskLevel)
	}

	stored, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != document.StatusAnalyzed {
		t.Errorf("status = %s, want analyzed", stored.Status)
	}
	if len(stored.Fingerprint) != VectorSize {
		t.Errorf("fingerprint length = %d, want %d", len(stored.Fingerprint), VectorSize)
	}
}

func TestAnalyzeEmptyTextMarksError(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	service := NewService(store, nil, nil, nil)

	doc := document.NewDocument("empty", "   ")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := service.Analyze(ctx, doc.ID)
	if !errors.Is(err, document.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	stored, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != document.StatusError {
		t.Errorf("status = %s, want error", stored.Status)
	}
	if stored.ErrorReason == "" {
		t.Error("expected a recorded error reason")
	}
}

func TestAnalyzeNotFound(t *testing.T) {
	service := NewService(document.NewMemStore(), nil, nil, nil)
	_, err := service.Analyze(context.Background(), "doc-missing")
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalyzeSeedsRecommendations(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &stubCompleter{responses: []string{`[
		{"category": "assessment", "title": "Publish a grading rubric", "description": "State exam weighting.", "priority": "high"},
		{"category": "workload", "title": "Cap weekly readings", "description": "Current load exceeds norms.", "priority": "medium"}
	]`}}
	service := NewService(store, nil, stub, nil)

	doc := document.NewDocument("CS101", "students complete weekly assignments quizzes and final projects")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := service.Analyze(ctx, doc.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	stored, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Recommendations) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(stored.Recommendations))
	}
	for _, rec := range stored.Recommendations {
		if rec.Status != document.RecommendationPending {
			t.Errorf("seeded recommendation status = %s, want pending", rec.Status)
		}
		if rec.ID == "" {
			t.Error("seeded recommendation missing ID")
		}
	}
	if stored.Recommendations[0].Priority != document.PriorityHigh {
		t.Errorf("priority = %s, want high", stored.Recommendations[0].Priority)
	}
}

func TestAnalyzeSeedingFailureNotFatal(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	stub := &stubCompleter{err: fmt.Errorf("endpoint down")}
	service := NewService(store, nil, stub, nil)

	doc := document.NewDocument("CS101", "students complete weekly assignments quizzes and final projects")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := service.Analyze(ctx, doc.ID); err != nil {
		t.Fatalf("Analyze should tolerate seeding failure, got %v", err)
	}

	stored, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != document.StatusAnalyzed {
		t.Errorf("status = %s, want analyzed", stored.Status)
	}
	if len(stored.Recommendations) != 0 {
		t.Errorf("recommendations = %d, want 0", len(stored.Recommendations))
	}
}

func TestReanalysisSupersedesFindings(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemStore()
	service := NewService(store, nil, nil, nil)

	text := "students submit weekly laboratory reports covering statistical methods and data visualization techniques"
	first := document.NewDocument("first", text)
	if err := store.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := service.Analyze(ctx, first.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	second := document.NewDocument("second", text)
	if err := store.Create(ctx, second); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := service.Analyze(ctx, second.ID); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	stored, _ := store.Get(ctx, second.ID)
	if len(stored.SimilarityFindings) != 1 {
		t.Fatalf("findings = %d, want 1", len(stored.SimilarityFindings))
	}

	// Re-analysis against the same corpus replaces, not appends.
	if _, err := service.Analyze(ctx, second.ID); err != nil {
		t.Fatalf("re-Analyze: %v", err)
	}
	stored, _ = store.Get(ctx, second.ID)
	if len(stored.SimilarityFindings) != 1 {
		t.Errorf("findings after re-analysis = %d, want 1", len(stored.SimilarityFindings))
	}
}
