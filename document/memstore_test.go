package document

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreCreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	doc := NewDocument("CS101", "syllabus body")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "CS101" || got.Text != "syllabus body" {
		t.Errorf("got %+v", got)
	}
	if got.Status != StatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}

	if _, err := store.Get(ctx, "doc-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemStoreCopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	doc := NewDocument("CS101", "original")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	doc.Text = "mutated after create"

	got, err := store.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "original" {
		t.Errorf("store leaked caller mutation: %q", got.Text)
	}

	got.Text = "mutated after get"
	again, _ := store.Get(ctx, doc.ID)
	if again.Text != "original" {
		t.Errorf("store leaked read mutation: %q", again.Text)
	}
}

func TestMemStoreListAnalyzed(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	analyzed := NewDocument("a", "text")
	analyzed.Status = StatusAnalyzed
	analyzed.Fingerprint = []float64{1, 0}

	processing := NewDocument("b", "text")

	noFingerprint := NewDocument("c", "text")
	noFingerprint.Status = StatusAnalyzed

	for _, doc := range []*Document{analyzed, processing, noFingerprint} {
		if err := store.Create(ctx, doc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	docs, err := store.ListAnalyzed(ctx)
	if err != nil {
		t.Fatalf("ListAnalyzed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != analyzed.ID {
		t.Errorf("docs = %v", docs)
	}
}

func TestMemStoreEditingLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	doc := NewDocument("CS101", "body")
	if err := store.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	locked, err := store.BeginRevision(ctx, doc.ID)
	if err != nil {
		t.Fatalf("BeginRevision: %v", err)
	}
	if locked.EditingStatus != EditingProcessing {
		t.Errorf("editing status = %s, want processing", locked.EditingStatus)
	}

	if _, err := store.BeginRevision(ctx, doc.ID); !errors.Is(err, ErrAlreadyInProgress) {
		t.Errorf("second BeginRevision = %v, want ErrAlreadyInProgress", err)
	}

	err = store.EndRevision(ctx, doc.ID, func(d *Document) {
		d.Text = "revised"
		d.Status = StatusReviewed
	})
	if err != nil {
		t.Fatalf("EndRevision: %v", err)
	}

	got, _ := store.Get(ctx, doc.ID)
	if got.EditingStatus != EditingIdle {
		t.Errorf("editing status = %s, want idle", got.EditingStatus)
	}
	if got.Text != "revised" || got.Status != StatusReviewed {
		t.Errorf("mutation not applied: %+v", got)
	}

	// The lock is reusable after release.
	if _, err := store.BeginRevision(ctx, doc.ID); err != nil {
		t.Errorf("BeginRevision after release: %v", err)
	}

	if _, err := store.BeginRevision(ctx, "doc-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("BeginRevision on missing = %v, want ErrNotFound", err)
	}
}

func TestTruncateReason(t *testing.T) {
	short := "fits"
	if got := TruncateReason(short); got != short {
		t.Errorf("TruncateReason(%q) = %q", short, got)
	}

	long := make([]byte, ErrorReasonLimit+100)
	for i := range long {
		long[i] = 'x'
	}
	if got := TruncateReason(string(long)); len(got) != ErrorReasonLimit {
		t.Errorf("truncated length = %d, want %d", len(got), ErrorReasonLimit)
	}
}

func TestAcceptedRecommendations(t *testing.T) {
	doc := NewDocument("CS101", "body")

	accepted := NewRecommendation("a", "keep", "", PriorityLow)
	accepted.Status = RecommendationAccepted
	rejected := NewRecommendation("b", "skip", "", PriorityLow)
	rejected.Status = RecommendationRejected
	pending := NewRecommendation("c", "wait", "", PriorityLow)

	doc.Recommendations = []Recommendation{accepted, rejected, pending}

	got := doc.AcceptedRecommendations()
	if len(got) != 1 || got[0].Title != "keep" {
		t.Errorf("accepted = %v", got)
	}

	if _, ok := doc.Recommendation(pending.ID); !ok {
		t.Error("lookup by ID failed")
	}
	if _, ok := doc.Recommendation("rec-missing"); ok {
		t.Error("lookup of missing ID succeeded")
	}
}
