package document

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemStore is an in-memory Store. It backs the one-shot CLI commands and the
// unit tests; production workers use KVStore. Documents are copied on every
// read and write so callers never share a live reference.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]*Document
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]*Document)}
}

func cloneDocument(doc *Document) *Document {
	// JSON round-trip keeps the copy semantics identical to the KV store.
	data, _ := json.Marshal(doc)
	var out Document
	_ = json.Unmarshal(data, &out)
	return &out
}

// Create stores a new document.
func (s *MemStore) Create(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Get retrieves a document by ID.
func (s *MemStore) Get(_ context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// Put replaces the stored document.
func (s *MemStore) Put(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.UpdatedAt = time.Now().UTC()
	s.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// ListAnalyzed returns all analyzed, fingerprinted documents.
func (s *MemStore) ListAnalyzed(_ context.Context) ([]*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []*Document
	for _, doc := range s.docs {
		if doc.Status != StatusAnalyzed || len(doc.Fingerprint) == 0 {
			continue
		}
		docs = append(docs, cloneDocument(doc))
	}
	return docs, nil
}

// BeginRevision atomically acquires the per-document editing lock.
func (s *MemStore) BeginRevision(_ context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if doc.EditingStatus == EditingProcessing {
		return nil, ErrAlreadyInProgress
	}

	doc.EditingStatus = EditingProcessing
	doc.UpdatedAt = time.Now().UTC()
	return cloneDocument(doc), nil
}

// EndRevision releases the editing lock, applying mutate first.
func (s *MemStore) EndRevision(_ context.Context, id string, mutate func(*Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}

	if mutate != nil {
		mutate(doc)
	}
	doc.EditingStatus = EditingIdle
	doc.UpdatedAt = time.Now().UTC()
	return nil
}
