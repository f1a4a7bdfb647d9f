package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// DocumentsBucket is the KV bucket name for storing documents.
const DocumentsBucket = "SYLLASCAN_DOCUMENTS"

// ErrorReasonLimit bounds the length of stored failure reasons.
const ErrorReasonLimit = 500

// TruncateReason bounds a failure reason for storage.
func TruncateReason(reason string) string {
	if len(reason) > ErrorReasonLimit {
		return reason[:ErrorReasonLimit]
	}
	return reason
}

// Store provides key-based read/update of documents. The engine requires no
// transactions spanning multiple documents.
type Store interface {
	// Create stores a new document.
	Create(ctx context.Context, doc *Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*Document, error)

	// Put replaces the stored document.
	Put(ctx context.Context, doc *Document) error

	// ListAnalyzed returns the corpus snapshot used for similarity
	// comparison: every document that is analyzed and fingerprinted.
	ListAnalyzed(ctx context.Context) ([]*Document, error)

	// BeginRevision atomically flips the document's editing status to
	// processing. A second call while a revision is in flight returns
	// ErrAlreadyInProgress. The check is a compare-and-set against the
	// store, not an in-memory flag, so independent workers contend safely.
	BeginRevision(ctx context.Context, id string) (*Document, error)

	// EndRevision clears the editing lock and applies mutate to the
	// stored document in the same write.
	EndRevision(ctx context.Context, id string, mutate func(*Document)) error
}

// KVStore is a Store backed by NATS JetStream KV.
type KVStore struct {
	bucket jetstream.KeyValue
}

// NewKVStore creates a document store, creating the KV bucket if needed.
func NewKVStore(ctx context.Context, js jetstream.JetStream) (*KVStore, error) {
	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      DocumentsBucket,
		Description: "Syllabus documents with findings and recommendations",
		History:     5, // Keep last 5 revisions
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &KVStore{bucket: bucket}, nil
}

// Create stores a new document.
func (s *KVStore) Create(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if _, err := s.bucket.Create(ctx, doc.ID, data); err != nil {
		return fmt.Errorf("store document: %w", err)
	}

	return nil
}

// Get retrieves a document by ID.
func (s *KVStore) Get(ctx context.Context, id string) (*Document, error) {
	entry, err := s.bucket.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	return &doc, nil
}

// Put replaces the stored document.
func (s *KVStore) Put(ctx context.Context, doc *Document) error {
	doc.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if _, err := s.bucket.Put(ctx, doc.ID, data); err != nil {
		return fmt.Errorf("put document: %w", err)
	}

	return nil
}

// ListAnalyzed returns all analyzed, fingerprinted documents.
func (s *KVStore) ListAnalyzed(ctx context.Context) ([]*Document, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list document keys: %w", err)
	}

	docs := make([]*Document, 0, len(keys))
	for _, key := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry, err := s.bucket.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}

		var doc Document
		if err := json.Unmarshal(entry.Value(), &doc); err != nil {
			continue
		}

		if doc.Status != StatusAnalyzed || len(doc.Fingerprint) == 0 {
			continue
		}
		docs = append(docs, &doc)
	}

	return docs, nil
}

// BeginRevision atomically acquires the per-document editing lock.
func (s *KVStore) BeginRevision(ctx context.Context, id string) (*Document, error) {
	entry, err := s.bucket.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	if doc.EditingStatus == EditingProcessing {
		return nil, ErrAlreadyInProgress
	}

	doc.EditingStatus = EditingProcessing
	doc.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	// Update with the read revision: if another worker won the race, the
	// revision no longer matches and the lock attempt fails.
	if _, err := s.bucket.Update(ctx, id, data, entry.Revision()); err != nil {
		var apiErr *jetstream.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
			return nil, ErrAlreadyInProgress
		}
		if errors.Is(err, jetstream.ErrKeyExists) {
			return nil, ErrAlreadyInProgress
		}
		return nil, fmt.Errorf("acquire editing lock: %w", err)
	}

	return &doc, nil
}

// EndRevision releases the editing lock, applying mutate first.
func (s *KVStore) EndRevision(ctx context.Context, id string, mutate func(*Document)) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if mutate != nil {
		mutate(doc)
	}
	doc.EditingStatus = EditingIdle

	return s.Put(ctx, doc)
}
