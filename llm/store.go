package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// CallsBucket is the KV bucket name for LLM call records.
const CallsBucket = "SYLLASCAN_LLM_CALLS"

// callsTTL bounds how long audit records are retained.
const callsTTL = 30 * 24 * time.Hour

// CallRecord captures one LLM call for auditing. Every analysis, revision
// and dialogue call is recorded with timing and token usage so an operator
// can reconstruct why a document looks the way it does.
type CallRecord struct {
	RequestID    string     `json:"request_id"`
	Capability   string     `json:"capability"`
	Model        string     `json:"model,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	Messages     []Message  `json:"messages"`
	Response     string     `json:"response,omitempty"`
	Usage        TokenUsage `json:"usage"`
	FinishReason string     `json:"finish_reason,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  time.Time  `json:"completed_at"`
	Error        string     `json:"error,omitempty"`
}

// CallStore persists LLM call records in NATS JetStream KV.
type CallStore struct {
	bucket jetstream.KeyValue
}

// NewCallStore creates the call store, creating the bucket if needed.
func NewCallStore(ctx context.Context, js jetstream.JetStream) (*CallStore, error) {
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      CallsBucket,
		Description: "LLM call audit records",
		TTL:         callsTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create/update kv bucket: %w", err)
	}

	return &CallStore{bucket: bucket}, nil
}

// Store saves a call record keyed by request ID.
func (s *CallStore) Store(ctx context.Context, record *CallRecord) error {
	if record.RequestID == "" {
		return fmt.Errorf("request_id is required")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal call record: %w", err)
	}

	if _, err := s.bucket.Put(ctx, record.RequestID, data); err != nil {
		return fmt.Errorf("put call record: %w", err)
	}

	return nil
}

// Get retrieves a call record by request ID.
func (s *CallStore) Get(ctx context.Context, requestID string) (*CallRecord, error) {
	entry, err := s.bucket.Get(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get call record: %w", err)
	}

	var record CallRecord
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return nil, fmt.Errorf("unmarshal call record: %w", err)
	}

	return &record, nil
}

// List returns all stored call records ordered by start time.
func (s *CallStore) List(ctx context.Context) ([]*CallRecord, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list call keys: %w", err)
	}

	records := make([]*CallRecord, 0, len(keys))
	for _, key := range keys {
		entry, err := s.bucket.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var record CallRecord
		if err := json.Unmarshal(entry.Value(), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}
