package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/finwise-assistant/internal/model"
)

// SnapshotBucket is the key-value bucket holding conversation snapshots.
const SnapshotBucket = "FINWISE_SNAPSHOTS"

// SnapshotStore persists whole conversation records, transcript and context
// together, in a JetStream key-value bucket. Keys are
// "<encoded tenant>.<conversation id>".
type SnapshotStore struct {
	kv jetstream.KeyValue
}

// NewSnapshotStore opens the snapshot bucket, creating it on first use.
func NewSnapshotStore(ctx context.Context, client *Client) (*SnapshotStore, error) {
	js := client.JetStream()

	kv, err := js.KeyValue(ctx, SnapshotBucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      SnapshotBucket,
			Description: "FinWise conversation snapshots",
			History:     1,
			Storage:     jetstream.FileStorage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot bucket: %w", err)
	}

	return &SnapshotStore{kv: kv}, nil
}

// Put stores rec, replacing any earlier snapshot.
func (s *SnapshotStore) Put(ctx context.Context, rec *model.Conversation) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if _, err := s.kv.Put(ctx, snapshotKey(rec.TenantID, rec.ID), data); err != nil {
		return fmt.Errorf("failed to store conversation %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads a snapshot. It returns nil and no error when none exists.
func (s *SnapshotStore) Get(ctx context.Context, tenantID, conversationID string) (*model.Conversation, error) {
	entry, err := s.kv.Get(ctx, snapshotKey(tenantID, conversationID))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", conversationID, err)
	}

	var rec model.Conversation
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", conversationID, err)
	}
	return &rec, nil
}

// List loads every snapshot of a tenant.
func (s *SnapshotStore) List(ctx context.Context, tenantID string) ([]*model.Conversation, error) {
	keys, err := s.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	prefix := tenantToken(tenantID) + "."
	var out []*model.Conversation
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rec, err := s.Get(ctx, tenantID, strings.TrimPrefix(key, prefix))
		if err != nil {
			return nil, err
		}
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, tenantID, conversationID string) error {
	err := s.kv.Delete(ctx, snapshotKey(tenantID, conversationID))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete conversation %s: %w", conversationID, err)
	}
	return nil
}

func snapshotKey(tenantID, conversationID string) string {
	return tenantToken(tenantID) + "." + conversationID
}

// tenantToken encodes a tenant ID into characters valid in keys and subjects.
func tenantToken(tenantID string) string {
	if tenantID == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(tenantID))
}
