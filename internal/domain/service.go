package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"example.com/devpulse/internal/observability"
)

// Logical keys owned by the service. No other component touches them.
const (
	PresenceKey = "unity-status"
	CommitKey   = "latest-commit"
)

// StateStore is the state access contract the service persists through.
// A read of an absent key returns ok=false, never an error.
type StateStore interface {
	Read(ctx context.Context, key string) (json.RawMessage, bool, error)
	Write(ctx context.Context, key string, value json.RawMessage) error
}

// ActivityPublisher receives activity entries for downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, entry ActivityEntry) error
}

// Service orchestrates presence and commit-cache workflows over the state store.
type Service struct {
	presence  StateStore
	commits   StateStore
	publisher ActivityPublisher // optional
	now       func() time.Time
}

// NewService constructs a Service. publisher may be nil.
func NewService(presence, commits StateStore, publisher ActivityPublisher) *Service {
	return &Service{
		presence:  presence,
		commits:   commits,
		publisher: publisher,
		now:       time.Now,
	}
}

// Presence returns the current presence record, or the hard-coded default if
// nothing has ever been written.
func (s *Service) Presence(ctx context.Context) (PresenceRecord, error) {
	raw, ok, err := s.presence.Read(ctx, PresenceKey)
	if err != nil {
		return PresenceRecord{}, fmt.Errorf("read presence: %w", err)
	}
	if !ok {
		return DefaultPresence(), nil
	}
	var record PresenceRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return PresenceRecord{}, fmt.Errorf("decode presence: %w", err)
	}
	return record, nil
}

// UpdatePresence merges a partial update into the stored record and writes the
// result back. The read-merge-write is not atomic: two concurrent updates can
// interleave and the second write wins in full. Accepted, since updates come
// from a single editor instance under normal operation.
func (s *Service) UpdatePresence(ctx context.Context, upd PresenceUpdate) (PresenceRecord, error) {
	prev, err := s.Presence(ctx)
	if err != nil {
		return PresenceRecord{}, err
	}

	next, err := Merge(prev, upd, s.now())
	if err != nil {
		return PresenceRecord{}, err
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return PresenceRecord{}, fmt.Errorf("encode presence: %w", err)
	}
	if err := s.presence.Write(ctx, PresenceKey, raw); err != nil {
		return PresenceRecord{}, fmt.Errorf("write presence: %w", err)
	}

	observability.RecordPresenceUpdate(upd.IsHeartbeat, next.LastUpdated)

	if !upd.IsHeartbeat && s.publisher != nil && len(next.History) > 0 {
		// Best effort: a publish failure never fails the update.
		if err := s.publisher.Publish(ctx, next.History[0]); err != nil {
			log.Printf("activity publish failed: %v", err)
		}
	}

	return next, nil
}

// LatestCommit returns the cached commit record, or nil if none has been stored.
func (s *Service) LatestCommit(ctx context.Context) (*CommitRecord, error) {
	raw, ok, err := s.commits.Read(ctx, CommitKey)
	if err != nil {
		return nil, fmt.Errorf("read commit: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var record CommitRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode commit: %w", err)
	}
	return &record, nil
}

// RecordPush normalizes a push event and replaces the cached commit record.
func (s *Service) RecordPush(ctx context.Context, event PushEvent) (CommitRecord, error) {
	record, err := NormalizePush(event, s.now())
	if err != nil {
		return CommitRecord{}, err
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return CommitRecord{}, fmt.Errorf("encode commit: %w", err)
	}
	if err := s.commits.Write(ctx, CommitKey, raw); err != nil {
		return CommitRecord{}, fmt.Errorf("write commit: %w", err)
	}

	observability.RecordCommitCached(record.CommittedAt)
	return record, nil
}
