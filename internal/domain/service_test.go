package domain

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubStore struct {
	entries  map[string]json.RawMessage
	readErr  error
	writeErr error
}

func newStubStore() *stubStore {
	return &stubStore{entries: map[string]json.RawMessage{}}
}

func (s *stubStore) Read(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if s.readErr != nil {
		return nil, false, s.readErr
	}
	value, ok := s.entries[key]
	return value, ok, nil
}

func (s *stubStore) Write(ctx context.Context, key string, value json.RawMessage) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.entries[key] = value
	return nil
}

type stubPublisher struct {
	entries []ActivityEntry
	err     error
}

func (p *stubPublisher) Publish(ctx context.Context, entry ActivityEntry) error {
	p.entries = append(p.entries, entry)
	return p.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestPresenceReturnsDefaultWhenNeverWritten(t *testing.T) {
	service := NewService(newStubStore(), newStubStore(), nil)

	record, err := service.Presence(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultPresence(), record)
}

func TestUpdatePresencePersistsMergedRecord(t *testing.T) {
	now := time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)
	store := newStubStore()
	service := NewService(store, newStubStore(), nil)
	service.now = fixedClock(now)

	stored, err := service.UpdatePresence(context.Background(), PresenceUpdate{
		State:       "working",
		CurrentTask: strPtr("Fix bug"),
	})
	require.NoError(t, err)
	require.Equal(t, "Idle — Fix bug", stored.History[0].Label)

	roundTrip, err := service.Presence(context.Background())
	require.NoError(t, err)
	require.Equal(t, stored, roundTrip)
}

func TestUpdatePresencePublishesEventEntries(t *testing.T) {
	publisher := &stubPublisher{}
	service := NewService(newStubStore(), newStubStore(), publisher)

	_, err := service.UpdatePresence(context.Background(), PresenceUpdate{
		State:       "working",
		CurrentTask: strPtr("Playtest"),
	})
	require.NoError(t, err)
	require.Len(t, publisher.entries, 1)
	require.Equal(t, "Idle — Playtest", publisher.entries[0].Label)
}

func TestUpdatePresenceSkipsPublishOnHeartbeat(t *testing.T) {
	publisher := &stubPublisher{}
	service := NewService(newStubStore(), newStubStore(), publisher)

	_, err := service.UpdatePresence(context.Background(), PresenceUpdate{
		State:       "working",
		IsHeartbeat: true,
	})
	require.NoError(t, err)
	require.Empty(t, publisher.entries)
}

func TestUpdatePresenceSurvivesPublisherFailure(t *testing.T) {
	publisher := &stubPublisher{err: errors.New("broker down")}
	service := NewService(newStubStore(), newStubStore(), publisher)

	stored, err := service.UpdatePresence(context.Background(), PresenceUpdate{State: "working"})
	require.NoError(t, err)
	require.Len(t, stored.History, 1)
}

func TestUpdatePresencePropagatesStoreFailure(t *testing.T) {
	store := newStubStore()
	store.writeErr = errors.New("store unavailable")
	service := NewService(store, newStubStore(), nil)

	_, err := service.UpdatePresence(context.Background(), PresenceUpdate{State: "working"})
	require.ErrorContains(t, err, "store unavailable")
}

func TestLatestCommitNilWhenNeverWritten(t *testing.T) {
	service := NewService(newStubStore(), newStubStore(), nil)

	commit, err := service.LatestCommit(context.Background())
	require.NoError(t, err)
	require.Nil(t, commit)
}

func TestRecordPushReplacesCachedCommit(t *testing.T) {
	now := time.Date(2025, time.November, 3, 16, 0, 0, 0, time.UTC)
	service := NewService(newStubStore(), newStubStore(), nil)
	service.now = fixedClock(now)

	first, err := service.RecordPush(context.Background(), PushEvent{
		HeadCommit: &HeadCommit{ID: "one"},
	})
	require.NoError(t, err)
	require.Equal(t, "one", first.ID)

	_, err = service.RecordPush(context.Background(), PushEvent{
		HeadCommit: &HeadCommit{ID: "two"},
	})
	require.NoError(t, err)

	cached, err := service.LatestCommit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, "two", cached.ID)
}
