// Package state implements the key-value state access layer: a durable
// Postgres backend and a process-local in-memory fallback, selected per key
// category by DSN at startup.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Store reads and writes JSON blobs under string keys. A read of an absent key
// returns ok=false, never an error. Writes are all-or-nothing.
type Store interface {
	Read(ctx context.Context, key string) (json.RawMessage, bool, error)
	Write(ctx context.Context, key string, value json.RawMessage) error
}

// Open builds a Store from a DSN. An empty DSN yields (nil, nil): the caller is
// expected to substitute its fallback store.
func Open(ctx context.Context, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "memory", "mem":
		return NewMemoryStore(), nil
	case "postgres", "postgresql":
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", parsed.Scheme)
	}
}

// MemoryStore is the process-local fallback used when no durable binding is
// configured. State resets on restart, which is acceptable for local dev.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]json.RawMessage
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]json.RawMessage)}
}

// Read returns a copy of the stored value so callers never alias the map entry.
func (m *MemoryStore) Read(ctx context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make(json.RawMessage, len(value))
	copy(out, value)
	return out, true, nil
}

// Write stores a copy of the value under key.
func (m *MemoryStore) Write(ctx context.Context, key string, value json.RawMessage) error {
	stored := make(json.RawMessage, len(value))
	copy(stored, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = stored
	return nil
}
