package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// KVStore is the persistence sink: one string value per named key.
// Implemented by infra/sqlite, infra/redisstore and infra/memstore.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Snapshot is one historical write of a key, newest first.
type Snapshot struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	WrittenAt time.Time `json:"writtenAt"`
}

// HistoryStore is implemented by stores that keep an audit trail of writes.
type HistoryStore interface {
	History(ctx context.Context, key string, limit int) ([]Snapshot, error)
}

// Clock is the time source consumed by the engine.
type Clock func() time.Time

// IDGenerator produces event identifiers.
type IDGenerator func() string

// Persisted keys. Their JSON shape is the wire format shared with the web client.
const (
	KeyHabits       = "habitflow_data"
	KeyGamification = "habitbloom_gamification"
)
