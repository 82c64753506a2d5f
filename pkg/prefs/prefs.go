// Package prefs is the durable key/value store behind user settings.
// Values are JSON encoded primitives or blobs.
//
// Product code reads and writes preferences through the settings package.
// The reset helpers in this package are the one maintenance path that
// touches keys directly.
package prefs

import (
	"context"

	"github.com/kittclouds/kittjournal/internal/store"
)

// Store is a persisted map from key to JSON value.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// =============================================================================
// SQLite
// =============================================================================

// SQLStore keeps preferences in the preferences table of the journal
// database.
type SQLStore struct {
	db *store.SQLiteStore
}

// NewSQLStore wraps an open SQLite store.
func NewSQLStore(db *store.SQLiteStore) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	p, err := s.db.GetPreference(key)
	if err != nil || p == nil {
		return nil, false, err
	}
	return []byte(p.Value), true, nil
}

func (s *SQLStore) Save(_ context.Context, key string, value []byte) error {
	return s.db.SetPreference(key, string(value))
}

func (s *SQLStore) Remove(_ context.Context, key string) error {
	return s.db.DeletePreference(key)
}

func (s *SQLStore) Keys(_ context.Context) ([]string, error) {
	rows, err := s.db.ListPreferences()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, p := range rows {
		keys = append(keys, p.Key)
	}
	return keys, nil
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
