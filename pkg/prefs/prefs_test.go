package prefs

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kittjournal/internal/store"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	db, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	out := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLStore(db),
	}

	if uri := os.Getenv("TEST_REDIS_URI"); uri != "" {
		hash := fmt.Sprintf("kittjournal:test:%d", time.Now().UnixNano())
		r, err := NewRedisStore(context.Background(), uri, hash)
		require.NoError(t, err)
		t.Cleanup(func() {
			r.client.Del(context.Background(), hash)
			r.Close()
		})
		out["redis"] = r
	}
	return out
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Load(ctx, "theme_mode")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Save(ctx, "theme_mode", []byte(`"dark"`)))
			require.NoError(t, s.Save(ctx, "analytics_enabled", []byte("false")))

			v, ok, err := s.Load(ctx, "theme_mode")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `"dark"`, string(v))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"analytics_enabled", "theme_mode"}, keys)

			require.NoError(t, s.Remove(ctx, "theme_mode"))
			require.NoError(t, s.Remove(ctx, "theme_mode"))
			_, ok, err = s.Load(ctx, "theme_mode")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestResetOnboarding(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, KeyOnboardingCompleted, []byte("true")))
			require.NoError(t, s.Save(ctx, KeyQuickSetupConfig, []byte(`{"goal":"sleep"}`)))
			require.NoError(t, s.Save(ctx, "theme_mode", []byte(`"light"`)))

			require.NoError(t, ResetOnboarding(ctx, s))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"theme_mode"}, keys)
		})
	}
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, "a", []byte("1")))
	require.NoError(t, s.Save(ctx, "b", []byte("true")))

	n, err := ResetAll(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte(`"dark"`)
	require.NoError(t, s.Save(ctx, "theme_mode", buf))
	buf[1] = 'X'

	v, _, err := s.Load(ctx, "theme_mode")
	require.NoError(t, err)
	assert.Equal(t, `"dark"`, string(v))
}
