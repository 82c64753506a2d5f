package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/store"
	"github.com/kittclouds/kittjournal/pkg/prefs"
)

func TestDefaultsOnFreshStore(t *testing.T) {
	svc := NewService(prefs.NewMemoryStore(), nil)

	got, err := svc.GetPreferences(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Preferences{
		PersonalizedInsightsEnabled: true,
		AnalyticsEnabled:            true,
		BiometricAuthEnabled:        false,
		ThemeMode:                   ThemeSystem,
	}, got)
}

func TestUpdateAndRead(t *testing.T) {
	db, err := store.NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	svc := NewService(prefs.NewSQLStore(db), nil)

	require.NoError(t, svc.UpdatePreference(ctx, KeyAnalytics, false))
	require.NoError(t, svc.UpdatePreference(ctx, KeyBiometricAuth, true))
	require.NoError(t, svc.UpdatePreference(ctx, KeyThemeMode, ThemeDark))

	got, err := svc.GetPreferences(ctx)
	require.NoError(t, err)
	assert.True(t, got.PersonalizedInsightsEnabled)
	assert.False(t, got.AnalyticsEnabled)
	assert.True(t, got.BiometricAuthEnabled)
	assert.Equal(t, ThemeDark, got.ThemeMode)
}

func TestUpdateRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	svc := NewService(mem, nil)

	cases := []struct {
		name  string
		key   string
		value any
	}{
		{"string for bool", KeyAnalytics, "yes"},
		{"int for bool", KeyBiometricAuth, 1},
		{"theme outside enum", KeyThemeMode, "sepia"},
		{"bool for theme", KeyThemeMode, true},
		{"unknown key", "font_size", 14},
		{"invalid blob", KeyQuickSetupConfig, json.RawMessage(`{"unterminated"`)},
		{"blob as map", KeyQuickSetupConfig, map[string]string{"a": "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.UpdatePreference(ctx, tc.key, tc.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrInvalidValue))

			var ive *errs.InvalidValueError
			require.True(t, errors.As(err, &ive))
			assert.Equal(t, tc.key, ive.Key)
		})
	}
	keys, err := mem.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMalformedStoredValueFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, KeyAnalytics, []byte(`"definitely"`)))
	require.NoError(t, mem.Save(ctx, KeyThemeMode, []byte(`"neon"`)))
	svc := NewService(mem, nil)

	got, err := svc.GetPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestOnboardingAndQuickSetup(t *testing.T) {
	ctx := context.Background()
	mem := prefs.NewMemoryStore()
	svc := NewService(mem, nil)

	done, err := svc.OnboardingCompleted(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	cfg, err := svc.QuickSetupConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, svc.SetOnboardingCompleted(ctx, true))
	require.NoError(t, svc.SaveQuickSetupConfig(ctx, json.RawMessage(`{"reminders":true,"goal":"stress"}`)))

	done, err = svc.OnboardingCompleted(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	cfg, err = svc.QuickSetupConfig(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reminders":true,"goal":"stress"}`, string(cfg))

	require.NoError(t, prefs.ResetOnboarding(ctx, mem))
	done, err = svc.OnboardingCompleted(ctx)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(KeyAnalytics, "false")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = ParseValue(KeyThemeMode, " Dark ")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	_, err = ParseValue(KeyBiometricAuth, "maybe")
	assert.True(t, errors.Is(err, errs.ErrInvalidValue))

	_, err = ParseValue("nope", "1")
	assert.True(t, errors.Is(err, errs.ErrInvalidValue))

	v, err = ParseValue(KeyQuickSetupConfig, `{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"a":1}`), v)
}

func TestKeysCoverSchema(t *testing.T) {
	assert.Len(t, Keys(), len(schema))
	for _, k := range Keys() {
		_, ok := schema[k]
		assert.True(t, ok, k)
	}
}
