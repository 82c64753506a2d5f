package prefs

import (
	"context"
	"fmt"
)

// Keys written outside the UserPreferences set.
const (
	KeyOnboardingCompleted = "onboarding_completed"
	KeyQuickSetupConfig    = "quick_setup_config"
)

// ResetOnboarding clears the onboarding flag and quick setup blob so the
// next launch behaves like a first run. Maintenance use only.
func ResetOnboarding(ctx context.Context, s Store) error {
	for _, key := range []string{KeyOnboardingCompleted, KeyQuickSetupConfig} {
		if err := s.Remove(ctx, key); err != nil {
			return fmt.Errorf("prefs: reset %q: %w", key, err)
		}
	}
	return nil
}

// ResetAll removes every stored key. Returns the number removed.
// Maintenance use only.
func ResetAll(ctx context.Context, s Store) (int, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("prefs: list keys: %w", err)
	}
	for i, key := range keys {
		if err := s.Remove(ctx, key); err != nil {
			return i, fmt.Errorf("prefs: reset %q: %w", key, err)
		}
	}
	return len(keys), nil
}
