// Package settings reads and writes user preferences with typed defaults.
// Every preference key has a declared kind; writes are validated against it.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kittclouds/kittjournal/internal/errs"
	"github.com/kittclouds/kittjournal/internal/logging"
	"github.com/kittclouds/kittjournal/pkg/prefs"
)

// Preference keys.
const (
	KeyPersonalizedInsights = "personalized_insights_enabled"
	KeyAnalytics            = "analytics_enabled"
	KeyBiometricAuth        = "biometric_auth_enabled"
	KeyThemeMode            = "theme_mode"
	KeyOnboardingCompleted  = prefs.KeyOnboardingCompleted
	KeyQuickSetupConfig     = prefs.KeyQuickSetupConfig
)

// ThemeMode is the app color scheme.
type ThemeMode string

const (
	ThemeSystem ThemeMode = "system"
	ThemeLight  ThemeMode = "light"
	ThemeDark   ThemeMode = "dark"
)

// Preferences is the merged view of user preferences.
type Preferences struct {
	PersonalizedInsightsEnabled bool      `json:"personalizedInsightsEnabled"`
	AnalyticsEnabled            bool      `json:"analyticsEnabled"`
	BiometricAuthEnabled        bool      `json:"biometricAuthEnabled"`
	ThemeMode                   ThemeMode `json:"themeMode"`
}

// Defaults returns the preferences of a fresh install.
func Defaults() Preferences {
	return Preferences{
		PersonalizedInsightsEnabled: true,
		AnalyticsEnabled:            true,
		BiometricAuthEnabled:        false,
		ThemeMode:                   ThemeSystem,
	}
}

type kind int

const (
	kindBool kind = iota
	kindEnum
	kindBlob
)

type field struct {
	kind    kind
	def     any
	allowed []string
}

var schema = map[string]field{
	KeyPersonalizedInsights: {kind: kindBool, def: true},
	KeyAnalytics:            {kind: kindBool, def: true},
	KeyBiometricAuth:        {kind: kindBool, def: false},
	KeyThemeMode:            {kind: kindEnum, def: string(ThemeSystem), allowed: []string{"system", "light", "dark"}},
	KeyOnboardingCompleted:  {kind: kindBool, def: false},
	KeyQuickSetupConfig:     {kind: kindBlob},
}

// Service is the only product-code path to the preference store.
type Service struct {
	store prefs.Store
	log   *logging.Logger
}

// NewService creates a settings service over a preference store.
func NewService(s prefs.Store, log *logging.Logger) *Service {
	return &Service{store: s, log: logging.OrNop(log).With("component", "settings")}
}

// GetPreferences returns stored preferences merged over the defaults.
func (s *Service) GetPreferences(ctx context.Context) (Preferences, error) {
	p := Defaults()

	var err error
	if p.PersonalizedInsightsEnabled, err = s.loadBool(ctx, KeyPersonalizedInsights); err != nil {
		return Preferences{}, err
	}
	if p.AnalyticsEnabled, err = s.loadBool(ctx, KeyAnalytics); err != nil {
		return Preferences{}, err
	}
	if p.BiometricAuthEnabled, err = s.loadBool(ctx, KeyBiometricAuth); err != nil {
		return Preferences{}, err
	}
	theme, err := s.loadEnum(ctx, KeyThemeMode)
	if err != nil {
		return Preferences{}, err
	}
	p.ThemeMode = ThemeMode(theme)
	return p, nil
}

// UpdatePreference validates value against key's declared kind and
// persists it. Fails with *errs.InvalidValueError on a mismatch or an
// unknown key.
func (s *Service) UpdatePreference(ctx context.Context, key string, value any) error {
	raw, err := encode(key, value)
	if err != nil {
		return err
	}
	if err := s.store.Save(ctx, key, raw); err != nil {
		return fmt.Errorf("settings: save %q: %w", key, err)
	}
	s.log.Debug("preference updated", "key", key)
	return nil
}

// ParseValue converts a textual value (CLI, JS bridge) into the Go type
// that UpdatePreference expects for key.
func ParseValue(key, text string) (any, error) {
	f, ok := schema[key]
	if !ok {
		return nil, &errs.InvalidValueError{Key: key, Value: text, Reason: "unknown preference key"}
	}
	switch f.kind {
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, &errs.InvalidValueError{Key: key, Value: text, Reason: "expected a boolean"}
		}
		return b, nil
	case kindEnum:
		return strings.ToLower(strings.TrimSpace(text)), nil
	default:
		return json.RawMessage(text), nil
	}
}

// Keys lists every declared preference key.
func Keys() []string {
	return []string{
		KeyPersonalizedInsights,
		KeyAnalytics,
		KeyBiometricAuth,
		KeyThemeMode,
		KeyOnboardingCompleted,
		KeyQuickSetupConfig,
	}
}

// PersonalizedInsightsEnabled reports whether entries may be analyzed.
func (s *Service) PersonalizedInsightsEnabled(ctx context.Context) (bool, error) {
	return s.loadBool(ctx, KeyPersonalizedInsights)
}

// OnboardingCompleted reports whether the user finished onboarding.
func (s *Service) OnboardingCompleted(ctx context.Context) (bool, error) {
	return s.loadBool(ctx, KeyOnboardingCompleted)
}

// SetOnboardingCompleted records onboarding state.
func (s *Service) SetOnboardingCompleted(ctx context.Context, done bool) error {
	return s.UpdatePreference(ctx, KeyOnboardingCompleted, done)
}

// QuickSetupConfig returns the stored quick setup blob, or nil if unset.
func (s *Service) QuickSetupConfig(ctx context.Context) (json.RawMessage, error) {
	raw, ok, err := s.store.Load(ctx, KeyQuickSetupConfig)
	if err != nil {
		return nil, fmt.Errorf("settings: load %q: %w", KeyQuickSetupConfig, err)
	}
	if !ok {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// SaveQuickSetupConfig stores the quick setup blob. It must be valid JSON.
func (s *Service) SaveQuickSetupConfig(ctx context.Context, raw json.RawMessage) error {
	return s.UpdatePreference(ctx, KeyQuickSetupConfig, raw)
}

func encode(key string, value any) ([]byte, error) {
	f, ok := schema[key]
	if !ok {
		return nil, &errs.InvalidValueError{Key: key, Value: value, Reason: "unknown preference key"}
	}

	switch f.kind {
	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, &errs.InvalidValueError{Key: key, Value: value, Reason: "expected a boolean"}
		}
		return json.Marshal(b)

	case kindEnum:
		var str string
		switch v := value.(type) {
		case string:
			str = v
		case ThemeMode:
			str = string(v)
		default:
			return nil, &errs.InvalidValueError{Key: key, Value: value, Reason: "expected a string"}
		}
		if !contains(f.allowed, str) {
			return nil, &errs.InvalidValueError{Key: key, Value: value,
				Reason: "not one of " + strings.Join(f.allowed, ", ")}
		}
		return json.Marshal(str)

	default:
		var raw []byte
		switch v := value.(type) {
		case json.RawMessage:
			raw = v
		case []byte:
			raw = v
		default:
			return nil, &errs.InvalidValueError{Key: key, Value: value, Reason: "expected a JSON document"}
		}
		if !json.Valid(raw) {
			return nil, &errs.InvalidValueError{Key: key, Value: string(raw), Reason: "expected a JSON document"}
		}
		return raw, nil
	}
}

func (s *Service) loadBool(ctx context.Context, key string) (bool, error) {
	def := schema[key].def.(bool)
	raw, ok, err := s.store.Load(ctx, key)
	if err != nil {
		return def, fmt.Errorf("settings: load %q: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		s.log.Warn("ignoring malformed preference", "key", key, "value", string(raw))
		return def, nil
	}
	return b, nil
}

func (s *Service) loadEnum(ctx context.Context, key string) (string, error) {
	f := schema[key]
	def := f.def.(string)
	raw, ok, err := s.store.Load(ctx, key)
	if err != nil {
		return def, fmt.Errorf("settings: load %q: %w", key, err)
	}
	if !ok {
		return def, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil || !contains(f.allowed, str) {
		s.log.Warn("ignoring malformed preference", "key", key, "value", string(raw))
		return def, nil
	}
	return str, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
