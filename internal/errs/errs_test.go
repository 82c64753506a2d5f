package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateIDMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("journal: add: %w", &DuplicateIDError{ID: "e1"})

	assert.True(t, errors.Is(err, ErrDuplicateID))
	assert.False(t, errors.Is(err, ErrStorage))

	var dup *DuplicateIDError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "e1", dup.ID)
}

func TestStorageWrapsOnce(t *testing.T) {
	assert.Nil(t, Storage("noop", nil))

	err := Storage("insert entry", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	again := Storage("outer", err)
	assert.Same(t, err, again)
}

func TestProviderErrorKinds(t *testing.T) {
	cases := []struct {
		kind Kind
		want error
	}{
		{KindAuth, ErrAuth},
		{KindRateLimit, ErrRateLimit},
		{KindNetwork, ErrNetwork},
		{KindMalformed, ErrMalformedResponse},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			err := Provider(tc.kind, "openrouter", errors.New("boom"))
			assert.True(t, errors.Is(err, tc.want))
			assert.True(t, IsProviderError(err))
			assert.Contains(t, err.Error(), "openrouter")
		})
	}
}

func TestProviderKeepsFirstClassification(t *testing.T) {
	inner := Provider(KindRateLimit, "google", nil)
	outer := Provider(KindNetwork, "google", inner)

	assert.True(t, errors.Is(outer, ErrRateLimit))
	assert.False(t, errors.Is(outer, ErrNetwork))
}

func TestInvalidValue(t *testing.T) {
	err := &InvalidValueError{Key: "theme_mode", Value: "sepia", Reason: "not one of system, light, dark"}
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.Contains(t, err.Error(), "theme_mode")
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&DuplicateIDError{ID: "x"}, "duplicate_id"},
		{Storage("read", io.ErrUnexpectedEOF), "storage"},
		{&InvalidValueError{Key: "theme_mode", Value: "sepia"}, "invalid_value"},
		{fmt.Errorf("wrap: %w", ErrNotFound), "not_found"},
		{Provider(KindRateLimit, "p", io.EOF), "rate_limit"},
		{Provider(KindMalformed, "p", nil), "malformed_response"},
		{ErrInsightsDisabled, "insights_disabled"},
		{io.EOF, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Code(tt.err), "%v", tt.err)
	}
}
