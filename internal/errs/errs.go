// Package errs defines the error taxonomy shared by the journal data layer.
//
// Local errors (duplicate id, storage, invalid value) are never retried and
// surface to the caller unchanged. Provider errors are classified into four
// kinds so callers can decide how to present an unavailable analysis.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID  = errors.New("duplicate id")
	ErrStorage      = errors.New("storage failure")
	ErrInvalidValue = errors.New("invalid value")
	ErrNotFound     = errors.New("not found")

	ErrAuth              = errors.New("provider authentication failed")
	ErrRateLimit         = errors.New("provider rate limited")
	ErrNetwork           = errors.New("provider unreachable")
	ErrMalformedResponse = errors.New("malformed provider response")

	ErrAnalysisPending  = errors.New("analysis already pending")
	ErrInsightsDisabled = errors.New("personalized insights disabled")
)

// DuplicateIDError reports an insert whose id already exists.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("entry %q already exists", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

// StorageError wraps a failure of the storage medium.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Storage wraps err as a StorageError unless it is nil or already classified.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// InvalidValueError reports a preference value that does not match its key.
type InvalidValueError struct {
	Key    string
	Value  any
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v for %q: %s", e.Value, e.Key, e.Reason)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

// Kind classifies a provider failure.
type Kind int

const (
	KindNetwork Kind = iota
	KindAuth
	KindRateLimit
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindMalformed:
		return "malformed_response"
	default:
		return "network"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuth:
		return ErrAuth
	case KindRateLimit:
		return ErrRateLimit
	case KindMalformed:
		return ErrMalformedResponse
	default:
		return ErrNetwork
	}
}

// ProviderError is a classified AI provider failure.
type ProviderError struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind.sentinel(), e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == e.Kind.sentinel() }

// Provider builds a ProviderError. An err that is already classified keeps
// its original kind.
func Provider(kind Kind, provider string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Kind: kind, Provider: provider, Err: err}
}

// IsProviderError reports whether err came from an AI provider.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

var codes = []struct {
	err  error
	code string
}{
	{ErrDuplicateID, "duplicate_id"},
	{ErrInvalidValue, "invalid_value"},
	{ErrNotFound, "not_found"},
	{ErrAnalysisPending, "analysis_pending"},
	{ErrInsightsDisabled, "insights_disabled"},
	{ErrAuth, "auth"},
	{ErrRateLimit, "rate_limit"},
	{ErrNetwork, "network"},
	{ErrMalformedResponse, "malformed_response"},
	{ErrStorage, "storage"},
}

// Code returns a stable snake_case code for err, "unknown" for anything
// outside the taxonomy and "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "unknown"
}
