package vault_errors

import (
	"errors"
	"time"
)

// Common errors
var (
	ErrInvalidMedia      = errors.New("invalid media")
	ErrInvalidInput      = errors.New("invalid input")
	ErrModelNotSupported = errors.New("model not supported")
	ErrStorageFailure    = errors.New("storage failure")
	ErrPersistence       = errors.New("persistence failure")
	ErrNotFound          = errors.New("not found")
	ErrExternalService   = errors.New("external service unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limited")
)

// Kind classifies an error so callers can decide whether to propagate,
// compensate, or swallow without inspecting error strings.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindStorage
	KindPersistence
	KindNotFound
	KindExternal
	KindUnauthorized
	KindRateLimited
)

func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidMedia),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrModelNotSupported):
		return KindValidation
	case errors.Is(err, ErrStorageFailure):
		return KindStorage
	case errors.Is(err, ErrPersistence):
		return KindPersistence
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExternalService):
		return KindExternal
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now().UTC()
	return &now
}
