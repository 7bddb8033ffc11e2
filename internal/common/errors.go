// Package common defines shared constants and sentinel errors used across
// the FamLedger server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrVersionConflict signals that the stored entity version differs
	// from the version the caller expected.
	ErrVersionConflict = errors.New("version conflict")

	// ErrorValidation covers malformed payloads and per-row constraint
	// violations (including foreign keys) surfaced by the store.
	ErrorValidation = errors.New("validation error")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorAlreadyExists = errors.New("already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
