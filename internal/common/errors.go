// Package common defines shared constants and sentinel errors used across
// client and server layers of PageWatch. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConfigurationMissing means the store or auth endpoint is not
	// configured. The client shows a blocking screen and does not retry.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrPreconditionFailed is returned when a write is attempted without
	// an active session or store connection. Nothing is written.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrRemoteCallFailed wraps assist endpoint failures. Assists turn it
	// into fallback text.
	ErrRemoteCallFailed = errors.New("remote call failed")

	// ErrValidationFailed is returned before any network call when a
	// required monitor field is empty or malformed.
	ErrValidationFailed = errors.New("validation failed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
