// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the fail() helper
// and give clients a stable, machine-readable error taxonomy alongside the
// human-readable messages. Codes are lowercase snake_case; generic codes
// mirror common HTTP semantics, domain-specific codes cover business errors
// that status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeProviderFailed   = "provider_failed"
	ErrCodeDispatchFailed   = "dispatch_failed"
	ErrCodeSweepFailed      = "sweep_failed"
	ErrCodeSaveFailed       = "save_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
