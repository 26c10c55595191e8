// Package services implements the business logic of the chat functions core:
// the content-addressed AI response cache, the sliding-window rate limiter,
// the AI gateway, and the notification dispatcher. This file centralizes the
// service-level error values and typed errors so callers can branch on them;
// translation into HTTP statuses happens at the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConversationNotFound indicates the event referenced a conversation
	// that does not exist. Dispatch aborts for that event only.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrMessageNotFound indicates the referenced message does not exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrUserNotFound indicates a user record required to compose a
	// notification is missing.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmptyText is returned when a callable request carries no text.
	ErrEmptyText = errors.New("text is empty")

	// ErrInvalidLanguage is returned when a language tag cannot be parsed.
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// RateLimitError is returned when a (user, feature) pair exhausted its
// sliding window. RetryAfter is derived from the oldest retained request.
type RateLimitError struct {
	Feature    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Feature, e.RetryAfter)
}

// RetryAfterMinutes returns the retry hint in whole minutes, floored at 1 so
// clients always receive a positive value.
func (e *RateLimitError) RetryAfterMinutes() int {
	m := int((e.RetryAfter + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

// ProviderError wraps a failure of the external language-model provider:
// transport errors, non-2xx statuses, or responses with no usable content.
// Provider failures are never cached.
type ProviderError struct {
	Feature string
	Err     error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failure for %s: %v", e.Feature, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ProviderError) Unwrap() error { return e.Err }
