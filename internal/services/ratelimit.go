// Package services – RateLimiter
//
// Sliding-window request limiter per (user, feature) pair, persisted so it
// survives across stateless invocations. The algorithm is prune-then-count:
// timestamps older than the window are dropped before the check and never
// counted. Storage failures fail open — infrastructure trouble must not
// block legitimate traffic — but are logged for observation.
//
// There is no distributed locking; concurrent requests from the same user
// may transiently over-admit by a small margin, which is an accepted
// trade-off of the optimistic read-modify-write design.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/repo"
)

// Default rate-limit policy. Callers may override both numbers per feature.
const (
	DefaultMaxRequests = 100
	DefaultWindow      = 60 * time.Minute
)

// RateLimiter enforces per-(user, feature) sliding windows over the
// persisted window records.
type RateLimiter struct {
	DB *gorm.DB

	// Now is the clock used for window math; defaults to time.Now.
	Now func() time.Time
}

// NewRateLimiter constructs a limiter over the given database handle.
func NewRateLimiter(db *gorm.DB) *RateLimiter {
	return &RateLimiter{DB: db}
}

func (rl *RateLimiter) now() time.Time {
	if rl.Now != nil {
		return rl.Now()
	}
	return time.Now().UTC()
}

// CheckAndRecord admits or rejects one request for (userID, feature).
//
// On admit the current instant is appended to the pruned window and
// persisted. On reject a *RateLimitError carries the retry-after hint
// derived from the oldest retained timestamp. maxRequests/window values <= 0
// fall back to the defaults.
func (rl *RateLimiter) CheckAndRecord(ctx context.Context, userID, feature string, maxRequests int, window time.Duration) error {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	now := rl.now()

	rec, err := repo.GetRateLimitWindow(ctx, rl.DB, userID, feature)
	if err != nil && err != repo.ErrNotFound {
		// Fail open: never block traffic on storage trouble.
		log.Warn().Err(err).Str("user_id", userID).Str("feature", feature).
			Msg("rate limit window read failed, allowing request")
		return nil
	}

	var stamps []int64
	if rec != nil {
		if uerr := json.Unmarshal([]byte(rec.Timestamps), &stamps); uerr != nil {
			log.Warn().Err(uerr).Str("user_id", userID).Str("feature", feature).
				Msg("rate limit window corrupt, resetting")
			stamps = nil
		}
	}

	// Prune everything outside the window before counting.
	cutoff := now.Add(-window).UnixMilli()
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= maxRequests {
		oldest := time.UnixMilli(kept[0])
		return &RateLimitError{
			Feature:    feature,
			RetryAfter: oldest.Add(window).Sub(now),
		}
	}

	kept = append(kept, now.UnixMilli())

	// windowStart tracks the oldest retained request: one consistent rule.
	windowStart := time.UnixMilli(kept[0])

	encoded, merr := json.Marshal(kept)
	if merr != nil {
		log.Warn().Err(merr).Str("user_id", userID).Str("feature", feature).
			Msg("rate limit window encode failed, allowing request")
		return nil
	}

	save := &domain.RateLimitWindow{
		UserID:      userID,
		Feature:     feature,
		Timestamps:  string(encoded),
		WindowStart: windowStart,
	}
	if rec != nil {
		save.ID = rec.ID
	}
	if serr := repo.SaveRateLimitWindow(ctx, rl.DB, save, now); serr != nil {
		log.Warn().Err(serr).Str("user_id", userID).Str("feature", feature).
			Msg("rate limit window persist failed, allowing request")
	}
	return nil
}
