// Package services – CacheStore
//
// This file defines the content-addressed response cache contract and its SQL
// implementation. Keys are SHA-256 digests of the normalized input text plus
// the ordered auxiliary parameters, so identical requests always collide and
// distinct requests practically never do. Reads fail closed to "miss" on any
// storage error: the cache must never surface infrastructure problems to the
// gateway, only make it pay the provider call again.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/repo"
	"github.com/mtheof/go-chat-functions/internal/utils"
)

// CachePut carries the fields persisted on a cache write.
type CachePut struct {
	OriginalInput string
	Result        string
	Feature       string
	OwnerUserID   string
}

// CacheStore is the contract the gateway consumes. Implementations must
// treat storage errors as misses on Get, apply the TTL at read time, keep
// TouchHit independent of Get, and upsert with merge semantics on Put.
type CacheStore interface {
	// Get returns the entry for key, or ok=false on miss, expiry, or any
	// storage error.
	Get(ctx context.Context, key string) (entry *domain.CacheEntry, ok bool)

	// Put upserts the entry with fresh created/expires timestamps.
	Put(ctx context.Context, key string, put CachePut) error

	// TouchHit increments hit bookkeeping for key. Best effort.
	TouchHit(ctx context.Context, key string)
}

// CacheKey derives the content address for an input: SHA-256 over the
// whitespace-normalized text and the ordered auxiliary parameters, joined
// with NUL so no concatenation of distinct inputs can alias another.
func CacheKey(text string, params ...string) string {
	h := sha256.New()
	h.Write([]byte(utils.NormalizeText(text)))
	for _, p := range params {
		h.Write([]byte{0})
		h.Write([]byte(utils.NormalizeText(p)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SQLCacheStore persists cache entries in the relational store via the repo
// layer. Expired entries are deleted lazily when read.
type SQLCacheStore struct {
	DB  *gorm.DB
	TTL time.Duration

	// Now is the clock used for expiry checks; defaults to time.Now.
	Now func() time.Time
}

// NewSQLCacheStore constructs a store with the default 30-day TTL.
func NewSQLCacheStore(db *gorm.DB) *SQLCacheStore {
	return &SQLCacheStore{DB: db, TTL: domain.CacheTTL}
}

func (s *SQLCacheStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Get implements CacheStore. Storage errors and expired entries both read as
// misses; expired rows are purged in passing.
func (s *SQLCacheStore) Get(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	entry, err := repo.GetCacheEntry(ctx, s.DB, key)
	if err != nil {
		if err != repo.ErrNotFound {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}
	if entry.IsExpired(s.now()) {
		if derr := repo.DeleteCacheEntry(ctx, s.DB, key); derr != nil {
			log.Warn().Err(derr).Str("key", key).Msg("expired cache entry delete failed")
		}
		return nil, false
	}
	return entry, true
}

// Put implements CacheStore with merge-upsert semantics: hit counters on an
// existing row survive the rewrite.
func (s *SQLCacheStore) Put(ctx context.Context, key string, put CachePut) error {
	now := s.now()
	ttl := s.TTL
	if ttl <= 0 {
		ttl = domain.CacheTTL
	}
	return repo.UpsertCacheEntry(ctx, s.DB, &domain.CacheEntry{
		Key:           key,
		OriginalInput: put.OriginalInput,
		Result:        put.Result,
		Feature:       put.Feature,
		OwnerUserID:   put.OwnerUserID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	})
}

// TouchHit implements CacheStore. Failures are logged, never surfaced.
func (s *SQLCacheStore) TouchHit(ctx context.Context, key string) {
	if err := repo.TouchCacheHit(ctx, s.DB, key, s.now()); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache hit bookkeeping failed")
	}
}
