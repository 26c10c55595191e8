// Package services – Valkey cache backend
//
// Alternative CacheStore implementation backed by a Valkey/Redis server, for
// deployments where the response cache should be shared across instances or
// kept out of the relational store. Entries serialize as JSON values with a
// native PX expiry, so the server enforces the TTL and the lazy-delete path
// of the SQL store is unnecessary. Hit bookkeeping is an optimistic
// read-modify-write, matching the concurrency posture of the SQL backend.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	valkey "github.com/valkey-io/valkey-go"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

const valkeyKeyPrefix = "aicache:"

// ValkeyCacheStore persists cache entries in a Valkey/Redis server.
type ValkeyCacheStore struct {
	Client valkey.Client
	TTL    time.Duration

	// Now is the clock used for entry timestamps; defaults to time.Now.
	Now func() time.Time
}

// NewValkeyCacheStore connects to the given address and verifies the server
// responds before returning the store.
func NewValkeyCacheStore(address, username, password string, db int) (*ValkeyCacheStore, error) {
	if address == "" {
		return nil, errors.New("cache: valkey address required")
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{address},
		Username:          username,
		Password:          password,
		SelectDB:          db,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		DisableCache:      true,
	})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, err
	}
	return &ValkeyCacheStore{Client: client, TTL: domain.CacheTTL}, nil
}

// Close releases the underlying client.
func (s *ValkeyCacheStore) Close() { s.Client.Close() }

func (s *ValkeyCacheStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ValkeyCacheStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return domain.CacheTTL
	}
	return s.TTL
}

// Get implements CacheStore. A missing key, decode failure, or server error
// all read as a miss; the server's own expiry covers the TTL rule.
func (s *ValkeyCacheStore) Get(ctx context.Context, key string) (*domain.CacheEntry, bool) {
	resp := s.Client.Do(ctx, s.Client.B().Get().Key(valkeyKeyPrefix+key).Build())
	if err := resp.Error(); err != nil {
		if !errors.Is(err, valkey.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("valkey cache read failed, treating as miss")
		}
		return nil, false
	}
	payload, err := resp.AsBytes()
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("valkey cache payload unreadable")
		return nil, false
	}
	var entry domain.CacheEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("valkey cache entry corrupt, treating as miss")
		return nil, false
	}
	// Belt and braces against drifted server clocks.
	if entry.IsExpired(s.now()) {
		return nil, false
	}
	return &entry, true
}

// Put implements CacheStore. The previous hit counter is carried over when
// the key already exists, preserving merge semantics.
func (s *ValkeyCacheStore) Put(ctx context.Context, key string, put CachePut) error {
	now := s.now()
	entry := domain.CacheEntry{
		Key:           key,
		OriginalInput: put.OriginalInput,
		Result:        put.Result,
		Feature:       put.Feature,
		OwnerUserID:   put.OwnerUserID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.ttl()),
	}
	if prev, ok := s.Get(ctx, key); ok {
		entry.HitCount = prev.HitCount
		entry.LastAccessedAt = prev.LastAccessedAt
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	cmd := s.Client.B().Set().Key(valkeyKeyPrefix + key).Value(string(payload)).Px(s.ttl()).Build()
	return s.Client.Do(ctx, cmd).Error()
}

// TouchHit implements CacheStore via read-modify-write, keeping the
// remaining server-side TTL intact.
func (s *ValkeyCacheStore) TouchHit(ctx context.Context, key string) {
	entry, ok := s.Get(ctx, key)
	if !ok {
		return
	}
	entry.HitCount++
	entry.LastAccessedAt = s.now()
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("valkey hit bookkeeping marshal failed")
		return
	}
	cmd := s.Client.B().Set().Key(valkeyKeyPrefix + key).Value(string(payload)).Keepttl().Build()
	if err := s.Client.Do(ctx, cmd).Error(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("valkey hit bookkeeping failed")
	}
}
