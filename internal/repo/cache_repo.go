// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the AI response
// cache collection: content-addressed reads, merge-upserts, hit bookkeeping,
// and expired-row hygiene.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

// GetCacheEntry returns the entry for key or ErrNotFound. Expiry is not
// evaluated here; the service layer owns the TTL policy so both storage
// backends apply the same rule.
func GetCacheEntry(ctx context.Context, db *gorm.DB, key string) (*domain.CacheEntry, error) {
	var entry domain.CacheEntry
	err := db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertCacheEntry inserts or refreshes the entry for key with a fresh
// created/expires pair. Merge semantics: hit counters survive a re-put of the
// same key (only the assigned columns are overwritten on conflict).
func UpsertCacheEntry(ctx context.Context, db *gorm.DB, entry *domain.CacheEntry) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"original_input", "result", "feature", "owner_user_id",
			"created_at", "expires_at",
		}),
	}).Create(entry).Error
}

// TouchCacheHit increments the hit counter and refreshes last_accessed_at for
// key. It is independent of reads so a failed read never corrupts the
// accounting; a missing row is a no-op, not an error.
func TouchCacheHit(ctx context.Context, db *gorm.DB, key string, now time.Time) error {
	return db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"hit_count":        gorm.Expr("hit_count + 1"),
			"last_accessed_at": now,
		}).Error
}

// DeleteCacheEntry removes the entry for key. Used for lazy expiry on read.
func DeleteCacheEntry(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&domain.CacheEntry{}).Error
}

// PurgeExpiredCache deletes every entry whose expires_at precedes now and
// returns the number of rows removed. This backs the periodic hygiene sweep.
func PurgeExpiredCache(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at < ?", now).Delete(&domain.CacheEntry{})
	return res.RowsAffected, res.Error
}

// CacheStats summarizes the cache collection for the admin surface.
type CacheStats struct {
	Entries   int64 `json:"entries"`
	Expired   int64 `json:"expired"`
	TotalHits int64 `json:"total_hits"`
}

// CountCacheStats reports entry/expired/hit totals as of now.
func CountCacheStats(ctx context.Context, db *gorm.DB, now time.Time) (*CacheStats, error) {
	var stats CacheStats
	q := db.WithContext(ctx).Model(&domain.CacheEntry{})
	if err := q.Count(&stats.Entries).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Where("expires_at < ?", now).Count(&stats.Expired).Error; err != nil {
		return nil, err
	}
	var hits *int64
	if err := db.WithContext(ctx).Model(&domain.CacheEntry{}).
		Select("SUM(hit_count)").Scan(&hits).Error; err != nil {
		return nil, err
	}
	if hits != nil {
		stats.TotalHits = *hits
	}
	return &stats, nil
}
