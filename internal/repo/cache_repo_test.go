package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid schema leakage across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedEntry(t *testing.T, db *gorm.DB, key string, createdAt time.Time) *domain.CacheEntry {
	t.Helper()
	e := &domain.CacheEntry{
		Key:           key,
		OriginalInput: "hello",
		Result:        "hola",
		Feature:       "translation",
		OwnerUserID:   "u1",
		CreatedAt:     createdAt,
		ExpiresAt:     createdAt.Add(domain.CacheTTL),
	}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return e
}

func TestGetCacheEntry_MissingReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	_, err := GetCacheEntry(context.Background(), db, "absent")
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCacheEntry_Success(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	now := time.Now().UTC()
	seedEntry(t, db, "k1", now)

	got, err := GetCacheEntry(context.Background(), db, "k1")
	if err != nil {
		t.Fatalf("GetCacheEntry: %v", err)
	}
	if got.Result != "hola" || got.OwnerUserID != "u1" {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestUpsertCacheEntry_PreservesHitCount(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	now := time.Now().UTC()
	seedEntry(t, db, "k1", now.Add(-time.Hour))

	if err := TouchCacheHit(context.Background(), db, "k1", now); err != nil {
		t.Fatalf("TouchCacheHit: %v", err)
	}

	// Re-put the same key: created/expires refresh, hit_count survives.
	err := UpsertCacheEntry(context.Background(), db, &domain.CacheEntry{
		Key:           "k1",
		OriginalInput: "hello",
		Result:        "hola!",
		Feature:       "translation",
		OwnerUserID:   "u2",
		CreatedAt:     now,
		ExpiresAt:     now.Add(domain.CacheTTL),
	})
	if err != nil {
		t.Fatalf("UpsertCacheEntry: %v", err)
	}

	got, err := GetCacheEntry(context.Background(), db, "k1")
	if err != nil {
		t.Fatalf("GetCacheEntry: %v", err)
	}
	if got.Result != "hola!" || got.OwnerUserID != "u2" {
		t.Fatalf("upsert did not refresh fields: %+v", got)
	}
	if got.HitCount != 1 {
		t.Fatalf("hit count clobbered by upsert: %d", got.HitCount)
	}
}

func TestTouchCacheHit_IncrementsAndRefreshes(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	now := time.Now().UTC()
	seedEntry(t, db, "k1", now)

	for i := 0; i < 3; i++ {
		if err := TouchCacheHit(context.Background(), db, "k1", now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("TouchCacheHit: %v", err)
		}
	}
	got, _ := GetCacheEntry(context.Background(), db, "k1")
	if got.HitCount != 3 {
		t.Fatalf("hit count = %d, want 3", got.HitCount)
	}
	if got.LastAccessedAt.IsZero() {
		t.Fatalf("last_accessed_at not refreshed")
	}

	// Missing key is a silent no-op.
	if err := TouchCacheHit(context.Background(), db, "absent", now); err != nil {
		t.Fatalf("TouchCacheHit on absent key: %v", err)
	}
}

func TestPurgeExpiredCache(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	now := time.Now().UTC()
	seedEntry(t, db, "old", now.Add(-domain.CacheTTL-time.Hour))
	seedEntry(t, db, "fresh", now)

	n, err := PurgeExpiredCache(context.Background(), db, now)
	if err != nil {
		t.Fatalf("PurgeExpiredCache: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d rows, want 1", n)
	}
	if _, err := GetCacheEntry(context.Background(), db, "old"); err != ErrNotFound {
		t.Fatalf("expired entry still present: %v", err)
	}
	if _, err := GetCacheEntry(context.Background(), db, "fresh"); err != nil {
		t.Fatalf("fresh entry removed: %v", err)
	}
}

func TestCountCacheStats(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	now := time.Now().UTC()
	seedEntry(t, db, "old", now.Add(-domain.CacheTTL-time.Hour))
	seedEntry(t, db, "fresh", now)
	_ = TouchCacheHit(context.Background(), db, "fresh", now)

	stats, err := CountCacheStats(context.Background(), db, now)
	if err != nil {
		t.Fatalf("CountCacheStats: %v", err)
	}
	if stats.Entries != 2 || stats.Expired != 1 || stats.TotalHits != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCountCacheStats_EmptyTable(t *testing.T) {
	db := newTestDB(t, &domain.CacheEntry{})
	stats, err := CountCacheStats(context.Background(), db, time.Now().UTC())
	if err != nil {
		t.Fatalf("CountCacheStats: %v", err)
	}
	if stats.Entries != 0 || stats.TotalHits != 0 {
		t.Fatalf("unexpected stats for empty table: %+v", stats)
	}
}
