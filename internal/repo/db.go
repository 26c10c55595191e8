// Package repo implements the data persistence layer for the cache,
// rate-limit, and directory collections, backed by GORM. This file contains
// database bootstrapping helpers for SQLite (pure Go driver), schema
// migration, and optional OpenTelemetry instrumentation of queries.
package repo

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

// ErrNotFound is the repository-level sentinel for a missing record.
var ErrNotFound = errors.New("not found")

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (clearer than the
	// driver's "out of memory (14)").
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// EnableTracing attaches the GORM OpenTelemetry plugin so queries appear as
// spans under the request trace. Metrics are disabled; Prometheus covers them.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates the schema for every collection this core
// owns plus the directory read models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.CacheEntry{},
		&domain.RateLimitWindow{},
		&domain.UserDevice{},
		&domain.Conversation{},
		&domain.Participant{},
		&domain.Message{},
	)
}
