// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the sliding
// rate-limit windows keyed by (user, feature).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

// GetRateLimitWindow returns the window record for (userID, feature) or
// ErrNotFound when the pair has never made a request.
func GetRateLimitWindow(ctx context.Context, db *gorm.DB, userID, feature string) (*domain.RateLimitWindow, error) {
	var w domain.RateLimitWindow
	err := db.WithContext(ctx).
		Where("user_id = ? AND feature = ?", userID, feature).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// SaveRateLimitWindow upserts the window record for its (user, feature) pair.
// Concurrent writers to the same pair last-write-win; the limiter accepts the
// resulting small over-admission margin.
func SaveRateLimitWindow(ctx context.Context, db *gorm.DB, w *domain.RateLimitWindow, now time.Time) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.UpdatedAt = now
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "feature"}},
		DoUpdates: clause.AssignmentColumns([]string{"timestamps", "window_start", "updated_at"}),
	}).Create(w).Error
}
