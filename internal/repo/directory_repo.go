// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the directory reads the dispatcher and
// gateway depend on: conversations, participants, messages, and device
// tokens, plus the two writes this core is allowed (clearing an invalid
// token and updating a conversation's last-message preview).
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mtheof/go-chat-functions/internal/domain"
)

// GetConversation fetches a conversation by ID or returns ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListParticipants returns every participant row of a conversation,
// nicknames included.
func ListParticipants(ctx context.Context, db *gorm.DB, conversationID string) ([]domain.Participant, error) {
	var parts []domain.Participant
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Find(&parts).Error
	return parts, err
}

// GetMessage fetches a message within a conversation or returns ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, conversationID, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := db.WithContext(ctx).
		Where("id = ? AND conversation_id = ?", messageID, conversationID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListRecentMessages returns the latest limit messages of a conversation in
// chronological order (oldest first), for smart-reply context.
func ListRecentMessages(ctx context.Context, db *gorm.DB, conversationID string, limit int) ([]domain.Message, error) {
	var msgs []domain.Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetUserDevice fetches a user's device record or returns ErrNotFound.
func GetUserDevice(ctx context.Context, db *gorm.DB, userID string) (*domain.UserDevice, error) {
	var dev domain.UserDevice
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&dev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// ListUserDevices fetches device records for the given user IDs. Missing
// users are simply absent from the result, not an error.
func ListUserDevices(ctx context.Context, db *gorm.DB, userIDs []string) ([]domain.UserDevice, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var devs []domain.UserDevice
	err := db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&devs).Error
	return devs, err
}

// SaveUserDevice upserts a user's device record (token registration).
func SaveUserDevice(ctx context.Context, db *gorm.DB, dev *domain.UserDevice, now time.Time) error {
	dev.UpdatedAt = now
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "token", "updated_at"}),
	}).Create(dev).Error
}

// ClearUserToken blanks the stored push token for a user so subsequent
// dispatches skip the device. A missing user is a no-op.
func ClearUserToken(ctx context.Context, db *gorm.DB, userID string, now time.Time) error {
	return db.WithContext(ctx).Model(&domain.UserDevice{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"token": "", "updated_at": now}).Error
}

// UpdateConversationPreview sets the conversation's last-message preview,
// used by the reaction path to surface "{reactor} reacted … " in chat lists.
func UpdateConversationPreview(ctx context.Context, db *gorm.DB, conversationID, preview string, now time.Time) error {
	return db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]any{"last_message_preview": preview, "updated_at": now}).Error
}
