// Package domain defines the persistence models owned by the serverless chat
// core: the content-addressed AI response cache, the per-user rate-limit
// windows, device push tokens, and the conversation directory consumed by the
// notification dispatcher. These types are mapped with GORM.
package domain

import (
	"time"
)

// Cache TTL applied to AI responses. Entries older than this are treated as
// absent on read and purged lazily.
const CacheTTL = 30 * 24 * time.Hour

// CacheEntry is one cached AI result, keyed by a SHA-256 digest of the
// normalized input text plus auxiliary parameters (e.g. target language).
//
// Fields:
//   - Key: 64-char hex digest, unique; the content address.
//   - OriginalInput: the normalized input the digest was computed from.
//   - Result: the provider output stored verbatim (JSON or plain text).
//   - Feature: which gateway feature produced the entry ("translation", ...).
//   - OwnerUserID: user whose request first populated the entry.
//   - CreatedAt / ExpiresAt: ExpiresAt is always CreatedAt + CacheTTL.
//   - HitCount / LastAccessedAt: hit bookkeeping, updated on every cache hit.
type CacheEntry struct {
	Key            string    `json:"key"              gorm:"primaryKey;type:char(64)"`
	OriginalInput  string    `json:"original_input"   gorm:"type:text;not null"`
	Result         string    `json:"result"           gorm:"type:text;not null"`
	Feature        string    `json:"feature"          gorm:"type:varchar(32);not null;index"`
	OwnerUserID    string    `json:"owner_user_id"    gorm:"type:varchar(64);not null"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"       gorm:"index"`
	HitCount       int64     `json:"hit_count"        gorm:"not null;default:0"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string { return "ai_cache_entries" }

// IsExpired reports whether the entry has outlived its TTL at the given
// instant. Expired entries must be treated as cache misses.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// RateLimitWindow is the persisted sliding window for one (user, feature)
// pair. Timestamps are stored as a JSON-encoded array of Unix milliseconds so
// the record survives across stateless invocations.
//
// The row is created on first request, rewritten on every request (prune
// stale, append current), and never explicitly deleted.
type RateLimitWindow struct {
	ID          string    `json:"id"           gorm:"primaryKey;type:char(36)"`
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);not null;uniqueIndex:ux_rate_user_feature"`
	Feature     string    `json:"feature"      gorm:"type:varchar(32);not null;uniqueIndex:ux_rate_user_feature"`
	Timestamps  string    `json:"timestamps"   gorm:"type:text;not null;default:'[]'"`
	WindowStart time.Time `json:"window_start"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for RateLimitWindow.
func (RateLimitWindow) TableName() string { return "rate_limit_windows" }

// UserDevice holds the current push delivery token for a user, plus profile
// fields the dispatcher needs when composing notifications. Token is cleared
// (set empty) when the push transport reports it invalid; users without a
// token are silently skipped by the dispatcher.
type UserDevice struct {
	UserID      string    `json:"user_id"      gorm:"primaryKey;type:varchar(64)"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(128);not null"`
	Token       string    `json:"-"            gorm:"type:varchar(512);index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserDevice.
func (UserDevice) TableName() string { return "user_devices" }

// Conversation kinds. Direct conversations title pushes with the sender name;
// group conversations use "{sender} in {group name}".
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Conversation is the dispatcher's read model of a chat: kind, optional group
// name, and the last-message preview the reaction path updates.
type Conversation struct {
	ID                 string    `json:"id"                   gorm:"primaryKey;type:char(36)"`
	Kind               string    `json:"kind"                 gorm:"type:varchar(16);not null;check:kind IN ('direct','group')"`
	Name               string    `json:"name"                 gorm:"type:varchar(128)"`
	LastMessagePreview string    `json:"last_message_preview" gorm:"type:varchar(256)"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Participant links a user to a conversation, carrying the optional per-
// conversation nickname override used when attributing reactions.
type Participant struct {
	ConversationID string `json:"conversation_id" gorm:"primaryKey;type:char(36);index:idx_conv_participants"`
	UserID         string `json:"user_id"         gorm:"primaryKey;type:varchar(64)"`
	Nickname       string `json:"nickname"        gorm:"type:varchar(128)"`
}

// TableName returns the database table name for Participant.
func (Participant) TableName() string { return "participants" }

// Message kinds mirrored from the client event payloads.
const (
	MessageText   = "TEXT"
	MessageImage  = "IMAGE"
	MessageSystem = "SYSTEM"
)

// Message is the directory's copy of a chat message. The dispatcher reads it
// to find the reaction target's owner and original text; the gateway reads
// recent messages to build smart-reply context.
type Message struct {
	ID             string    `json:"id"              gorm:"primaryKey;type:char(36)"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	SenderID       string    `json:"sender_id"       gorm:"type:varchar(64);not null"`
	Kind           string    `json:"kind"            gorm:"type:varchar(16);not null"`
	Text           string    `json:"text"            gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conv_msgs,priority:2"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
