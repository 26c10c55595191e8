// Handler wiring.
//
// Handlers groups the HTTP endpoints for AI features, event triggers, device
// registration, and cache administration. It depends on abstract service
// interfaces to keep transport concerns separate from business logic; the
// directory/device operations go through the repo layer directly, matching
// their thin read/write semantics.
package handlers

import (
	"context"

	"gorm.io/gorm"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/services"
)

// EventService defines the dispatch operations consumed by the event-trigger
// endpoints.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type EventService interface {
	// HandleMessageCreated notifies conversation participants about a new message.
	HandleMessageCreated(ctx context.Context, ev *domain.MessageCreatedEvent) (*services.DispatchReceipt, error)
	// HandleReactionUpdated notifies the message owner about newly added reactions.
	HandleReactionUpdated(ctx context.Context, ev *domain.ReactionUpdatedEvent) (*services.DispatchReceipt, error)
}

// Handlers groups HTTP endpoints for the AI gateway, event triggers, devices,
// and cache administration.
type Handlers struct {
	ai     AIService
	events EventService
	db     *gorm.DB
}

// New constructs and returns a Handlers instance bound to the given services.
func New(ai AIService, events EventService, db *gorm.DB) *Handlers {
	return &Handlers{ai: ai, events: events, db: db}
}
