// Package services – NotificationDispatcher
//
// Reacts to message-created and reaction-updated events: resolves recipients
// from the conversation directory, composes and sends pushes, and prunes
// tokens the transport reports as invalid. Each event runs the same phases:
// resolve recipients → send → clean up failed tokens → done, short-circuiting
// to "skipped" when nobody is eligible (no co-participants with tokens, or a
// reactor reacting to their own message).
//
// Dispatch is at-least-once by contract: a retried trigger may duplicate a
// push, which is acceptable; per-token failures never fail the dispatch.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/push"
	"github.com/mtheof/go-chat-functions/internal/repo"
	"github.com/mtheof/go-chat-functions/internal/utils"
)

// Dispatch outcome states reported in the receipt.
const (
	DispatchDone    = "DONE"
	DispatchSkipped = "SKIPPED"
)

const (
	imagePlaceholderBody = "📷 Photo"
	genericMessageBody   = "New message"
	defaultGroupLabel    = "Group chat"
	fallbackDisplayName  = "Someone"
)

// DispatchReceipt summarizes one dispatch for the trigger layer.
type DispatchReceipt struct {
	State         string `json:"state"`
	Requested     int    `json:"requested"`
	Delivered     int    `json:"delivered"`
	Failed        int    `json:"failed"`
	TokensCleared int    `json:"tokens_cleared"`
}

// Dispatcher fans events out to push recipients.
type Dispatcher struct {
	DB     *gorm.DB
	Sender push.Sender

	// BodyMaxRunes clips message text quoted in notification bodies.
	BodyMaxRunes int

	// Now is the clock used for directory writes; defaults to time.Now.
	Now func() time.Time
}

// NewDispatcher constructs a Dispatcher with default body truncation.
func NewDispatcher(db *gorm.DB, sender push.Sender) *Dispatcher {
	return &Dispatcher{DB: db, Sender: sender, BodyMaxRunes: 120}
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// HandleMessageCreated notifies every conversation participant besides the
// sender about a new message via one multicast send.
func (d *Dispatcher) HandleMessageCreated(ctx context.Context, ev *domain.MessageCreatedEvent) (*DispatchReceipt, error) {
	tr := otel.Tracer("services/Dispatcher")
	ctx, span := tr.Start(ctx, "HandleMessageCreated",
		trace.WithAttributes(
			attribute.String("conversation.id", ev.ConversationID),
			attribute.String("message.id", ev.MessageID),
		),
	)
	defer span.End()

	conv, err := repo.GetConversation(ctx, d.DB, ev.ConversationID)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	// Resolve recipients: everyone but the sender who has a token.
	parts, err := repo.ListParticipants(ctx, d.DB, ev.ConversationID)
	if err != nil {
		return nil, err
	}
	var recipientIDs []string
	for _, p := range parts {
		if p.UserID != ev.SenderID {
			recipientIDs = append(recipientIDs, p.UserID)
		}
	}
	devices, err := repo.ListUserDevices(ctx, d.DB, recipientIDs)
	if err != nil {
		return nil, err
	}
	tokenOwner := make(map[string]string, len(devices))
	var tokens []string
	for _, dev := range devices {
		if dev.Token == "" {
			continue // token-less recipients are dropped silently
		}
		tokens = append(tokens, dev.Token)
		tokenOwner[dev.Token] = dev.UserID
	}
	if len(tokens) == 0 {
		span.SetAttributes(attribute.String("dispatch.state", DispatchSkipped))
		return &DispatchReceipt{State: DispatchSkipped}, nil
	}

	senderName := d.displayName(ctx, ev.SenderID)
	n := push.Notification{
		Title: messageTitle(conv, senderName),
		Body:  d.messageBody(ev),
		Data: map[string]string{
			"kind":            push.KindNewMessage,
			"conversation_id": ev.ConversationID,
			"message_id":      ev.MessageID,
			"sender_id":       ev.SenderID,
		},
	}

	result, err := d.Sender.SendMulticast(ctx, tokens, n)
	if err != nil {
		return nil, err
	}

	cleared := d.clearFailedTokens(ctx, result.FailedTokens(), tokenOwner)
	receipt := &DispatchReceipt{
		State:         DispatchDone,
		Requested:     len(tokens),
		Delivered:     result.SuccessCount(),
		Failed:        result.FailureCount(),
		TokensCleared: cleared,
	}
	span.SetAttributes(
		attribute.String("dispatch.state", receipt.State),
		attribute.Int("dispatch.delivered", receipt.Delivered),
	)
	return receipt, nil
}

// HandleReactionUpdated notifies the message owner about each newly added
// reaction and refreshes the conversation's last-message preview. Removed
// reactions and self-reactions produce nothing.
func (d *Dispatcher) HandleReactionUpdated(ctx context.Context, ev *domain.ReactionUpdatedEvent) (*DispatchReceipt, error) {
	tr := otel.Tracer("services/Dispatcher")
	ctx, span := tr.Start(ctx, "HandleReactionUpdated",
		trace.WithAttributes(
			attribute.String("conversation.id", ev.ConversationID),
			attribute.String("message.id", ev.MessageID),
		),
	)
	defer span.End()

	deltas := ev.AddedReactions()
	if len(deltas) == 0 {
		span.SetAttributes(attribute.String("dispatch.state", DispatchSkipped))
		return &DispatchReceipt{State: DispatchSkipped}, nil
	}

	msg, err := repo.GetMessage(ctx, d.DB, ev.ConversationID, ev.MessageID)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	owner := msg.SenderID

	nicknames := d.conversationNicknames(ctx, ev.ConversationID)

	receipt := &DispatchReceipt{State: DispatchDone}
	var previewed bool
	for _, delta := range deltas {
		if delta.UserID == owner {
			continue // reacting to your own message notifies nobody
		}

		reactorName := nicknames[delta.UserID]
		if reactorName == "" {
			reactorName = d.displayName(ctx, delta.UserID)
		}

		if !previewed {
			preview := fmt.Sprintf("%s reacted %s to a message", reactorName, delta.Emoji)
			if perr := repo.UpdateConversationPreview(ctx, d.DB, ev.ConversationID, preview, d.now()); perr != nil {
				log.Warn().Err(perr).Str("conversation_id", ev.ConversationID).Msg("preview update failed")
			}
			previewed = true
		}

		dev, derr := repo.GetUserDevice(ctx, d.DB, owner)
		if derr != nil || dev.Token == "" {
			continue // unreachable owner is not an error
		}

		receipt.Requested++
		n := push.Notification{
			Title: fmt.Sprintf("%s reacted %s", reactorName, delta.Emoji),
			Body:  d.reactionBody(msg),
			Data: map[string]string{
				"kind":            push.KindReaction,
				"conversation_id": ev.ConversationID,
				"message_id":      ev.MessageID,
				"reactor_id":      delta.UserID,
				"emoji":           delta.Emoji,
			},
		}
		if serr := d.Sender.Send(ctx, dev.Token, n); serr != nil {
			receipt.Failed++
			log.Warn().Err(serr).Str("user_id", owner).Msg("reaction push failed, clearing token")
			if cerr := repo.ClearUserToken(ctx, d.DB, owner, d.now()); cerr == nil {
				receipt.TokensCleared++
			}
			continue
		}
		receipt.Delivered++
	}

	if receipt.Requested == 0 {
		receipt.State = DispatchSkipped
	}
	span.SetAttributes(
		attribute.String("dispatch.state", receipt.State),
		attribute.Int("dispatch.delivered", receipt.Delivered),
	)
	return receipt, nil
}

// messageTitle derives the push title from the conversation kind.
func messageTitle(conv *domain.Conversation, senderName string) string {
	if conv.Kind == domain.ConversationGroup {
		name := conv.Name
		if strings.TrimSpace(name) == "" {
			name = defaultGroupLabel
		}
		return fmt.Sprintf("%s in %s", senderName, name)
	}
	return senderName
}

// messageBody derives the push body from the message kind.
func (d *Dispatcher) messageBody(ev *domain.MessageCreatedEvent) string {
	switch ev.Kind {
	case domain.MessageImage:
		return imagePlaceholderBody
	case domain.MessageText:
		if strings.TrimSpace(ev.Text) != "" {
			return utils.TruncateRunes(ev.Text, d.BodyMaxRunes)
		}
	}
	return genericMessageBody
}

// reactionBody quotes the reacted-to message, truncated.
func (d *Dispatcher) reactionBody(msg *domain.Message) string {
	if msg.Kind == domain.MessageImage || strings.TrimSpace(msg.Text) == "" {
		return imagePlaceholderBody
	}
	return utils.TruncateRunes(msg.Text, d.BodyMaxRunes)
}

// displayName resolves a user's display name, falling back to a generic
// label when the record is missing.
func (d *Dispatcher) displayName(ctx context.Context, userID string) string {
	dev, err := repo.GetUserDevice(ctx, d.DB, userID)
	if err != nil || strings.TrimSpace(dev.DisplayName) == "" {
		return fallbackDisplayName
	}
	return dev.DisplayName
}

// conversationNicknames returns the per-conversation nickname overrides.
func (d *Dispatcher) conversationNicknames(ctx context.Context, conversationID string) map[string]string {
	parts, err := repo.ListParticipants(ctx, d.DB, conversationID)
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(parts))
	for _, p := range parts {
		if p.Nickname != "" {
			out[p.UserID] = p.Nickname
		}
	}
	return out
}

// clearFailedTokens blanks every failed token on its owning user record and
// returns how many were cleared.
func (d *Dispatcher) clearFailedTokens(ctx context.Context, failed []string, tokenOwner map[string]string) int {
	cleared := 0
	for _, token := range failed {
		owner, ok := tokenOwner[token]
		if !ok {
			continue
		}
		if err := repo.ClearUserToken(ctx, d.DB, owner, d.now()); err != nil {
			log.Warn().Err(err).Str("user_id", owner).Msg("token cleanup failed")
			continue
		}
		cleared++
	}
	return cleared
}
