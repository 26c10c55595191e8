// Event trigger HTTP handlers.
//
// This file exposes the webhook endpoints invoked when chat events occur:
//   - POST /events/message-created
//   - POST /events/reaction-updated
//
// Both endpoints return the dispatch receipt so callers can observe the
// outcome (DONE/SKIPPED, delivery counts). Dispatch is at-least-once: a
// retried trigger may duplicate a push, which is acceptable, so transient
// failures are reported as 500 for the caller to retry while terminal
// failures (unknown conversation/message) are 404.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/http/middleware"
	"github.com/mtheof/go-chat-functions/internal/push"
	"github.com/mtheof/go-chat-functions/internal/services"
)

// MessageCreated godoc
// @ID          messageCreated
// @Summary     Dispatch notifications for a new message
// @Description Notifies every conversation participant besides the sender.
// @Tags        Events
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.MessageCreatedEvent  true  "Message-created event"
//
// @Success     200  {object}  services.DispatchReceipt
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Dispatch failed (retryable)"
// @Router      /events/message-created [post]
func (h *Handlers) MessageCreated(c *gin.Context) {
	ctx := c.Request.Context()

	var ev domain.MessageCreatedEvent
	if err := c.ShouldBindJSON(&ev); err != nil || ev.ConversationID == "" || ev.MessageID == "" || ev.SenderID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation_id, message_id and sender_id required")
		return
	}

	receipt, err := h.events.HandleMessageCreated(ctx, &ev)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDispatchFailed, err.Error())
		return
	}

	middleware.ObservePushDeliveries(push.KindNewMessage, receipt.Delivered, receipt.Failed)
	ok(c, http.StatusOK, receipt)
}

// ReactionUpdated godoc
// @ID          reactionUpdated
// @Summary     Dispatch notifications for reaction changes
// @Description Notifies the message owner about each newly added reaction.
// @Description Removed reactions and self-reactions dispatch nothing.
// @Tags        Events
// @Accept      json
// @Produce     json
//
// @Param       body  body  domain.ReactionUpdatedEvent  true  "Reaction-updated event"
//
// @Success     200  {object}  services.DispatchReceipt
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Dispatch failed (retryable)"
// @Router      /events/reaction-updated [post]
func (h *Handlers) ReactionUpdated(c *gin.Context) {
	ctx := c.Request.Context()

	var ev domain.ReactionUpdatedEvent
	if err := c.ShouldBindJSON(&ev); err != nil || ev.ConversationID == "" || ev.MessageID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation_id and message_id required")
		return
	}

	receipt, err := h.events.HandleReactionUpdated(ctx, &ev)
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDispatchFailed, err.Error())
		return
	}

	middleware.ObservePushDeliveries(push.KindReaction, receipt.Delivered, receipt.Failed)
	ok(c, http.StatusOK, receipt)
}
