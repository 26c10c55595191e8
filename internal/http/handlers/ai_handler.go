// AI HTTP handlers.
//
// This file exposes the AI gateway endpoints:
//   - POST /ai/translate   (translate a message)
//   - POST /ai/replies     (suggest smart replies for an incoming message)
//
// Handlers are transport-thin: they validate input, call the gateway, and
// translate results into HTTP responses. Rate-limit rejections surface as 429
// with a retry_after_minutes hint; provider failures as 502.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/mtheof/go-chat-functions/internal/http/middleware"
	"github.com/mtheof/go-chat-functions/internal/services"
)

// maxTranslateRunes caps the text accepted for translation at the edge.
const maxTranslateRunes = 4000

//
// Service contracts (context-aware)
//

// AIService defines the gateway operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AIService interface {
	// Translate returns text translated into targetLang, cache-first.
	Translate(ctx context.Context, userID, text, sourceLang, targetLang string) (*services.TranslationResult, error)
	// SmartReplies suggests replies to the given incoming message.
	SmartReplies(ctx context.Context, userID, conversationID, messageID, targetLang string) (*services.ReplySet, error)
}

//
// DTOs
//

// TranslateRequest is the JSON payload for a translation.
type TranslateRequest struct {
	// Text is the message to translate. It must be non-empty.
	Text string `json:"text" binding:"required,min=1" example:"Hello, how are you?"`
	// SourceLanguage optionally pins the source; empty means auto-detect.
	SourceLanguage string `json:"source_language" example:"en"`
	// TargetLanguage is the BCP 47 tag to translate into.
	TargetLanguage string `json:"target_language" binding:"required" example:"es"`
}

// SmartRepliesRequest is the JSON payload for reply suggestions.
type SmartRepliesRequest struct {
	// ConversationID identifies the conversation the message belongs to.
	ConversationID string `json:"conversation_id" binding:"required" example:"conv-42"`
	// MessageID identifies the incoming message to reply to.
	MessageID string `json:"message_id" binding:"required" example:"msg-7"`
	// TargetLanguage is the language suggestions are written in.
	TargetLanguage string `json:"target_language" binding:"required" example:"en"`
}

// RateLimitedResponse extends the error envelope with the retry hint.
type RateLimitedResponse struct {
	ErrorResponse
	RetryAfterMinutes int `json:"retry_after_minutes" example:"12"`
}

//
// Handlers
//

// Translate godoc
// @ID          translate
// @Summary     Translate a chat message
// @Description Translates text into the target language. Identical requests
// @Description within the cache TTL are served from the response cache.
// @Tags        AI
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                    true  "Requesting user"  example(user123)
// @Param       body       body    handlers.TranslateRequest true  "Translation payload"
//
// @Success     200  {object}  services.TranslationResult
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     429  {object}  handlers.RateLimitedResponse  "Rate limit exceeded"
// @Failure     502  {object}  handlers.ErrorResponse        "Provider failure"
// @Router      /ai/translate [post]
func (h *Handlers) Translate(c *gin.Context) {
	ctx := c.Request.Context()

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text and target_language required")
		return
	}
	if utf8.RuneCountInString(req.Text) > maxTranslateRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("text too long: max %d runes", maxTranslateRunes))
		return
	}

	res, err := h.ai.Translate(ctx, userID(c), req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		failAI(c, services.FeatureTranslation, err)
		return
	}

	middleware.ObserveCacheOutcome(services.FeatureTranslation, res.Cached)
	ok(c, http.StatusOK, res)
}

// SmartReplies godoc
// @ID          smartReplies
// @Summary     Suggest replies to a message
// @Description Generates up to three short reply suggestions for the given
// @Description incoming message, using recent conversation context.
// @Tags        AI
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                       true  "Requesting user"  example(user123)
// @Param       body       body    handlers.SmartRepliesRequest true  "Reply suggestion payload"
//
// @Success     200  {object}  services.ReplySet
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse        "Message not found"
// @Failure     429  {object}  handlers.RateLimitedResponse  "Rate limit exceeded"
// @Failure     502  {object}  handlers.ErrorResponse        "Provider failure"
// @Router      /ai/replies [post]
func (h *Handlers) SmartReplies(c *gin.Context) {
	ctx := c.Request.Context()

	var req SmartRepliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation_id, message_id and target_language required")
		return
	}

	res, err := h.ai.SmartReplies(ctx, userID(c), req.ConversationID, req.MessageID, req.TargetLanguage)
	if err != nil {
		failAI(c, services.FeatureSmartReplies, err)
		return
	}

	middleware.ObserveCacheOutcome(services.FeatureSmartReplies, res.Cached)
	ok(c, http.StatusOK, res)
}

// failAI maps gateway errors onto the HTTP error taxonomy.
func failAI(c *gin.Context, feature string, err error) {
	var rle *services.RateLimitError
	var pe *services.ProviderError
	switch {
	case errors.As(err, &rle):
		c.Header("Retry-After", fmt.Sprintf("%d", rle.RetryAfterMinutes()*60))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitedResponse{
			ErrorResponse: ErrorResponse{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeRateLimited,
				Message:   fmt.Sprintf("rate limit exceeded for %s", rle.Feature),
			},
			RetryAfterMinutes: rle.RetryAfterMinutes(),
		})
	case errors.As(err, &pe):
		fail(c, http.StatusBadGateway, ErrCodeProviderFailed, fmt.Sprintf("%s temporarily unavailable", feature))
	case errors.Is(err, services.ErrEmptyText):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
	case errors.Is(err, services.ErrInvalidLanguage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid language tag")
	case errors.Is(err, services.ErrMessageNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware), falling back to the X-User-ID header, and finally to
// "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}
