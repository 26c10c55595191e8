// Package services – AI Gateway
//
// The gateway fronts every call to the external language-model provider:
// translation and smart replies. Each operation enforces the per-user rate
// limit, consults the content-addressed cache, and only then invokes the
// provider with the feature's fixed sampling configuration. Successful
// results are written back to the cache; failures never are.
//
// Provider responses are decoded defensively: optional fields fall back to
// documented defaults, items missing the required reply text are dropped,
// and only a fully unusable response fails the operation.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the feature name, user id, and cache outcome.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/mtheof/go-chat-functions/internal/domain"
	"github.com/mtheof/go-chat-functions/internal/repo"
)

// Gateway feature names; these key the rate-limit windows, the cache
// entries, and the sampling configuration table.
const (
	FeatureTranslation  = "translation"
	FeatureSmartReplies = "smart_replies"
)

// Documented parsing defaults for provider responses.
const (
	defaultConfidence = 0.9
	defaultCategory   = "NEUTRAL"
)

// CompletionRequest is the provider-agnostic shape of one blocking
// request/response completion call.
type CompletionRequest struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       json.RawMessage
}

// Provider is the external language-model client consumed by the gateway.
type Provider interface {
	// Complete performs one blocking completion and returns the raw
	// message content.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// featureConfig fixes the sampling parameters per feature. The table is
// static: low temperature for deterministic tasks (translation), higher for
// conversational generation (smart replies).
type featureConfig struct {
	Temperature float64
	MaxTokens   int
	SchemaName  string
	Schema      json.RawMessage
}

var featureConfigs = map[string]featureConfig{
	FeatureTranslation: {
		Temperature: 0.2,
		MaxTokens:   1024,
		SchemaName:  "translation",
		Schema: json.RawMessage(`{
			"type":"object",
			"additionalProperties":false,
			"properties":{
				"translated_text":{"type":"string"},
				"detected_source_language":{"type":"string"}
			},
			"required":["translated_text"]
		}`),
	},
	FeatureSmartReplies: {
		Temperature: 0.7,
		MaxTokens:   512,
		SchemaName:  "smart_replies",
		Schema: json.RawMessage(`{
			"type":"object",
			"additionalProperties":false,
			"properties":{
				"replies":{
					"type":"array",
					"items":{
						"type":"object",
						"properties":{
							"reply_text":{"type":"string"},
							"confidence":{"type":"number"},
							"category":{"type":"string"}
						},
						"required":["reply_text"]
					}
				}
			},
			"required":["replies"]
		}`),
	},
}

// TranslationResult is the callable response for a translation.
type TranslationResult struct {
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Cached         bool   `json:"cached"`
}

// Reply is one smart-reply suggestion.
type Reply struct {
	ReplyText  string  `json:"reply_text"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// ReplySet is the callable response for smart replies.
type ReplySet struct {
	Replies []Reply `json:"replies"`
	Cached  bool    `json:"cached"`
}

// Gateway coordinates rate limiting, caching, and provider invocation.
type Gateway struct {
	DB       *gorm.DB
	Cache    CacheStore
	Limiter  *RateLimiter
	Provider Provider

	// Per-feature model names; sampling parameters live in featureConfigs.
	TranslationModel string
	RepliesModel     string

	// Rate-limit policy applied to every feature; zero values fall back to
	// the limiter defaults.
	MaxRequests int
	Window      time.Duration

	// HistoryDepth bounds the conversation context fed to smart replies.
	HistoryDepth int
}

// Translate returns the text translated into targetLang, serving from cache
// when an identical request was answered within the TTL.
func (g *Gateway) Translate(ctx context.Context, userID, text, sourceLang, targetLang string) (*TranslationResult, error) {
	tr := otel.Tracer("services/Gateway")
	ctx, span := tr.Start(ctx, "Translate",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("feature", FeatureTranslation),
		),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	target, err := canonicalLang(targetLang)
	if err != nil {
		return nil, err
	}
	source := "auto"
	if strings.TrimSpace(sourceLang) != "" {
		if source, err = canonicalLang(sourceLang); err != nil {
			return nil, err
		}
	}

	if err := g.Limiter.CheckAndRecord(ctx, userID, FeatureTranslation, g.MaxRequests, g.Window); err != nil {
		return nil, err
	}

	key := CacheKey(text, FeatureTranslation, source, target)
	if entry, ok := g.Cache.Get(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		g.Cache.TouchHit(ctx, key)
		return &TranslationResult{
			TranslatedText: entry.Result,
			SourceLanguage: source,
			TargetLanguage: target,
			Cached:         true,
		}, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	cfg := featureConfigs[FeatureTranslation]
	raw, err := g.Provider.Complete(ctx, CompletionRequest{
		Model:       g.TranslationModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		SystemPrompt: "You are a translation engine for a chat app. Translate the user message " +
			"and reply with JSON only.",
		UserPrompt: fmt.Sprintf("Translate from %s to %s:\n%s", source, target, text),
		SchemaName: cfg.SchemaName,
		Schema:     cfg.Schema,
	})
	if err != nil {
		return nil, &ProviderError{Feature: FeatureTranslation, Err: err}
	}

	var payload struct {
		TranslatedText         string `json:"translated_text"`
		DetectedSourceLanguage string `json:"detected_source_language"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &ProviderError{Feature: FeatureTranslation, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if strings.TrimSpace(payload.TranslatedText) == "" {
		return nil, &ProviderError{Feature: FeatureTranslation, Err: fmt.Errorf("response missing translated text")}
	}
	if source == "auto" && payload.DetectedSourceLanguage != "" {
		if detected, derr := canonicalLang(payload.DetectedSourceLanguage); derr == nil {
			source = detected
		}
	}

	if perr := g.Cache.Put(ctx, key, CachePut{
		OriginalInput: text,
		Result:        payload.TranslatedText,
		Feature:       FeatureTranslation,
		OwnerUserID:   userID,
	}); perr != nil {
		span.RecordError(perr)
	}

	return &TranslationResult{
		TranslatedText: payload.TranslatedText,
		SourceLanguage: source,
		TargetLanguage: target,
		Cached:         false,
	}, nil
}

// SmartReplies suggests replies to the incoming message, built from recent
// conversation context, serving from cache when possible.
func (g *Gateway) SmartReplies(ctx context.Context, userID, conversationID, messageID, targetLang string) (*ReplySet, error) {
	tr := otel.Tracer("services/Gateway")
	ctx, span := tr.Start(ctx, "SmartReplies",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", conversationID),
			attribute.String("feature", FeatureSmartReplies),
		),
	)
	defer span.End()

	target, err := canonicalLang(targetLang)
	if err != nil {
		return nil, err
	}

	if err := g.Limiter.CheckAndRecord(ctx, userID, FeatureSmartReplies, g.MaxRequests, g.Window); err != nil {
		return nil, err
	}

	msg, err := repo.GetMessage(ctx, g.DB, conversationID, messageID)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil, ErrEmptyText
	}

	key := CacheKey(msg.Text, FeatureSmartReplies, target)
	if entry, ok := g.Cache.Get(ctx, key); ok {
		var replies []Reply
		if uerr := json.Unmarshal([]byte(entry.Result), &replies); uerr == nil && len(replies) > 0 {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			g.Cache.TouchHit(ctx, key)
			return &ReplySet{Replies: replies, Cached: true}, nil
		}
		// Corrupt entry: fall through to the provider.
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	depth := g.HistoryDepth
	if depth <= 0 {
		depth = 10
	}
	history, herr := repo.ListRecentMessages(ctx, g.DB, conversationID, depth)
	if herr != nil {
		// Context is an enhancement; suggest from the incoming message alone.
		history = nil
	}

	cfg := featureConfigs[FeatureSmartReplies]
	raw, err := g.Provider.Complete(ctx, CompletionRequest{
		Model:       g.RepliesModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		SystemPrompt: fmt.Sprintf("You suggest up to 3 short chat replies in %s. "+
			"Reply with JSON only.", target),
		UserPrompt: buildReplyPrompt(history, msg),
		SchemaName: cfg.SchemaName,
		Schema:     cfg.Schema,
	})
	if err != nil {
		return nil, &ProviderError{Feature: FeatureSmartReplies, Err: err}
	}

	replies, err := parseReplies(raw)
	if err != nil {
		return nil, &ProviderError{Feature: FeatureSmartReplies, Err: err}
	}

	encoded, _ := json.Marshal(replies)
	if perr := g.Cache.Put(ctx, key, CachePut{
		OriginalInput: msg.Text,
		Result:        string(encoded),
		Feature:       FeatureSmartReplies,
		OwnerUserID:   userID,
	}); perr != nil {
		span.RecordError(perr)
	}

	return &ReplySet{Replies: replies, Cached: false}, nil
}

// parseReplies decodes the provider payload, applying the documented
// defaults per item and dropping items without reply text. An empty
// resulting set is an error.
func parseReplies(raw string) ([]Reply, error) {
	var payload struct {
		Replies []struct {
			ReplyText  string   `json:"reply_text"`
			Confidence *float64 `json:"confidence"`
			Category   string   `json:"category"`
		} `json:"replies"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}

	out := make([]Reply, 0, len(payload.Replies))
	for _, item := range payload.Replies {
		text := strings.TrimSpace(item.ReplyText)
		if text == "" {
			// Reply text is the one required field; drop the item.
			continue
		}
		r := Reply{ReplyText: text, Confidence: defaultConfidence, Category: defaultCategory}
		if item.Confidence != nil && *item.Confidence > 0 && *item.Confidence <= 1 {
			r.Confidence = *item.Confidence
		}
		if c := strings.TrimSpace(item.Category); c != "" {
			r.Category = strings.ToUpper(c)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("response contained no usable replies")
	}
	return out, nil
}

// buildReplyPrompt renders the recent history plus the incoming message as a
// compact transcript for the provider.
func buildReplyPrompt(history []domain.Message, incoming *domain.Message) string {
	var b strings.Builder
	for _, m := range history {
		if m.ID == incoming.ID || strings.TrimSpace(m.Text) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.SenderID, m.Text)
	}
	fmt.Fprintf(&b, "Incoming message: %s\nSuggest replies.", incoming.Text)
	return b.String()
}

// canonicalLang validates and canonicalizes a BCP 47 language tag.
func canonicalLang(tag string) (string, error) {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", ErrInvalidLanguage
	}
	return parsed.String(), nil
}
