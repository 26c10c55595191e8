// Trigger event payloads.
//
// These mirror the document-create/update events the platform delivers to the
// trigger layer. Each invocation is independent and carries everything needed
// to dispatch notifications; delivery is at-least-once, so dispatch must
// tolerate the occasional duplicate fire.
package domain

import "sort"

// MessageCreatedEvent fires once per new message document.
type MessageCreatedEvent struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	MessageID      string `json:"message_id"      binding:"required"`
	SenderID       string `json:"sender_id"       binding:"required"`
	Kind           string `json:"type"            binding:"required"`
	Text           string `json:"text"`
}

// ReactionSet maps an emoji to the set of user IDs who reacted with it.
type ReactionSet map[string][]string

// ReactionUpdatedEvent fires when a message's reaction map changes. Before
// and After are the full reaction maps from the triggering update.
type ReactionUpdatedEvent struct {
	ConversationID string      `json:"conversation_id" binding:"required"`
	MessageID      string      `json:"message_id"      binding:"required"`
	ReactorID      string      `json:"sender_id"       binding:"required"`
	Before         ReactionSet `json:"before"`
	After          ReactionSet `json:"after"`
}

// ReactionDelta is one newly added reaction: the emoji plus the user who
// added it. Removed reactions produce no delta.
type ReactionDelta struct {
	Emoji  string
	UserID string
}

// AddedReactions computes After − Before per emoji: the user IDs present in
// the updated map but not the previous one. Deltas are ordered by emoji then
// user ID so repeated invocations of the same event are deterministic.
func (e *ReactionUpdatedEvent) AddedReactions() []ReactionDelta {
	var deltas []ReactionDelta
	for emoji, after := range e.After {
		before := make(map[string]struct{}, len(e.Before[emoji]))
		for _, uid := range e.Before[emoji] {
			before[uid] = struct{}{}
		}
		for _, uid := range after {
			if _, seen := before[uid]; !seen {
				deltas = append(deltas, ReactionDelta{Emoji: emoji, UserID: uid})
			}
		}
	}
	sort.Slice(deltas, func(i, j int) bool {
		if deltas[i].Emoji != deltas[j].Emoji {
			return deltas[i].Emoji < deltas[j].Emoji
		}
		return deltas[i].UserID < deltas[j].UserID
	})
	return deltas
}
