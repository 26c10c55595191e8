// Package push defines the push-notification transport consumed by the
// dispatcher: single-target and multicast sends that report per-token
// success or failure so invalid tokens can be pruned.
package push

import "context"

// Payload kinds carried in the data map under "kind".
const (
	KindNewMessage = "NEW_MESSAGE"
	KindReaction   = "REACTION"
)

// Notification is one outbound push: display fields plus a data map the
// client uses to route taps (conversation id, message id, sender/reactor id,
// emoji, truncated text).
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// SendResult is the outcome for one target token.
type SendResult struct {
	Token string
	Err   error
}

// MulticastResult aggregates per-token outcomes of one batched send.
type MulticastResult struct {
	Results []SendResult
}

// SuccessCount returns the number of tokens delivered to.
func (r *MulticastResult) SuccessCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// FailureCount returns the number of tokens the transport rejected.
func (r *MulticastResult) FailureCount() int {
	return len(r.Results) - r.SuccessCount()
}

// FailedTokens returns the tokens that must be cleared from their owners.
func (r *MulticastResult) FailedTokens() []string {
	var failed []string
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res.Token)
		}
	}
	return failed
}

// Sender is the transport contract. Implementations must report per-token
// outcomes on multicast rather than failing the whole batch.
type Sender interface {
	// Send delivers one notification to a single token.
	Send(ctx context.Context, token string, n Notification) error

	// SendMulticast delivers one notification to every token in a single
	// batched call, returning each token's outcome.
	SendMulticast(ctx context.Context, tokens []string, n Notification) (*MulticastResult, error)
}
