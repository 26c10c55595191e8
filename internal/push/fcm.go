// FCM HTTP transport.
//
// Thin client for the FCM v1 send endpoint. A multicast is modeled as one
// batched transport call from the dispatcher's point of view; under the hood
// the v1 API takes one message per request, so the client fans the batch out
// concurrently and aggregates per-token outcomes. Failures carry enough
// status context for the dispatcher to prune dead tokens.
package push

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"context"
)

// HTTPStatusError captures non-2xx upstream responses with status context.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("push: unexpected status %d: %s", e.StatusCode, e.Body)
}

// fcmMessage is the minimal request shape for the v1 send endpoint.
type fcmMessage struct {
	Message struct {
		Token        string            `json:"token"`
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data,omitempty"`
	} `json:"message"`
}

// FCMClient sends pushes through the FCM v1 HTTP API.
type FCMClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// FCMOption customizes an FCMClient.
type FCMOption func(*FCMClient)

// WithEndpoint overrides the send endpoint (used by tests).
func WithEndpoint(endpoint string) FCMOption {
	return func(c *FCMClient) { c.endpoint = strings.TrimSpace(endpoint) }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) FCMOption {
	return func(c *FCMClient) { c.httpClient = hc }
}

// NewFCMClient constructs a client for the given project using a bearer
// token for authorization.
func NewFCMClient(projectID, bearerToken string, opts ...FCMOption) (*FCMClient, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("push: project id must not be empty")
	}
	c := &FCMClient{
		endpoint:   fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", projectID),
		token:      bearerToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send implements Sender for a single token.
func (c *FCMClient) Send(ctx context.Context, token string, n Notification) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("push: token must not be empty")
	}
	var msg fcmMessage
	msg.Message.Token = token
	msg.Message.Notification = map[string]string{"title": n.Title, "body": n.Body}
	msg.Message.Data = n.Data

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("push: marshal message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, Body: string(buf)}
	}
	return nil
}

// SendMulticast implements Sender by fanning the batch out concurrently and
// collecting each token's outcome. The overall error is nil unless the batch
// could not be attempted at all; individual failures live in the result.
func (c *FCMClient) SendMulticast(ctx context.Context, tokens []string, n Notification) (*MulticastResult, error) {
	result := &MulticastResult{Results: make([]SendResult, len(tokens))}
	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			result.Results[i] = SendResult{Token: token, Err: c.Send(ctx, token, n)}
		}(i, token)
	}
	wg.Wait()
	return result, nil
}
