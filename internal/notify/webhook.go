package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deusflow/toranews/internal/retry"
)

// Message is the JSON body of a chat webhook post.
type Message struct {
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook error: %s", e.Status)
	}
	return fmt.Sprintf("webhook error: %s: %s", e.Status, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Webhook posts messages to one chat webhook URL.
type Webhook struct {
	url    string
	client *http.Client
	policy retry.Config
}

// NewWebhook creates a sender. A nil client gets a 30s timeout.
func NewWebhook(url string, client *http.Client, policy retry.Config) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if policy.Retryable == nil {
		policy.Retryable = retryable
	}
	return &Webhook{url: url, client: client, policy: policy}
}

// Send posts msg, retrying per the configured policy.
func (w *Webhook) Send(ctx context.Context, msg Message) error {
	return retry.WithRetry(ctx, w.policy, func() error {
		return w.sendOnce(ctx, msg)
	})
}

func (w *Webhook) sendOnce(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(text))}
	}
	return nil
}

// retryable retries transport failures and temporary statuses, never client errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
