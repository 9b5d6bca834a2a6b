package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

const (
	webhookTimeout  = 15 * time.Second
	webhookUsername = "Accountability Bot"
)

// ErrWebhookStatus is wrapped when the webhook answers with a non-2xx status.
var ErrWebhookStatus = errors.New("webhook returned non-success status")

// webhookMessage is the Discord-compatible payload.
type webhookMessage struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// WebhookNotifier posts messages to a chat webhook, rate-limited per URL.
type WebhookNotifier struct {
	client  *http.Client
	limiter *RateLimiter
	logger  *zap.Logger
}

// NewWebhookNotifier creates a notifier with the given per-URL minimum interval.
func NewWebhookNotifier(interval time.Duration, logger *zap.Logger) *WebhookNotifier {
	return NewWebhookNotifierWithDeps(&http.Client{Timeout: webhookTimeout}, NewRateLimiter(interval), logger)
}

// NewWebhookNotifierWithDeps creates a notifier with injectable dependencies (for testing).
func NewWebhookNotifierWithDeps(client *http.Client, limiter *RateLimiter, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client:  client,
		limiter: limiter,
		logger:  logger,
	}
}

// Notify posts message to webhookURL. An empty URL is a silent no-op.
// The rate-limit check happens before, and independently of, the network call.
func (n *WebhookNotifier) Notify(ctx context.Context, webhookURL, message string) error {
	if webhookURL == "" {
		return nil
	}

	if err := n.limiter.Allow(webhookURL); err != nil {
		return err
	}

	body, err := json.Marshal(webhookMessage{Content: message, Username: webhookUsername})
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "neuguard")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrWebhookStatus, resp.StatusCode, bytes.TrimSpace(text))
	}

	n.logger.Debug("webhook sent", zap.Int("status", resp.StatusCode))
	return nil
}

// Ensure WebhookNotifier implements domain.Notifier.
var _ domain.Notifier = (*WebhookNotifier)(nil)
