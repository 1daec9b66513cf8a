package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ecotrade/pricefeed/internal/infra"
)

// Notifier sends a broadcast push notification. Delivery is best-effort;
// implementations never block the evaluator for long and callers only
// log failures.
type Notifier interface {
	Send(ctx context.Context, title, body string) error
}

// BroadcastTopic is the topic every mobile client subscribes to.
const BroadcastTopic = "all_users"

// WebhookNotifier posts alerts to the push-delivery collaborator over
// HTTP. The actual FCM/device fan-out lives behind that endpoint.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
}

// NewWebhookNotifier creates a notifier posting to the given endpoint.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, timeout: 10 * time.Second}
}

type webhookPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Topic string `json:"topic"`
}

// Send posts the notification payload.
func (n *WebhookNotifier) Send(ctx context.Context, title, body string) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	payload, err := json.Marshal(webhookPayload{Title: title, Body: body, Topic: BroadcastTopic})
	if err != nil {
		return fmt.Errorf("encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := infra.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &infra.ErrHTTP{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// LogNotifier writes alerts to the log. Used when no webhook is
// configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Send logs the alert.
func (n *LogNotifier) Send(_ context.Context, title, body string) error {
	n.log.Info("price alert", zap.String("title", title), zap.String("body", body))
	return nil
}
