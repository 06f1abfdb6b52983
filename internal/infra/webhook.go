package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// AlertNotifier posts engine alerts to an optional webhook endpoint.
// With an empty URL every call is a no-op, so call sites stay unconditional.
type AlertNotifier struct {
	url        string
	httpClient *http.Client
}

// NewAlertNotifier creates a notifier for the given webhook URL.
func NewAlertNotifier(url string) *AlertNotifier {
	return &AlertNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type alertPayload struct {
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
	SentAt  int64  `json:"sent_at"`
}

// Notify posts the alert. Delivery failures are logged, never returned;
// alerting must not disturb the engine.
func (n *AlertNotifier) Notify(ctx context.Context, subject, detail string) {
	if n == nil || n.url == "" {
		return
	}

	body, err := json.Marshal(alertPayload{
		Subject: subject,
		Detail:  detail,
		SentAt:  time.Now().Unix(),
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("Alert webhook request build failed", slog.Any("error", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		slog.Warn("Alert webhook delivery failed", slog.Any("error", err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.Warn("Alert webhook rejected", slog.Int("status", resp.StatusCode))
	}
}
