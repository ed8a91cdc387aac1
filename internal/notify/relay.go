package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Relay delivers queued events to the downstream webhook. The webhook is the
// portal endpoint that fans events out to connected browser sessions.
type Relay struct {
	WebhookURL string
	HTTPClient *http.Client
}

// NewRelay constructs a Relay.
func NewRelay(webhookURL string) (*Relay, error) {
	if strings.TrimSpace(webhookURL) == "" {
		return nil, fmt.Errorf("notify webhook url is required")
	}
	return &Relay{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Deliver POSTs the event to the webhook. Non-2xx responses are errors so the
// queue message stays visible for redelivery.
func (r *Relay) Deliver(ctx context.Context, ev Event) error {
	payload, err := EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode notify event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", ev.SessionID)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
