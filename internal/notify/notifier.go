// Package notify dispatches match notifications to an external webhook.
// Calls are fire-and-forget through the outbox relay: failures are logged
// and retried there, never propagated into core flows.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Kind names the notification events the dispatcher emits.
const (
	KindMatchProposed = "match.proposed"
	KindMatchAccepted = "match.accepted"
)

// Notification is the webhook payload.
type Notification struct {
	Kind         string   `json:"kind"`
	EventID      string   `json:"eventId"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
	Score        float64  `json:"score,omitempty"`
}

// Dispatcher delivers notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

type webhookDispatcher struct {
	client *resty.Client
}

// NewWebhookDispatcher builds a Dispatcher posting to baseURL.
func NewWebhookDispatcher(baseURL string) Dispatcher {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	return &webhookDispatcher{client: c}
}

func (d *webhookDispatcher) Dispatch(ctx context.Context, n Notification) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(n).
		Post("/notifications")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("notification dispatch status %d", resp.StatusCode())
	}
	return nil
}
