// Package relay forwards notification events to the automation webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"example.com/devpulse/internal/observability"
)

// Notification is the payload accepted by the relay and forwarded verbatim.
type Notification struct {
	Channel  string         `json:"channel"`
	Title    string         `json:"title,omitempty"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result reports what happened to a notification. Delivered is true once the
// relay has accepted the payload; ForwardedToAutomation is true only when the
// outbound webhook call returned a success status.
type Result struct {
	Delivered             bool `json:"delivered"`
	ForwardedToAutomation bool `json:"forwardedToAutomation"`
}

// Forwarder makes a single best-effort call to the configured webhook URL.
type Forwarder struct {
	webhookURL string
	client     *http.Client
}

// NewForwarder builds a Forwarder. An empty webhookURL disables forwarding.
// The timeout bounds the single outbound call so a slow webhook cannot hang
// the request.
func NewForwarder(webhookURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Forwarder{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// Forward makes exactly one attempt to deliver the notification downstream.
// A failed or skipped forward is reported in the Result, never as an error.
func (f *Forwarder) Forward(ctx context.Context, n Notification) Result {
	if f.webhookURL == "" {
		observability.RecordNotificationForward("skipped")
		return Result{Delivered: true, ForwardedToAutomation: false}
	}

	forwarded := f.post(ctx, n)
	if forwarded {
		observability.RecordNotificationForward("forwarded")
	} else {
		observability.RecordNotificationForward("failed")
	}
	return Result{Delivered: true, ForwardedToAutomation: forwarded}
}

func (f *Forwarder) post(ctx context.Context, n Notification) bool {
	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("relay: encode notification: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("relay: build webhook request: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Printf("relay: webhook call failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("relay: webhook returned %s", resp.Status)
		return false
	}
	return true
}

// String describes the forwarder configuration for startup logging.
func (f *Forwarder) String() string {
	if f.webhookURL == "" {
		return "notification forwarding disabled"
	}
	return fmt.Sprintf("forwarding notifications to %s", f.webhookURL)
}
