package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var _ Sender = (*WebhookSender)(nil)

// WebhookSender posts deliveries to an external notification provider.
type WebhookSender struct {
	client  *http.Client
	url     string
	authKey string
}

// WebhookOptions configures WebhookSender.
type WebhookOptions struct {
	URL         string
	AuthKey     string
	HTTPTimeout time.Duration
}

// NewWebhookSender builds a webhook backed sender.
func NewWebhookSender(opts WebhookOptions) *WebhookSender {
	timeout := opts.HTTPTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &WebhookSender{
		client:  &http.Client{Timeout: timeout},
		url:     opts.URL,
		authKey: opts.AuthKey,
	}
}

type webhookPayload struct {
	To        string `json:"to"`
	MessageID string `json:"message_id"`
	Sender    string `json:"sender,omitempty"`
}

// Send posts one delivery to the provider and checks it was accepted.
func (s *WebhookSender) Send(ctx context.Context, destinatary, messageID, senderLabel string) error {
	body, err := json.Marshal(webhookPayload{
		To:        destinatary,
		MessageID: messageID,
		Sender:    senderLabel,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authKey != "" {
		req.Header.Set("x-auth-key", s.authKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
