// Package channels provides concrete delivery channels backed by external
// provider webhooks. Each provider exposes a single JSON endpoint; a non-2xx
// response is a delivery failure and counts against the channel's breaker.
package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
)

// ProviderConfig configures one outbound provider endpoint
type ProviderConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

func (c ProviderConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 10 * time.Second
}

// post sends a JSON payload to the provider and maps non-2xx to an error
func post(ctx context.Context, client *http.Client, config ProviderConfig, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal provider payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+config.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	return nil
}

// PushChannel delivers through a push gateway keyed by device token
type PushChannel struct {
	config ProviderConfig
	client *http.Client
}

func NewPushChannel(config ProviderConfig) *PushChannel {
	return &PushChannel{
		config: config,
		client: &http.Client{Timeout: config.timeout()},
	}
}

func (c *PushChannel) Kind() notification.ChannelKind { return notification.ChannelPush }

func (c *PushChannel) Send(ctx context.Context, contact notification.Contact, title, body string) error {
	return post(ctx, c.client, c.config, map[string]string{
		"token": contact.PushToken,
		"title": title,
		"body":  body,
	})
}

// SMSChannel delivers through an SMS gateway
type SMSChannel struct {
	config ProviderConfig
	client *http.Client
}

func NewSMSChannel(config ProviderConfig) *SMSChannel {
	return &SMSChannel{
		config: config,
		client: &http.Client{Timeout: config.timeout()},
	}
}

func (c *SMSChannel) Kind() notification.ChannelKind { return notification.ChannelSMS }

func (c *SMSChannel) Send(ctx context.Context, contact notification.Contact, title, body string) error {
	// SMS has no subject line, the title leads the message text
	return post(ctx, c.client, c.config, map[string]string{
		"to":      contact.Phone,
		"message": title + ": " + body,
	})
}

// EmailChannel delivers through a transactional email provider
type EmailChannel struct {
	config ProviderConfig
	client *http.Client
	from   string
}

func NewEmailChannel(config ProviderConfig, from string) *EmailChannel {
	return &EmailChannel{
		config: config,
		client: &http.Client{Timeout: config.timeout()},
		from:   from,
	}
}

func (c *EmailChannel) Kind() notification.ChannelKind { return notification.ChannelEmail }

func (c *EmailChannel) Send(ctx context.Context, contact notification.Contact, title, body string) error {
	return post(ctx, c.client, c.config, map[string]string{
		"from":    c.from,
		"to":      contact.Email,
		"subject": title,
		"body":    body,
	})
}

// LogChannel writes deliveries to the log instead of a provider. It stands in
// for any medium in development environments.
type LogChannel struct {
	kind   notification.ChannelKind
	logger *logging.Logger
}

func NewLogChannel(kind notification.ChannelKind, logger *logging.Logger) *LogChannel {
	return &LogChannel{kind: kind, logger: logger.WithComponent("log-channel")}
}

func (c *LogChannel) Kind() notification.ChannelKind { return c.kind }

func (c *LogChannel) Send(ctx context.Context, contact notification.Contact, title, body string) error {
	c.logger.Info("delivering notification",
		"channel", string(c.kind),
		"target", notification.TargetFor(c.kind, contact),
		"title", title,
	)
	return nil
}
