package notification

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
)

// ChannelKind identifies a delivery medium
type ChannelKind string

const (
	ChannelPush  ChannelKind = "push"
	ChannelSMS   ChannelKind = "sms"
	ChannelEmail ChannelKind = "email"
)

// ErrNoTarget signals the user has no reachable address for this channel.
// The pipeline treats it as a skip, never a failure.
var ErrNoTarget = errors.New("no target configured for channel")

// Channel delivers a rendered message over one medium
type Channel interface {
	Kind() ChannelKind
	Send(ctx context.Context, contact Contact, title, body string) error
}

// ChannelAttemptStatus is the per-channel outcome
type ChannelAttemptStatus string

const (
	AttemptDelivered ChannelAttemptStatus = "delivered"
	AttemptFailed    ChannelAttemptStatus = "failed"
	AttemptSkipped   ChannelAttemptStatus = "skipped"
)

// ChannelAttempt records one channel's delivery outcome
type ChannelAttempt struct {
	Channel ChannelKind          `bson:"channel" json:"channel"`
	Status  ChannelAttemptStatus `bson:"status" json:"status"`
	Error   string               `bson:"error,omitempty" json:"error,omitempty"`
}

// BreakerChannel wraps a channel with a circuit breaker so a dead provider
// fails fast instead of stalling every send.
type BreakerChannel struct {
	inner   Channel
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerChannel wraps the channel with a circuit breaker tripping after
// five consecutive failures
func NewBreakerChannel(inner Channel) *BreakerChannel {
	settings := gobreaker.Settings{
		Name: string(inner.Kind()),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerChannel{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Kind returns the wrapped channel's kind
func (b *BreakerChannel) Kind() ChannelKind {
	return b.inner.Kind()
}

// Send delivers through the breaker. A missing target surfaces as ErrNoTarget
// without counting against the provider.
func (b *BreakerChannel) Send(ctx context.Context, contact Contact, title, body string) error {
	if TargetFor(b.inner.Kind(), contact) == "" {
		return ErrNoTarget
	}
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.inner.Send(ctx, contact, title, body)
	})
	return err
}

// TargetFor returns the contact field a channel kind delivers to
func TargetFor(kind ChannelKind, contact Contact) string {
	switch kind {
	case ChannelPush:
		return contact.PushToken
	case ChannelSMS:
		return contact.Phone
	case ChannelEmail:
		return contact.Email
	}
	return ""
}
