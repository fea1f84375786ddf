package notification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
)

// DefaultDedupTTL is how long a delivered (user, type, entity) combination
// suppresses identical sends.
const DefaultDedupTTL = 300 * time.Second

// Config tunes the pipeline
type Config struct {
	DedupTTL        time.Duration
	DispatchTimeout time.Duration
}

// DefaultPipelineConfig returns the standard pipeline settings
func DefaultPipelineConfig() Config {
	return Config{
		DedupTTL:        DefaultDedupTTL,
		DispatchTimeout: 15 * time.Second,
	}
}

// Pipeline runs every outbound intent through the suppression chain and, when
// the intent survives, delivers it over the user's configured channels.
type Pipeline struct {
	prefs    PreferenceStore
	limiter  RateLimiter
	deduper  Deduper
	batch    BatchQueue
	records  RecordStore
	channels map[ChannelKind]Channel
	logger   *logging.Logger
	metrics  *metrics.Metrics
	config   Config
	now      func() time.Time
}

// NewPipeline assembles a pipeline
func NewPipeline(
	prefs PreferenceStore,
	limiter RateLimiter,
	deduper Deduper,
	batch BatchQueue,
	records RecordStore,
	channels []Channel,
	logger *logging.Logger,
	m *metrics.Metrics,
	config Config,
) *Pipeline {
	byKind := make(map[ChannelKind]Channel, len(channels))
	for _, ch := range channels {
		byKind[ch.Kind()] = ch
	}
	if config.DedupTTL <= 0 {
		config.DedupTTL = DefaultDedupTTL
	}
	if config.DispatchTimeout <= 0 {
		config.DispatchTimeout = 15 * time.Second
	}

	return &Pipeline{
		prefs:    prefs,
		limiter:  limiter,
		deduper:  deduper,
		batch:    batch,
		records:  records,
		channels: byKind,
		logger:   logger.WithComponent("notification-pipeline"),
		metrics:  m,
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Process runs one intent through the decision chain. The chain
// short-circuits on the first applicable suppression:
// preference, quiet hours, rate limit, dedup, in that order.
// A store or cache failure is never a decided outcome: it surfaces as a
// transient error and the caller may retry.
func (p *Pipeline) Process(ctx context.Context, intent Intent) (Result, error) {
	prefs, err := p.prefs.Find(ctx, intent.UserID)
	if err != nil {
		return Result{}, apperrors.ErrTransientStore(err)
	}
	if prefs == nil {
		prefs = DefaultPreferences(intent.UserID)
	}

	if !prefs.TypeEnabled(intent.Type) {
		return p.suppress(ctx, intent, ReasonPreferenceDisabled), nil
	}

	quiet, err := prefs.InQuietHours(p.now())
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("quiet hours check failed, treating as not quiet",
			"userId", intent.UserID)
		quiet = false
	}
	if quiet && !intent.Urgency.BypassesQuietHours() {
		if intent.Urgency == UrgencyLow && prefs.BatchingEnabled {
			if err := p.batch.Enqueue(ctx, intent); err != nil {
				return Result{}, apperrors.ErrTransientStore(err)
			}
			p.logger.NotificationOutcome(ctx, intent.UserID, string(intent.Type), intent.EntityKey,
				string(StatusQueuedForBatch), ReasonQuietHours)
			return Result{Status: StatusQueuedForBatch, Reason: ReasonQuietHours}, nil
		}
		return p.suppress(ctx, intent, ReasonQuietHours), nil
	}

	allowed, err := p.limiter.Allow(ctx, intent.UserID)
	if err != nil {
		return Result{}, apperrors.ErrTransientStore(err)
	}
	if !allowed {
		return p.suppress(ctx, intent, ReasonRateLimited), nil
	}

	// The reservation is the dedup check and the mark in one step; a racing
	// identical intent loses here instead of double-delivering.
	fresh, err := p.deduper.Reserve(ctx, intent.DedupKey(), p.config.DedupTTL)
	if err != nil {
		return Result{}, apperrors.ErrTransientStore(err)
	}
	if !fresh {
		return p.suppress(ctx, intent, ReasonDuplicate), nil
	}

	return p.deliver(ctx, prefs, intent)
}

// Dispatch processes intents asynchronously. Errors are logged, never
// returned; the triggering domain operation must not observe them.
func (p *Pipeline) Dispatch(intents ...Intent) {
	for _, intent := range intents {
		go func(i Intent) {
			ctx, cancel := context.WithTimeout(context.Background(), p.config.DispatchTimeout)
			defer cancel()

			if _, err := p.Process(ctx, i); err != nil {
				p.logger.WithError(err).Error("notification dispatch failed",
					"userId", i.UserID,
					"type", string(i.Type),
					"entityKey", i.EntityKey)
			}
		}(intent)
	}
}

// FlushBatches delivers every queued batch past its retention window. Quiet
// hours and the rate limit are not re-checked for a flushed digest; dedup is.
func (p *Pipeline) FlushBatches(ctx context.Context) error {
	batches, err := p.batch.DrainDue(ctx)
	if err != nil {
		return err
	}

	for userID, intents := range batches {
		prefs, err := p.prefs.Find(ctx, userID)
		if err != nil {
			p.logger.WithContext(ctx).WithError(err).Error("batch flush: loading preferences failed",
				"userId", userID)
			continue
		}
		if prefs == nil {
			prefs = DefaultPreferences(userID)
		}

		for _, intent := range intents {
			fresh, err := p.deduper.Reserve(ctx, intent.DedupKey(), p.config.DedupTTL)
			if err != nil {
				p.logger.WithContext(ctx).WithError(err).Error("batch flush: dedup reservation failed",
					"userId", userID)
				continue
			}
			if !fresh {
				p.suppress(ctx, intent, ReasonDuplicate)
				continue
			}
			if _, err := p.deliver(ctx, prefs, intent); err != nil {
				p.logger.WithContext(ctx).WithError(err).Error("batch flush: delivery failed",
					"userId", userID,
					"type", string(intent.Type))
			}
		}
	}
	return nil
}

func (p *Pipeline) deliver(ctx context.Context, prefs *Preferences, intent Intent) (Result, error) {
	title, body := RenderMessage(intent)

	record := &DeliveryRecord{
		RecordID:  uuid.New().String(),
		UserID:    intent.UserID,
		Type:      intent.Type,
		Urgency:   intent.Urgency,
		EntityKey: intent.EntityKey,
		Title:     title,
		Body:      body,
		Status:    StatusPending,
		CreatedAt: p.now(),
	}
	if err := p.records.Save(ctx, record); err != nil {
		p.releaseReservation(ctx, intent)
		return Result{}, apperrors.ErrTransientStore(err)
	}

	var delivered, failed int
	for _, kind := range prefs.ChannelsFor(intent.Type) {
		channel, ok := p.channels[kind]
		if !ok {
			continue
		}

		attempt := ChannelAttempt{Channel: kind, Status: AttemptDelivered}
		err := channel.Send(ctx, prefs.Contact, title, body)
		switch {
		case errors.Is(err, ErrNoTarget):
			attempt.Status = AttemptSkipped
		case err != nil:
			attempt.Status = AttemptFailed
			attempt.Error = err.Error()
			failed++
		default:
			delivered++
		}

		record.Attempts = append(record.Attempts, attempt)
		if p.metrics != nil {
			p.metrics.NotificationsDelivered.WithLabelValues(string(kind), string(attempt.Status)).Inc()
		}
	}

	switch {
	case failed == 0:
		record.Status = StatusDelivered
	case delivered > 0:
		record.Status = StatusPartiallyDelivered
	default:
		record.Status = StatusFailed
	}

	// Nothing went out, so the next identical intent should not be
	// suppressed as a duplicate.
	if delivered == 0 {
		p.releaseReservation(ctx, intent)
	}

	if err := p.records.Save(ctx, record); err != nil {
		return Result{}, apperrors.ErrTransientStore(err)
	}

	p.logger.NotificationOutcome(ctx, intent.UserID, string(intent.Type), intent.EntityKey,
		string(record.Status), "")

	return Result{
		Status:   record.Status,
		Attempts: record.Attempts,
		RecordID: record.RecordID,
	}, nil
}

func (p *Pipeline) releaseReservation(ctx context.Context, intent Intent) {
	if err := p.deduper.Release(ctx, intent.DedupKey()); err != nil {
		p.logger.WithContext(ctx).WithError(err).Warn("releasing dedup key failed",
			"userId", intent.UserID)
	}
}

func (p *Pipeline) suppress(ctx context.Context, intent Intent, reason string) Result {
	if p.metrics != nil {
		p.metrics.NotificationsSuppressed.WithLabelValues(reason).Inc()
	}
	p.logger.NotificationOutcome(ctx, intent.UserID, string(intent.Type), intent.EntityKey,
		string(StatusSuppressed), reason)
	return Result{Status: StatusSuppressed, Reason: reason}
}
