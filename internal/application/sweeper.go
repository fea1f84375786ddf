package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
)

// ExpirySweeperConfig configuration for the background expiry sweep
type ExpirySweeperConfig struct {
	// Interval is how often the sweep runs
	Interval time.Duration `json:"interval"`
}

// DefaultExpirySweeperConfig returns sensible defaults
func DefaultExpirySweeperConfig() ExpirySweeperConfig {
	return ExpirySweeperConfig{
		Interval: 1 * time.Minute,
	}
}

// ExpirySweeper periodically times out stale claims, offers and swaps, and
// flushes batched notifications. Every action it takes is idempotent, so an
// overlapping or repeated sweep cannot double-expire anything.
type ExpirySweeper struct {
	shifts   domain.ShiftRepository
	claims   domain.ClaimRepository
	swaps    domain.SwapRepository
	pipeline *notification.Pipeline
	notifier Notifier
	config   ExpirySweeperConfig
	logger   *logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
}

// NewExpirySweeper creates a new ExpirySweeper
func NewExpirySweeper(
	shifts domain.ShiftRepository,
	claims domain.ClaimRepository,
	swaps domain.SwapRepository,
	pipeline *notification.Pipeline,
	notifier Notifier,
	config ExpirySweeperConfig,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ExpirySweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultExpirySweeperConfig().Interval
	}
	return &ExpirySweeper{
		shifts:   shifts,
		claims:   claims,
		swaps:    swaps,
		pipeline: pipeline,
		notifier: notifier,
		config:   config,
		logger:   logger.WithComponent("expiry-sweeper"),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		stopChan: make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("expiry sweeper is already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Stop stops the background sweep loop
func (s *ExpirySweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.stopChan)
		s.running = false
	}
}

// IsRunning returns whether the sweeper is running
func (s *ExpirySweeper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *ExpirySweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one full pass. Exported so operators can trigger it on demand
// and tests can drive it without the ticker.
func (s *ExpirySweeper) Sweep(ctx context.Context) {
	now := s.now()

	if err := s.expireClaims(ctx, now); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Claim expiry sweep failed")
	}
	if err := s.lapseOffers(ctx, now); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Offer expiry sweep failed")
	}
	if err := s.expireSwaps(ctx, now); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Swap expiry sweep failed")
	}
	if s.pipeline != nil {
		if err := s.pipeline.FlushBatches(ctx); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Batch flush failed")
		}
	}

	if s.metrics != nil {
		s.metrics.ExpirySweeps.Inc()
	}
}

// expireClaims moves overdue PENDING claims to EXPIRED
func (s *ExpirySweeper) expireClaims(ctx context.Context, now time.Time) error {
	claims, err := s.claims.FindExpiredBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to find expired claims: %w", err)
	}

	for _, claim := range claims {
		if !claim.Expire() {
			continue
		}
		if err := s.claims.Save(ctx, claim); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to save expired claim",
				"claimId", claim.ClaimID)
			continue
		}
		claim.ClearDomainEvents()

		if s.metrics != nil {
			s.metrics.ClaimsResolved.WithLabelValues("expired").Inc()
		}
		s.notifier.Dispatch(notification.NewIntent(
			claim.WorkerID,
			notification.TypeClaimRejected,
			notification.UrgencyLow,
			claim.ClaimID,
			map[string]string{"reason": "claim expired"},
		))
	}

	if len(claims) > 0 {
		s.logger.WithContext(ctx).Info("Expired stale claims", "count", len(claims))
	}
	return nil
}

// lapseOffers returns shifts with lapsed offer windows to the open pool
func (s *ExpirySweeper) lapseOffers(ctx context.Context, now time.Time) error {
	shifts, err := s.shifts.FindOffersExpiredBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to find lapsed offers: %w", err)
	}

	for _, shift := range shifts {
		if !shift.OfferExpired(now) {
			continue
		}
		if err := shift.ReturnToPool("system", "offer expired"); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to return shift to pool",
				"shiftId", shift.ShiftID)
			continue
		}
		if err := s.shifts.Save(ctx, shift); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to save lapsed shift",
				"shiftId", shift.ShiftID)
			continue
		}
		shift.ClearDomainEvents()

		if s.metrics != nil {
			s.recordSweepTransition(shift)
		}
	}

	if len(shifts) > 0 {
		s.logger.WithContext(ctx).Info("Returned shifts with lapsed offers", "count", len(shifts))
	}
	return nil
}

// expireSwaps moves overdue PENDING swaps to EXPIRED
func (s *ExpirySweeper) expireSwaps(ctx context.Context, now time.Time) error {
	swaps, err := s.swaps.FindExpiredBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to find expired swaps: %w", err)
	}

	for _, swap := range swaps {
		if !swap.Expire() {
			continue
		}
		if err := s.swaps.Save(ctx, swap); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to save expired swap",
				"swapId", swap.SwapID)
			continue
		}
		swap.ClearDomainEvents()

		if s.metrics != nil {
			s.metrics.SwapsResolved.WithLabelValues("expired").Inc()
		}
		s.notifier.Dispatch(notification.NewIntent(
			swap.SourceWorkerID,
			notification.TypeSwapRejected,
			notification.UrgencyLow,
			swap.SwapID,
			map[string]string{"reason": "swap expired"},
		))
	}

	if len(swaps) > 0 {
		s.logger.WithContext(ctx).Info("Expired stale swaps", "count", len(swaps))
	}
	return nil
}

func (s *ExpirySweeper) recordSweepTransition(shift *domain.Shift) {
	if len(shift.History) == 0 {
		return
	}
	last := shift.History[len(shift.History)-1]
	s.metrics.ShiftTransitions.WithLabelValues(string(last.From), string(last.To)).Inc()
}
