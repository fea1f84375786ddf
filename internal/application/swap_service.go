package application

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

// SwapService handles shift swap use cases
type SwapService struct {
	swaps       domain.SwapRepository
	shifts      domain.ShiftRepository
	acceptances domain.SwapAcceptanceStore
	publisher   domain.EventPublisher
	notifier    Notifier
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

// NewSwapService creates a new SwapService
func NewSwapService(
	swaps domain.SwapRepository,
	shifts domain.ShiftRepository,
	acceptances domain.SwapAcceptanceStore,
	publisher domain.EventPublisher,
	notifier Notifier,
	logger *logging.Logger,
	m *metrics.Metrics,
) *SwapService {
	return &SwapService{
		swaps:       swaps,
		shifts:      shifts,
		acceptances: acceptances,
		publisher:   publisher,
		notifier:    notifier,
		logger:      logger.WithComponent("swap-service"),
		metrics:     m,
	}
}

// RequestSwap opens a swap for a shift the worker holds. Cross-tenant swaps
// always require manager approval.
func (s *SwapService) RequestSwap(ctx context.Context, cmd RequestSwapCommand) (*SwapDTO, error) {
	shift, err := s.shifts.FindByID(ctx, cmd.SourceShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, errors.ErrNotFoundWithID("shift", cmd.SourceShiftID)
	}
	if shift.AssignedWorkerID != cmd.SourceWorkerID {
		return nil, errors.ErrForbidden("only the assigned worker can swap a shift")
	}

	requiresApproval := true
	tc := tenant.FromContextOptional(ctx)
	if tc != nil && tc.TenantID == shift.TenantID && shift.AutoApprove {
		requiresApproval = false
	}

	swap := domain.NewShiftSwap(uuid.New().String(), shift.ShiftID, cmd.SourceWorkerID, shift.TenantID, requiresApproval)
	swap.TargetShiftID = cmd.TargetShiftID
	swap.TargetWorkerID = cmd.TargetWorkerID
	swap.Message = cmd.Message
	if cmd.ExpiresAt != nil {
		utc := cmd.ExpiresAt.UTC()
		swap.ExpiresAt = &utc
	}

	if err := s.swaps.Save(ctx, swap); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}
	s.publishSwapEvents(ctx, swap)

	payload := shiftPayload(shift)
	payload["workerName"] = cmd.SourceWorkerID
	payload["message"] = cmd.Message

	// A targeted swap notifies the counterparty; an open give-away notifies
	// the manager who owns the schedule.
	recipient := shift.CreatedBy
	if cmd.TargetWorkerID != "" {
		recipient = cmd.TargetWorkerID
	}
	s.notifier.Dispatch(notification.NewIntent(
		recipient,
		notification.TypeSwapRequested,
		notification.UrgencyNormal,
		swap.SwapID,
		payload,
	))

	s.logger.WithContext(ctx).Info("Swap requested",
		"swapId", swap.SwapID,
		"sourceShiftId", shift.ShiftID,
		"requiresApproval", requiresApproval)

	return ToSwapDTO(swap), nil
}

// DecideSwap records the manager's approval outcome on a pending swap
func (s *SwapService) DecideSwap(ctx context.Context, cmd DecideSwapCommand) (*SwapDTO, error) {
	swap, err := s.loadPendingSwap(ctx, cmd.SwapID)
	if err != nil {
		return nil, err
	}

	if err := swap.SetManagerDecision(cmd.ApproverID, cmd.Approved); err != nil {
		return nil, errors.ErrSwapNotPending(string(swap.Status))
	}
	if err := s.swaps.Save(ctx, swap); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}
	return ToSwapDTO(swap), nil
}

// AcceptSwap resolves the swap and moves the source shift to the accepting
// worker through the regular transition path.
func (s *SwapService) AcceptSwap(ctx context.Context, cmd AcceptSwapCommand) (*SwapDTO, error) {
	swap, err := s.loadPendingSwap(ctx, cmd.SwapID)
	if err != nil {
		return nil, err
	}

	if err := swap.Accept(cmd.TargetWorkerID); err != nil {
		switch err {
		case domain.ErrSwapApprovalRequired:
			return nil, errors.ErrApprovalRequired()
		case domain.ErrSwapAlreadyResolved:
			return nil, errors.ErrSwapNotPending(string(swap.Status))
		default:
			return nil, errors.ErrValidation(err.Error())
		}
	}

	shift, err := s.shifts.FindByID(ctx, swap.SourceShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, errors.ErrNotFoundWithID("shift", swap.SourceShiftID)
	}

	// Reassignment walks the state machine: release, claim, confirm.
	if err := shift.ReturnToPool(swap.TargetWorkerID, "swap accepted"); err != nil {
		return nil, mapTransitionError(err, shift)
	}
	if err := shift.AssignWorker(swap.TargetWorkerID, swap.TargetWorkerID); err != nil {
		return nil, mapTransitionError(err, shift)
	}
	if shift.Status == domain.ShiftStatusPublishedClaimed {
		if err := shift.Confirm(swap.TargetWorkerID); err != nil {
			return nil, mapTransitionError(err, shift)
		}
	}

	// One commit covers both aggregates; a failure leaves neither the
	// reassignment nor the resolution half-applied.
	acceptance := &domain.SwapAcceptance{Shift: shift, Swap: swap}
	if err := s.acceptances.CommitAcceptance(ctx, acceptance); err != nil {
		if stderrors.Is(err, domain.ErrSwapAlreadyResolved) {
			return nil, errors.ErrSwapNotPending(string(domain.SwapStatusAccepted))
		}
		return nil, fmt.Errorf("failed to commit swap acceptance: %w", err)
	}
	s.publishSwapEvents(ctx, swap)
	s.publishShiftEvents(ctx, shift)

	if s.metrics != nil {
		s.metrics.SwapsResolved.WithLabelValues("accepted").Inc()
	}

	payload := shiftPayload(shift)
	payload["workerName"] = swap.TargetWorkerID
	s.notifier.Dispatch(notification.NewIntent(
		swap.SourceWorkerID,
		notification.TypeSwapAccepted,
		notification.UrgencyHigh,
		swap.SwapID,
		payload,
	))

	return ToSwapDTO(swap), nil
}

// RejectSwap declines a pending swap
func (s *SwapService) RejectSwap(ctx context.Context, cmd RejectSwapCommand) (*SwapDTO, error) {
	swap, err := s.loadPendingSwap(ctx, cmd.SwapID)
	if err != nil {
		return nil, err
	}

	if err := swap.Reject(cmd.ActorID, cmd.Reason); err != nil {
		return nil, errors.ErrSwapNotPending(string(swap.Status))
	}
	if err := s.swaps.Save(ctx, swap); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}
	s.publishSwapEvents(ctx, swap)

	if s.metrics != nil {
		s.metrics.SwapsResolved.WithLabelValues("rejected").Inc()
	}

	s.notifier.Dispatch(notification.NewIntent(
		swap.SourceWorkerID,
		notification.TypeSwapRejected,
		notification.UrgencyNormal,
		swap.SwapID,
		map[string]string{"reason": cmd.Reason},
	))

	return ToSwapDTO(swap), nil
}

// CancelSwap lets the requesting worker withdraw a pending swap
func (s *SwapService) CancelSwap(ctx context.Context, swapID, actorID string) (*SwapDTO, error) {
	swap, err := s.loadPendingSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.SourceWorkerID != actorID {
		return nil, errors.ErrForbidden("only the requesting worker can cancel a swap")
	}

	if err := swap.Cancel(); err != nil {
		return nil, errors.ErrSwapNotPending(string(swap.Status))
	}
	if err := s.swaps.Save(ctx, swap); err != nil {
		return nil, fmt.Errorf("failed to save swap: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SwapsResolved.WithLabelValues("cancelled").Inc()
	}
	return ToSwapDTO(swap), nil
}

// WorkerSwaps lists swaps where the worker is source or target
func (s *SwapService) WorkerSwaps(ctx context.Context, workerID string) ([]*SwapDTO, error) {
	swaps, err := s.swaps.FindByWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps: %w", err)
	}
	return ToSwapDTOs(swaps), nil
}

func (s *SwapService) loadPendingSwap(ctx context.Context, swapID string) (*domain.ShiftSwap, error) {
	swap, err := s.swaps.FindByID(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("failed to get swap: %w", err)
	}
	if swap == nil {
		return nil, errors.ErrNotFoundWithID("swap", swapID)
	}
	return swap, nil
}

func (s *SwapService) publishSwapEvents(ctx context.Context, swap *domain.ShiftSwap) {
	events := swap.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to publish swap events",
			"swapId", swap.SwapID)
	}
	swap.ClearDomainEvents()
}

func (s *SwapService) publishShiftEvents(ctx context.Context, shift *domain.Shift) {
	events := shift.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to publish shift events",
			"shiftId", shift.ShiftID)
	}
	shift.ClearDomainEvents()
}
