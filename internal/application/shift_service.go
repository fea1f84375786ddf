package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

// Notifier dispatches notification intents without blocking or failing the
// calling operation.
type Notifier interface {
	Dispatch(intents ...notification.Intent)
}

// ShiftService handles shift lifecycle use cases
type ShiftService struct {
	shifts    domain.ShiftRepository
	publisher domain.EventPublisher
	notifier  Notifier
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewShiftService creates a new ShiftService
func NewShiftService(
	shifts domain.ShiftRepository,
	publisher domain.EventPublisher,
	notifier Notifier,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ShiftService {
	return &ShiftService{
		shifts:    shifts,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger.WithComponent("shift-service"),
		metrics:   m,
	}
}

// CreateShift drafts a new shift for the tenant in context
func (s *ShiftService) CreateShift(ctx context.Context, cmd CreateShiftCommand) (*ShiftDTO, error) {
	tc, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, errors.ErrUnauthorized(err.Error())
	}

	shift, err := domain.NewShift(
		uuid.New().String(),
		tc.TenantID,
		cmd.Position,
		domain.ShiftType(cmd.ShiftType),
		cmd.StartTime.UTC(),
		cmd.EndTime.UTC(),
		tc.UserID,
	)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	shift.NetworkID = tc.NetworkID
	shift.BreakMinutes = cmd.BreakMinutes
	shift.Location = cmd.Location
	shift.Notes = cmd.Notes
	shift.AutoApprove = cmd.AutoApprove
	shift.MinReputation = cmd.MinReputation
	shift.RateOverride = cmd.RateOverride

	if err := s.shifts.Save(ctx, shift); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to create shift", "shiftId", shift.ShiftID)
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}
	s.publishEvents(ctx, shift)

	s.logger.WithContext(ctx).Info("Created shift",
		"shiftId", shift.ShiftID,
		"position", cmd.Position,
		"startTime", cmd.StartTime)
	return ToShiftDTO(shift), nil
}

// PublishShift opens a draft shift to the worker pool
func (s *ShiftService) PublishShift(ctx context.Context, cmd PublishShiftCommand) (*ShiftDTO, error) {
	shift, err := s.loadOwnedShift(ctx, cmd.ShiftID)
	if err != nil {
		return nil, err
	}

	if err := shift.Publish(cmd.ActorID); err != nil {
		return nil, mapTransitionError(err, shift)
	}

	if err := s.shifts.Save(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to publish shift: %w", err)
	}
	s.recordTransition(shift)
	s.publishEvents(ctx, shift)

	return ToShiftDTO(shift), nil
}

// OfferShift targets a published shift at specific workers and notifies them
func (s *ShiftService) OfferShift(ctx context.Context, cmd OfferShiftCommand) (*ShiftDTO, error) {
	shift, err := s.loadOwnedShift(ctx, cmd.ShiftID)
	if err != nil {
		return nil, err
	}

	if err := shift.Offer(cmd.WorkerIDs, cmd.ExpiresAt.UTC(), cmd.ActorID); err != nil {
		return nil, mapTransitionError(err, shift)
	}

	if err := s.shifts.Save(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to offer shift: %w", err)
	}
	s.recordTransition(shift)
	s.publishEvents(ctx, shift)

	intents := make([]notification.Intent, 0, len(cmd.WorkerIDs))
	for _, workerID := range cmd.WorkerIDs {
		intents = append(intents, notification.NewIntent(
			workerID,
			notification.TypeShiftOffered,
			notification.UrgencyHigh,
			shift.ShiftID,
			shiftPayload(shift),
		))
	}
	s.notifier.Dispatch(intents...)

	return ToShiftDTO(shift), nil
}

// CancelShift withdraws a shift and notifies the assigned worker, if any
func (s *ShiftService) CancelShift(ctx context.Context, cmd CancelShiftCommand) (*ShiftDTO, error) {
	shift, err := s.loadOwnedShift(ctx, cmd.ShiftID)
	if err != nil {
		return nil, err
	}

	assignedWorker := shift.AssignedWorkerID
	reason := cmd.Reason
	if reason == "" {
		reason = "cancelled by manager"
	}

	if err := shift.Cancel(cmd.ActorID, reason); err != nil {
		return nil, mapTransitionError(err, shift)
	}

	if err := s.shifts.Save(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to cancel shift: %w", err)
	}
	s.recordTransition(shift)
	s.publishEvents(ctx, shift)

	if assignedWorker != "" {
		payload := shiftPayload(shift)
		payload["reason"] = reason
		s.notifier.Dispatch(notification.NewIntent(
			assignedWorker,
			notification.TypeShiftCancelled,
			notification.UrgencyCritical,
			shift.ShiftID,
			payload,
		))
	}

	return ToShiftDTO(shift), nil
}

// TransitionShift drives an explicit lifecycle transition (confirm, start,
// complete, no-show, return to pool)
func (s *ShiftService) TransitionShift(ctx context.Context, cmd TransitionShiftCommand) (*ShiftDTO, error) {
	shift, err := s.loadOwnedShift(ctx, cmd.ShiftID)
	if err != nil {
		return nil, err
	}

	target := domain.ShiftStatus(cmd.Target)
	if !target.IsValid() {
		return nil, errors.ErrValidation("unknown target status: " + cmd.Target)
	}

	switch target {
	case domain.ShiftStatusConfirmed:
		err = shift.Confirm(cmd.ActorID)
	case domain.ShiftStatusInProgress:
		err = shift.Start(cmd.ActorID)
	case domain.ShiftStatusCompleted:
		err = shift.Complete(cmd.ActorID)
	case domain.ShiftStatusNoShow:
		err = shift.MarkNoShow(cmd.ActorID)
	case domain.ShiftStatusPublishedUnassigned:
		reason := cmd.Reason
		if reason == "" {
			reason = "returned to pool"
		}
		err = shift.ReturnToPool(cmd.ActorID, reason)
	case domain.ShiftStatusCancelled:
		return s.CancelShift(ctx, CancelShiftCommand{ShiftID: cmd.ShiftID, Reason: cmd.Reason, ActorID: cmd.ActorID})
	default:
		err = shift.Transition(target, cmd.ActorID, cmd.Reason)
	}
	if err != nil {
		return nil, mapTransitionError(err, shift)
	}

	if err := s.shifts.Save(ctx, shift); err != nil {
		return nil, fmt.Errorf("failed to transition shift: %w", err)
	}
	s.recordTransition(shift)
	s.publishEvents(ctx, shift)

	return ToShiftDTO(shift), nil
}

// GetShift retrieves a shift visible to the caller's tenant or network
func (s *ShiftService) GetShift(ctx context.Context, shiftID string) (*ShiftDTO, error) {
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, errors.ErrNotFoundWithID("shift", shiftID)
	}
	return ToShiftDTO(shift), nil
}

// ListShifts lists the tenant's shifts, optionally filtered
func (s *ShiftService) ListShifts(ctx context.Context, query ListShiftsQuery) ([]*ShiftDTO, error) {
	if query.Status != "" {
		status := domain.ShiftStatus(query.Status)
		if !status.IsValid() {
			return nil, errors.ErrValidation("unknown status: " + query.Status)
		}
		shifts, err := s.shifts.FindByStatus(ctx, status)
		if err != nil {
			return nil, fmt.Errorf("failed to list shifts: %w", err)
		}
		return ToShiftDTOs(shifts), nil
	}

	from, to := query.From, query.To
	if from.IsZero() {
		from = time.Now().UTC().AddDate(0, 0, -7)
	}
	if to.IsZero() {
		to = time.Now().UTC().AddDate(0, 0, 30)
	}
	shifts, err := s.shifts.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return ToShiftDTOs(shifts), nil
}

// FindOpenShifts returns claimable shifts within the radius, across the
// caller's network. The bounding box narrows the candidate set; exact
// distance is re-checked before anything is returned.
func (s *ShiftService) FindOpenShifts(ctx context.Context, query OpenShiftsQuery) ([]*ShiftDTO, error) {
	if query.RadiusMiles <= 0 {
		query.RadiusMiles = 25
	}
	from, to := query.From, query.To
	if from.IsZero() {
		from = time.Now().UTC()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 14)
	}

	box := geo.BoundingBox(query.Center, query.RadiusMiles)
	candidates, err := s.shifts.FindOpenInBox(ctx, box, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to find open shifts: %w", err)
	}

	matched := make([]*domain.Shift, 0, len(candidates))
	for _, shift := range candidates {
		if geo.Distance(query.Center, shift.Location) <= query.RadiusMiles {
			matched = append(matched, shift)
		}
	}
	return ToShiftDTOs(matched), nil
}

func (s *ShiftService) loadOwnedShift(ctx context.Context, shiftID string) (*domain.Shift, error) {
	shift, err := s.shifts.FindByID(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, errors.ErrNotFoundWithID("shift", shiftID)
	}

	tc := tenant.FromContextOptional(ctx)
	if tc != nil {
		if err := tc.ValidateOwnership(shift.TenantID, shift.NetworkID); err != nil {
			return nil, errors.ErrForbidden(err.Error())
		}
	}
	return shift, nil
}

func (s *ShiftService) publishEvents(ctx context.Context, shift *domain.Shift) {
	events := shift.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Event publication is best effort; the persisted state is the source
	// of truth and the domain operation has already succeeded.
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to publish shift events",
			"shiftId", shift.ShiftID,
			"eventCount", len(events))
	}
	shift.ClearDomainEvents()
}

func (s *ShiftService) recordTransition(shift *domain.Shift) {
	if s.metrics == nil || len(shift.History) == 0 {
		return
	}
	last := shift.History[len(shift.History)-1]
	s.metrics.ShiftTransitions.WithLabelValues(string(last.From), string(last.To)).Inc()
}

func shiftPayload(shift *domain.Shift) map[string]string {
	return map[string]string{
		"shiftId":   shift.ShiftID,
		"position":  shift.Position,
		"date":      shift.StartTime.Format("Jan 2"),
		"startTime": shift.StartTime.Format("15:04"),
		"endTime":   shift.EndTime.Format("15:04"),
		"duration":  strconv.Itoa(shift.DurationMinutes()),
	}
}

func mapTransitionError(err error, shift *domain.Shift) error {
	var transitionErr *domain.TransitionError
	switch {
	case stderrors.As(err, &transitionErr):
		return errors.ErrInvalidTransition(string(transitionErr.From), string(transitionErr.To))
	case stderrors.Is(err, domain.ErrShiftNotClaimable):
		return errors.ErrShiftNotClaimable(string(shift.Status))
	default:
		return errors.ErrValidation(err.Error())
	}
}
