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
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/scoring"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/metrics"
)

// DefaultClaimTTL bounds how long a claim may sit unresolved before the
// expiry sweep retires it.
const DefaultClaimTTL = 24 * time.Hour

// ClaimService orchestrates claim submission and resolution
type ClaimService struct {
	shifts    domain.ShiftRepository
	claims    domain.ClaimRepository
	resolver  domain.ClaimResolutionStore
	publisher domain.EventPublisher
	notifier  Notifier
	commute   geo.CommuteConfig
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	shifts domain.ShiftRepository,
	claims domain.ClaimRepository,
	resolver domain.ClaimResolutionStore,
	publisher domain.EventPublisher,
	notifier Notifier,
	commute geo.CommuteConfig,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ClaimService {
	return &ClaimService{
		shifts:    shifts,
		claims:    claims,
		resolver:  resolver,
		publisher: publisher,
		notifier:  notifier,
		commute:   commute,
		logger:    logger.WithComponent("claim-service"),
		metrics:   m,
	}
}

// SubmitClaim bids for a shift on behalf of a worker. Cross-tenant claims
// are checked for commute feasibility against the worker's adjacent shifts
// before any state is written.
func (s *ClaimService) SubmitClaim(ctx context.Context, cmd SubmitClaimCommand) (*ClaimDTO, error) {
	shift, err := s.shifts.FindByID(ctx, cmd.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, errors.ErrNotFoundWithID("shift", cmd.ShiftID)
	}

	if !shift.Status.IsClaimable() {
		return nil, errors.ErrShiftNotClaimable(string(shift.Status))
	}
	if shift.Status == domain.ShiftStatusPublishedOffered && !shift.IsOfferedTo(cmd.Worker.WorkerID) {
		return nil, errors.ErrShiftNotClaimable(string(shift.Status))
	}

	crossTenant := cmd.Worker.TenantID != shift.TenantID
	if crossTenant {
		if err := s.checkCommuteFeasibility(ctx, shift, cmd.Worker.WorkerID); err != nil {
			return nil, err
		}
	}

	factors := scoring.Factors{
		DirectEmployee:        !crossTenant,
		PrimaryTier:           cmd.Worker.Tier == "primary",
		ReputationStars:       cmd.Worker.ReputationStars,
		Reliability:           cmd.Worker.Reliability,
		NoShowCount:           cmd.Worker.NoShowCount,
		ClaimTimeBonusMinutes: claimTimeBonus(shift.StartTime, time.Now().UTC()),
	}

	expiresAt := time.Now().UTC().Add(DefaultClaimTTL)
	if shift.StartTime.Before(expiresAt) {
		expiresAt = shift.StartTime
	}

	claim := domain.NewShiftClaim(uuid.New().String(), shift, cmd.Worker.WorkerID, cmd.Worker.TenantID, factors, &expiresAt)
	if err := s.claims.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save claim: %w", err)
	}
	s.publishClaimEvents(ctx, claim)

	if s.metrics != nil {
		s.metrics.ClaimsSubmitted.WithLabelValues(strconv.FormatBool(crossTenant)).Inc()
	}

	payload := shiftPayload(shift)
	payload["workerName"] = cmd.Worker.WorkerID
	s.notifier.Dispatch(notification.NewIntent(
		shift.CreatedBy,
		notification.TypeClaimSubmitted,
		notification.UrgencyNormal,
		claim.ClaimID,
		payload,
	))

	s.logger.WithContext(ctx).Info("Claim submitted",
		"claimId", claim.ClaimID,
		"shiftId", shift.ShiftID,
		"workerId", cmd.Worker.WorkerID,
		"priorityScore", claim.PriorityScore,
		"crossTenant", crossTenant)

	return ToClaimDTO(claim), nil
}

// ResolveClaim approves or rejects a pending claim. Approval atomically
// rejects every sibling pending claim and drives the shift transition; two
// concurrent approvals on the same shift cannot both succeed.
func (s *ClaimService) ResolveClaim(ctx context.Context, cmd ResolveClaimCommand) (*ResolutionDTO, error) {
	claim, err := s.claims.FindByID(ctx, cmd.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	if claim == nil {
		return nil, errors.ErrNotFoundWithID("claim", cmd.ClaimID)
	}
	if claim.Status.IsResolved() {
		return nil, errors.ErrAlreadyResolved(string(claim.Status))
	}

	if !cmd.Approved {
		return s.rejectClaim(ctx, claim, cmd)
	}
	return s.approveClaim(ctx, claim, cmd)
}

// RankedClaims lists a shift's pending claims in resolution order: priority
// score descending, earlier claim first on ties.
func (s *ClaimService) RankedClaims(ctx context.Context, shiftID string) ([]*ClaimDTO, error) {
	claims, err := s.claims.FindPendingByShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return ToClaimDTOs(claims), nil
}

// WorkerClaims lists a worker's claims
func (s *ClaimService) WorkerClaims(ctx context.Context, workerID string) ([]*ClaimDTO, error) {
	claims, err := s.claims.FindByWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return ToClaimDTOs(claims), nil
}

func (s *ClaimService) approveClaim(ctx context.Context, claim *domain.ShiftClaim, cmd ResolveClaimCommand) (*ResolutionDTO, error) {
	shift, err := s.shifts.FindByID(ctx, claim.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift == nil {
		return nil, errors.ErrNotFoundWithID("shift", claim.ShiftID)
	}

	siblings, err := s.claims.FindPendingByShift(ctx, claim.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling claims: %w", err)
	}

	if err := claim.Approve(cmd.ResolverID); err != nil {
		return nil, errors.ErrAlreadyResolved(string(claim.Status))
	}
	if err := shift.AssignWorker(claim.WorkerID, cmd.ResolverID); err != nil {
		return nil, mapTransitionError(err, shift)
	}

	rejected := make([]*domain.ShiftClaim, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.ClaimID == claim.ClaimID {
			continue
		}
		if err := sibling.Reject(cmd.ResolverID, domain.RejectionReasonShiftFilled); err != nil {
			continue
		}
		rejected = append(rejected, sibling)
	}

	resolution := &domain.ClaimResolution{
		Shift:    shift,
		Approved: claim,
		Rejected: rejected,
	}
	if err := s.resolver.CommitApproval(ctx, resolution); err != nil {
		if stderrors.Is(err, domain.ErrClaimAlreadyResolved) {
			return nil, errors.ErrAlreadyResolved(string(domain.ClaimStatusApproved))
		}
		s.logger.WithContext(ctx).WithError(err).Error("Claim approval commit failed",
			"claimId", claim.ClaimID,
			"shiftId", shift.ShiftID)
		return nil, errors.ErrTransientStore(err)
	}

	s.publishClaimEvents(ctx, claim)
	s.publishEvents(ctx, shift)
	for _, sibling := range rejected {
		s.publishClaimEvents(ctx, sibling)
	}

	if s.metrics != nil {
		s.metrics.ClaimsResolved.WithLabelValues("approved").Inc()
		for range rejected {
			s.metrics.ClaimsResolved.WithLabelValues("rejected").Inc()
		}
	}

	payload := shiftPayload(shift)
	intents := []notification.Intent{notification.NewIntent(
		claim.WorkerID,
		notification.TypeClaimApproved,
		notification.UrgencyHigh,
		claim.ClaimID,
		payload,
	)}
	for _, sibling := range rejected {
		rejectedPayload := shiftPayload(shift)
		rejectedPayload["reason"] = sibling.RejectionReason
		intents = append(intents, notification.NewIntent(
			sibling.WorkerID,
			notification.TypeClaimRejected,
			notification.UrgencyNormal,
			sibling.ClaimID,
			rejectedPayload,
		))
	}
	s.notifier.Dispatch(intents...)

	s.logger.WithContext(ctx).Info("Claim approved",
		"claimId", claim.ClaimID,
		"shiftId", shift.ShiftID,
		"workerId", claim.WorkerID,
		"rejectedSiblings", len(rejected))

	return &ResolutionDTO{
		Claim:         *ToClaimDTO(claim),
		Shift:         *ToShiftDTO(shift),
		RejectedCount: len(rejected),
	}, nil
}

func (s *ClaimService) rejectClaim(ctx context.Context, claim *domain.ShiftClaim, cmd ResolveClaimCommand) (*ResolutionDTO, error) {
	reason := cmd.Reason
	if reason == "" {
		reason = "rejected by manager"
	}
	if err := claim.Reject(cmd.ResolverID, reason); err != nil {
		return nil, errors.ErrAlreadyResolved(string(claim.Status))
	}
	if err := s.claims.Save(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to save claim: %w", err)
	}
	s.publishClaimEvents(ctx, claim)

	if s.metrics != nil {
		s.metrics.ClaimsResolved.WithLabelValues("rejected").Inc()
	}

	shift, err := s.shifts.FindByID(ctx, claim.ShiftID)
	payload := map[string]string{"reason": reason}
	if err == nil && shift != nil {
		payload = shiftPayload(shift)
		payload["reason"] = reason
	}
	s.notifier.Dispatch(notification.NewIntent(
		claim.WorkerID,
		notification.TypeClaimRejected,
		notification.UrgencyNormal,
		claim.ClaimID,
		payload,
	))

	return &ResolutionDTO{Claim: *ToClaimDTO(claim)}, nil
}

// checkCommuteFeasibility rejects a cross-tenant claim when the worker could
// not plausibly travel between this shift and a scheduled one on either side
// of it.
func (s *ClaimService) checkCommuteFeasibility(ctx context.Context, shift *domain.Shift, workerID string) error {
	window := 24 * time.Hour
	neighbors, err := s.shifts.FindByWorker(ctx, workerID, shift.StartTime.Add(-window), shift.EndTime.Add(window))
	if err != nil {
		return errors.ErrTransientStore(err)
	}

	for _, other := range neighbors {
		if other.ShiftID == shift.ShiftID {
			continue
		}

		distance := geo.Distance(other.Location, shift.Location)

		// Previous shift: the worker must get from it to this one.
		if !other.EndTime.After(shift.StartTime) {
			check := geo.CanCommute(other.EndTime, shift.StartTime, distance, s.commute)
			if !check.Feasible {
				return errors.ErrOutOfRange(check.EstimatedMinutes, check.AvailableMinutes)
			}
			continue
		}

		// Next shift: the worker must get from this one to it.
		if !shift.EndTime.After(other.StartTime) {
			check := geo.CanCommute(shift.EndTime, other.StartTime, distance, s.commute)
			if !check.Feasible {
				return errors.ErrOutOfRange(check.EstimatedMinutes, check.AvailableMinutes)
			}
			continue
		}

		// Overlapping shifts can never be commuted between.
		check := geo.CanCommute(other.EndTime, shift.StartTime, distance, s.commute)
		return errors.ErrOutOfRange(check.EstimatedMinutes, check.AvailableMinutes)
	}
	return nil
}

func (s *ClaimService) publishClaimEvents(ctx context.Context, claim *domain.ShiftClaim) {
	events := claim.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to publish claim events",
			"claimId", claim.ClaimID)
	}
	claim.ClearDomainEvents()
}

func (s *ClaimService) publishEvents(ctx context.Context, shift *domain.Shift) {
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

// claimTimeBonus converts lead time before shift start into bonus points,
// one per hour. The scorer caps the reward.
func claimTimeBonus(shiftStart, now time.Time) int {
	hours := int(shiftStart.Sub(now).Hours())
	if hours < 0 {
		return 0
	}
	return hours
}
