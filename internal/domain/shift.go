package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
)

// Errors
var (
	ErrInvalidTransition    = errors.New("invalid shift status transition")
	ErrInvalidShiftType     = errors.New("invalid shift type")
	ErrInvalidShiftWindow   = errors.New("shift end must be after shift start")
	ErrShiftNotClaimable    = errors.New("shift is not open for claims")
	ErrWorkerNotOffered     = errors.New("worker is not in the offer list for this shift")
	ErrNoAssignedWorker     = errors.New("shift has no assigned worker")
	ErrWorkerAlreadyOffered = errors.New("worker is already in the offer list")
)

// TransitionError reports a rejected transition with both endpoints
type TransitionError struct {
	From ShiftStatus
	To   ShiftStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid shift status transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// TransitionRecord is an immutable audit entry for one accepted status
// transition. Records are append-only.
type TransitionRecord struct {
	From     ShiftStatus `bson:"from" json:"from"`
	To       ShiftStatus `bson:"to" json:"to"`
	ActorID  string      `bson:"actorId" json:"actorId"`
	Reason   string      `bson:"reason,omitempty" json:"reason,omitempty"`
	Occurred time.Time   `bson:"occurred" json:"occurred"`
}

// Shift is the aggregate root for the scheduling bounded context. A shift is
// never physically deleted; terminal statuses are retained for history.
type Shift struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	ShiftID          string             `bson:"shiftId"`
	TenantID         string             `bson:"tenantId"`
	NetworkID        string             `bson:"networkId,omitempty"`
	Position         string             `bson:"position"`
	ShiftType        ShiftType          `bson:"shiftType"`
	StartTime        time.Time          `bson:"startTime"`
	EndTime          time.Time          `bson:"endTime"`
	BreakMinutes     int                `bson:"breakMinutes"`
	Location         geo.Point          `bson:"location"`
	AssignedWorkerID string             `bson:"assignedWorkerId,omitempty"`
	OfferedWorkerIDs []string           `bson:"offeredWorkerIds,omitempty"`
	Notes            string             `bson:"notes,omitempty"`
	AutoApprove      bool               `bson:"autoApprove"`
	MinReputation    float64            `bson:"minReputation"`
	RateOverride     *float64           `bson:"rateOverride,omitempty"`
	Status           ShiftStatus        `bson:"status"`
	OfferExpiresAt   *time.Time         `bson:"offerExpiresAt,omitempty"`
	History          []TransitionRecord `bson:"history"`
	CreatedBy        string             `bson:"createdBy"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`
	DomainEvents     []DomainEvent      `bson:"-"` // Transient
}

// NewShift creates a new shift in DRAFT status
func NewShift(shiftID, tenantID, position string, shiftType ShiftType, start, end time.Time, createdBy string) (*Shift, error) {
	if !shiftType.IsValid() {
		return nil, ErrInvalidShiftType
	}
	if !end.After(start) {
		return nil, ErrInvalidShiftWindow
	}

	now := time.Now().UTC()
	shift := &Shift{
		ShiftID:   shiftID,
		TenantID:  tenantID,
		Position:  position,
		ShiftType: shiftType,
		StartTime: start,
		EndTime:   end,
		Status:    ShiftStatusDraft,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	shift.AddDomainEvent(&ShiftCreatedEvent{
		ShiftID:   shiftID,
		TenantID:  tenantID,
		Position:  position,
		StartTime: start,
		EndTime:   end,
		CreatedAt: now,
	})

	return shift, nil
}

// Transition moves the shift to the target status if the transition table
// allows it. Every accepted transition is appended to History; a rejected one
// mutates nothing.
func (s *Shift) Transition(target ShiftStatus, actorID, reason string) error {
	if !s.Status.CanTransitionTo(target) {
		return &TransitionError{From: s.Status, To: target}
	}

	now := time.Now().UTC()
	s.History = append(s.History, TransitionRecord{
		From:     s.Status,
		To:       target,
		ActorID:  actorID,
		Reason:   reason,
		Occurred: now,
	})

	from := s.Status
	s.Status = target
	s.UpdatedAt = now

	if !target.AllowsAssignedWorker() {
		s.AssignedWorkerID = ""
	}
	if target == ShiftStatusPublishedUnassigned {
		s.OfferedWorkerIDs = nil
		s.OfferExpiresAt = nil
	}

	s.AddDomainEvent(&ShiftTransitionedEvent{
		ShiftID:      s.ShiftID,
		TenantID:     s.TenantID,
		From:         from,
		To:           target,
		ActorID:      actorID,
		Reason:       reason,
		TransitionAt: now,
	})

	return nil
}

// Publish makes a draft shift visible to workers
func (s *Shift) Publish(actorID string) error {
	if err := s.Transition(ShiftStatusPublishedUnassigned, actorID, "published"); err != nil {
		return err
	}
	s.AddDomainEvent(&ShiftPublishedEvent{
		ShiftID:     s.ShiftID,
		TenantID:    s.TenantID,
		Position:    s.Position,
		StartTime:   s.StartTime,
		PublishedAt: s.UpdatedAt,
	})
	return nil
}

// Offer targets the published shift at a specific set of workers. Only those
// workers may claim it until the offer expires.
func (s *Shift) Offer(workerIDs []string, expiresAt time.Time, actorID string) error {
	if len(workerIDs) == 0 {
		return errors.New("offer requires at least one worker")
	}
	if err := s.Transition(ShiftStatusPublishedOffered, actorID, "offered"); err != nil {
		return err
	}

	s.OfferedWorkerIDs = append([]string(nil), workerIDs...)
	s.OfferExpiresAt = &expiresAt

	s.AddDomainEvent(&ShiftOfferedEvent{
		ShiftID:   s.ShiftID,
		TenantID:  s.TenantID,
		WorkerIDs: s.OfferedWorkerIDs,
		ExpiresAt: expiresAt,
		OfferedAt: s.UpdatedAt,
	})
	return nil
}

// AssignWorker claims the shift for a worker. With autoApprove the shift
// lands directly in CONFIRMED, otherwise it waits in PUBLISHED_CLAIMED for a
// manager decision.
func (s *Shift) AssignWorker(workerID, actorID string) error {
	if !s.Status.IsClaimable() {
		return ErrShiftNotClaimable
	}

	if err := s.Transition(ShiftStatusPublishedClaimed, actorID, "claim approved"); err != nil {
		return err
	}
	s.AssignedWorkerID = workerID

	// CONFIRMED is only reachable through PUBLISHED_CLAIMED, so auto-approve
	// takes the second hop immediately.
	if s.AutoApprove {
		if err := s.Transition(ShiftStatusConfirmed, actorID, "auto-approved"); err != nil {
			return err
		}
		s.AssignedWorkerID = workerID
	}

	s.AddDomainEvent(&ShiftClaimedEvent{
		ShiftID:   s.ShiftID,
		TenantID:  s.TenantID,
		WorkerID:  workerID,
		Confirmed: s.AutoApprove,
		ClaimedAt: s.UpdatedAt,
	})
	return nil
}

// Confirm locks in the assigned worker
func (s *Shift) Confirm(actorID string) error {
	if s.AssignedWorkerID == "" {
		return ErrNoAssignedWorker
	}
	if err := s.Transition(ShiftStatusConfirmed, actorID, "confirmed"); err != nil {
		return err
	}
	s.AddDomainEvent(&ShiftConfirmedEvent{
		ShiftID:     s.ShiftID,
		TenantID:    s.TenantID,
		WorkerID:    s.AssignedWorkerID,
		ConfirmedAt: s.UpdatedAt,
	})
	return nil
}

// Start marks the shift as underway
func (s *Shift) Start(actorID string) error {
	if s.AssignedWorkerID == "" {
		return ErrNoAssignedWorker
	}
	return s.Transition(ShiftStatusInProgress, actorID, "started")
}

// Complete closes out a worked shift
func (s *Shift) Complete(actorID string) error {
	worker := s.AssignedWorkerID
	if err := s.Transition(ShiftStatusCompleted, actorID, "completed"); err != nil {
		return err
	}
	s.AddDomainEvent(&ShiftCompletedEvent{
		ShiftID:     s.ShiftID,
		TenantID:    s.TenantID,
		WorkerID:    worker,
		CompletedAt: s.UpdatedAt,
	})
	return nil
}

// Cancel withdraws the shift. The previously assigned worker, if any, is
// captured in the event so callers can notify them.
func (s *Shift) Cancel(actorID, reason string) error {
	worker := s.AssignedWorkerID
	if err := s.Transition(ShiftStatusCancelled, actorID, reason); err != nil {
		return err
	}
	s.AddDomainEvent(&ShiftCancelledEvent{
		ShiftID:     s.ShiftID,
		TenantID:    s.TenantID,
		WorkerID:    worker,
		Reason:      reason,
		CancelledAt: s.UpdatedAt,
	})
	return nil
}

// MarkNoShow records that the assigned worker never arrived
func (s *Shift) MarkNoShow(actorID string) error {
	worker := s.AssignedWorkerID
	if worker == "" {
		return ErrNoAssignedWorker
	}
	if err := s.Transition(ShiftStatusNoShow, actorID, "worker did not arrive"); err != nil {
		return err
	}
	s.AddDomainEvent(&ShiftNoShowEvent{
		ShiftID:  s.ShiftID,
		TenantID: s.TenantID,
		WorkerID: worker,
		MarkedAt: s.UpdatedAt,
	})
	return nil
}

// ReturnToPool releases the shift back to the open pool, clearing any
// assignment or offer list
func (s *Shift) ReturnToPool(actorID, reason string) error {
	if err := s.Transition(ShiftStatusPublishedUnassigned, actorID, reason); err != nil {
		return err
	}
	s.AddDomainEvent(&ShiftReturnedToPoolEvent{
		ShiftID:    s.ShiftID,
		TenantID:   s.TenantID,
		Reason:     reason,
		ReturnedAt: s.UpdatedAt,
	})
	return nil
}

// IsOfferedTo reports whether the worker is in the current offer list
func (s *Shift) IsOfferedTo(workerID string) bool {
	for _, id := range s.OfferedWorkerIDs {
		if id == workerID {
			return true
		}
	}
	return false
}

// OfferExpired reports whether a targeted offer has lapsed as of now
func (s *Shift) OfferExpired(now time.Time) bool {
	return s.Status == ShiftStatusPublishedOffered &&
		s.OfferExpiresAt != nil && now.After(*s.OfferExpiresAt)
}

// DurationMinutes returns the scheduled working minutes net of breaks
func (s *Shift) DurationMinutes() int {
	minutes := int(s.EndTime.Sub(s.StartTime).Minutes()) - s.BreakMinutes
	if minutes < 0 {
		return 0
	}
	return minutes
}

// AddDomainEvent appends a domain event for later publication
func (s *Shift) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// ClearDomainEvents clears all domain events after publishing
func (s *Shift) ClearDomainEvents() {
	s.DomainEvents = nil
}

// GetDomainEvents returns the pending domain events
func (s *Shift) GetDomainEvents() []DomainEvent {
	return s.DomainEvents
}
