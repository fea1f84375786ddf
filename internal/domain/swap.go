package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors
var (
	ErrSwapAlreadyResolved     = errors.New("swap has already been resolved")
	ErrSwapApprovalRequired    = errors.New("swap requires manager approval before acceptance")
	ErrSwapMissingCounterparty = errors.New("swap needs a target shift or target worker")
)

// ShiftSwap is a worker-initiated trade or give-away of a shift. Shifts are
// referenced by id rather than embedded because a swap can span two shifts
// owned by different tenants.
type ShiftSwap struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	SwapID           string             `bson:"swapId"`
	SourceShiftID    string             `bson:"sourceShiftId"`
	SourceWorkerID   string             `bson:"sourceWorkerId"`
	SourceTenantID   string             `bson:"sourceTenantId"`
	TargetShiftID    string             `bson:"targetShiftId,omitempty"`
	TargetWorkerID   string             `bson:"targetWorkerId,omitempty"`
	Status           SwapStatus         `bson:"status"`
	RequiresApproval bool               `bson:"requiresApproval"`
	ManagerApproved  *bool              `bson:"managerApproved,omitempty"`
	ApproverID       string             `bson:"approverId,omitempty"`
	Message          string             `bson:"message,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
	ExpiresAt        *time.Time         `bson:"expiresAt,omitempty"`
	ResolvedAt       *time.Time         `bson:"resolvedAt,omitempty"`
	DomainEvents     []DomainEvent      `bson:"-"` // Transient
}

// NewShiftSwap creates a PENDING swap request. A swap with a target shift is
// a direct trade; one with only a target worker (or neither) is an open
// give-away eventually accepted by whoever takes the shift.
func NewShiftSwap(swapID, sourceShiftID, sourceWorkerID, sourceTenantID string, requiresApproval bool) *ShiftSwap {
	now := time.Now().UTC()
	swap := &ShiftSwap{
		SwapID:           swapID,
		SourceShiftID:    sourceShiftID,
		SourceWorkerID:   sourceWorkerID,
		SourceTenantID:   sourceTenantID,
		Status:           SwapStatusPending,
		RequiresApproval: requiresApproval,
		CreatedAt:        now,
	}

	swap.AddDomainEvent(&SwapRequestedEvent{
		SwapID:         swapID,
		SourceShiftID:  sourceShiftID,
		SourceWorkerID: sourceWorkerID,
		TenantID:       sourceTenantID,
		RequestedAt:    now,
	})

	return swap
}

// SetManagerDecision records the manager's approval outcome. A denial does
// not resolve the swap by itself; the caller rejects it explicitly.
func (sw *ShiftSwap) SetManagerDecision(approverID string, approved bool) error {
	if sw.Status != SwapStatusPending {
		return ErrSwapAlreadyResolved
	}
	sw.ManagerApproved = &approved
	sw.ApproverID = approverID
	return nil
}

// Accept resolves the swap in favor of the counterparty. When the swap
// requires approval, acceptance is refused until the manager has approved.
func (sw *ShiftSwap) Accept(targetWorkerID string) error {
	if sw.Status != SwapStatusPending {
		return ErrSwapAlreadyResolved
	}
	if sw.RequiresApproval && (sw.ManagerApproved == nil || !*sw.ManagerApproved) {
		return ErrSwapApprovalRequired
	}
	if targetWorkerID == "" && sw.TargetWorkerID == "" {
		return ErrSwapMissingCounterparty
	}
	if targetWorkerID != "" {
		sw.TargetWorkerID = targetWorkerID
	}

	now := time.Now().UTC()
	sw.Status = SwapStatusAccepted
	sw.ResolvedAt = &now

	sw.AddDomainEvent(&SwapAcceptedEvent{
		SwapID:         sw.SwapID,
		SourceShiftID:  sw.SourceShiftID,
		SourceWorkerID: sw.SourceWorkerID,
		TargetWorkerID: sw.TargetWorkerID,
		TenantID:       sw.SourceTenantID,
		AcceptedAt:     now,
	})
	return nil
}

// Reject declines the swap
func (sw *ShiftSwap) Reject(actorID, reason string) error {
	if sw.Status != SwapStatusPending {
		return ErrSwapAlreadyResolved
	}

	now := time.Now().UTC()
	sw.Status = SwapStatusRejected
	sw.ResolvedAt = &now

	sw.AddDomainEvent(&SwapRejectedEvent{
		SwapID:         sw.SwapID,
		SourceShiftID:  sw.SourceShiftID,
		SourceWorkerID: sw.SourceWorkerID,
		TenantID:       sw.SourceTenantID,
		ActorID:        actorID,
		Reason:         reason,
		RejectedAt:     now,
	})
	return nil
}

// Cancel withdraws the swap request. Only meaningful while pending.
func (sw *ShiftSwap) Cancel() error {
	if sw.Status != SwapStatusPending {
		return ErrSwapAlreadyResolved
	}

	now := time.Now().UTC()
	sw.Status = SwapStatusCancelled
	sw.ResolvedAt = &now
	return nil
}

// Expire times out a pending swap. Idempotent for sweep safety.
func (sw *ShiftSwap) Expire() bool {
	if sw.Status != SwapStatusPending {
		return false
	}

	now := time.Now().UTC()
	sw.Status = SwapStatusExpired
	sw.ResolvedAt = &now
	return true
}

// HasExpired reports whether a pending swap's deadline has elapsed
func (sw *ShiftSwap) HasExpired(now time.Time) bool {
	return sw.Status == SwapStatusPending &&
		sw.ExpiresAt != nil && now.After(*sw.ExpiresAt)
}

// IsDirectTrade reports whether the swap targets a specific shift
func (sw *ShiftSwap) IsDirectTrade() bool {
	return sw.TargetShiftID != ""
}

// AddDomainEvent appends a domain event for later publication
func (sw *ShiftSwap) AddDomainEvent(event DomainEvent) {
	sw.DomainEvents = append(sw.DomainEvents, event)
}

// ClearDomainEvents clears all domain events after publishing
func (sw *ShiftSwap) ClearDomainEvents() {
	sw.DomainEvents = nil
}

// GetDomainEvents returns the pending domain events
func (sw *ShiftSwap) GetDomainEvents() []DomainEvent {
	return sw.DomainEvents
}
