package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/scoring"
)

// Errors
var (
	ErrClaimAlreadyResolved = errors.New("claim has already been resolved")
	ErrClaimNotPending      = errors.New("claim is not pending")
)

// RejectionReasonShiftFilled is the standard reason applied to sibling
// claims when another claim wins the shift.
const RejectionReasonShiftFilled = "shift filled"

// ShiftClaim records one worker's bid for one shift. The priority score is
// computed once at claim time and never recomputed.
type ShiftClaim struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	ClaimID         string             `bson:"claimId"`
	ShiftID         string             `bson:"shiftId"`
	TenantID        string             `bson:"tenantId"`
	WorkerID        string             `bson:"workerId"`
	WorkerTenantID  string             `bson:"workerTenantId"`
	CrossTenant     bool               `bson:"crossTenant"`
	Factors         scoring.Factors    `bson:"factors"`
	PriorityScore   int                `bson:"priorityScore"`
	Status          ClaimStatus        `bson:"status"`
	RejectionReason string             `bson:"rejectionReason,omitempty"`
	ClaimedAt       time.Time          `bson:"claimedAt"`
	ExpiresAt       *time.Time         `bson:"expiresAt,omitempty"`
	ResolvedAt      *time.Time         `bson:"resolvedAt,omitempty"`
	ResolverID      string             `bson:"resolverId,omitempty"`
	DomainEvents    []DomainEvent      `bson:"-"` // Transient
}

// NewShiftClaim creates a PENDING claim with its score computed from the
// supplied factors.
func NewShiftClaim(claimID string, shift *Shift, workerID, workerTenantID string, factors scoring.Factors, expiresAt *time.Time) *ShiftClaim {
	now := time.Now().UTC()
	claim := &ShiftClaim{
		ClaimID:        claimID,
		ShiftID:        shift.ShiftID,
		TenantID:       shift.TenantID,
		WorkerID:       workerID,
		WorkerTenantID: workerTenantID,
		CrossTenant:    workerTenantID != shift.TenantID,
		Factors:        factors,
		PriorityScore:  scoring.Score(factors),
		Status:         ClaimStatusPending,
		ClaimedAt:      now,
		ExpiresAt:      expiresAt,
	}

	claim.AddDomainEvent(&ClaimSubmittedEvent{
		ClaimID:       claimID,
		ShiftID:       shift.ShiftID,
		TenantID:      shift.TenantID,
		WorkerID:      workerID,
		PriorityScore: claim.PriorityScore,
		CrossTenant:   claim.CrossTenant,
		ClaimedAt:     now,
	})

	return claim
}

// Approve marks the claim as the winning one
func (c *ShiftClaim) Approve(resolverID string) error {
	if c.Status != ClaimStatusPending {
		return ErrClaimAlreadyResolved
	}

	now := time.Now().UTC()
	c.Status = ClaimStatusApproved
	c.ResolvedAt = &now
	c.ResolverID = resolverID

	c.AddDomainEvent(&ClaimApprovedEvent{
		ClaimID:    c.ClaimID,
		ShiftID:    c.ShiftID,
		TenantID:   c.TenantID,
		WorkerID:   c.WorkerID,
		ResolverID: resolverID,
		ResolvedAt: now,
	})
	return nil
}

// Reject declines the claim with a reason
func (c *ShiftClaim) Reject(resolverID, reason string) error {
	if c.Status != ClaimStatusPending {
		return ErrClaimAlreadyResolved
	}

	now := time.Now().UTC()
	c.Status = ClaimStatusRejected
	c.RejectionReason = reason
	c.ResolvedAt = &now
	c.ResolverID = resolverID

	c.AddDomainEvent(&ClaimRejectedEvent{
		ClaimID:    c.ClaimID,
		ShiftID:    c.ShiftID,
		TenantID:   c.TenantID,
		WorkerID:   c.WorkerID,
		Reason:     reason,
		ResolverID: resolverID,
		ResolvedAt: now,
	})
	return nil
}

// Expire times out a pending claim. Expiring an already resolved claim is a
// no-op so sweeps stay idempotent.
func (c *ShiftClaim) Expire() bool {
	if c.Status != ClaimStatusPending {
		return false
	}

	now := time.Now().UTC()
	c.Status = ClaimStatusExpired
	c.ResolvedAt = &now

	c.AddDomainEvent(&ClaimExpiredEvent{
		ClaimID:   c.ClaimID,
		ShiftID:   c.ShiftID,
		TenantID:  c.TenantID,
		WorkerID:  c.WorkerID,
		ExpiredAt: now,
	})
	return true
}

// HasExpired reports whether a pending claim's deadline has elapsed
func (c *ShiftClaim) HasExpired(now time.Time) bool {
	return c.Status == ClaimStatusPending &&
		c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// AddDomainEvent appends a domain event for later publication
func (c *ShiftClaim) AddDomainEvent(event DomainEvent) {
	c.DomainEvents = append(c.DomainEvents, event)
}

// ClearDomainEvents clears all domain events after publishing
func (c *ShiftClaim) ClearDomainEvents() {
	c.DomainEvents = nil
}

// GetDomainEvents returns the pending domain events
func (c *ShiftClaim) GetDomainEvents() []DomainEvent {
	return c.DomainEvents
}
