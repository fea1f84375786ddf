package domain

import (
	"context"
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
)

// ShiftRepository defines the interface for shift persistence
type ShiftRepository interface {
	// Save persists a shift (create or update)
	Save(ctx context.Context, shift *Shift) error

	// FindByID retrieves a shift by its ID
	FindByID(ctx context.Context, shiftID string) (*Shift, error)

	// FindByStatus retrieves shifts by status for the tenant in context
	FindByStatus(ctx context.Context, status ShiftStatus) ([]*Shift, error)

	// FindOpenInBox retrieves claimable shifts whose location falls inside a
	// coarse bounding box, across the tenant's network
	FindOpenInBox(ctx context.Context, box geo.Box, from, to time.Time) ([]*Shift, error)

	// FindByWorker retrieves shifts assigned to a worker within a window
	FindByWorker(ctx context.Context, workerID string, from, to time.Time) ([]*Shift, error)

	// FindByDateRange retrieves shifts starting within a window
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*Shift, error)

	// FindOffersExpiredBefore retrieves PUBLISHED_OFFERED shifts whose offer
	// deadline elapsed before the cutoff
	FindOffersExpiredBefore(ctx context.Context, cutoff time.Time) ([]*Shift, error)
}

// ClaimRepository defines the interface for claim persistence
type ClaimRepository interface {
	// Save persists a claim (create or update)
	Save(ctx context.Context, claim *ShiftClaim) error

	// FindByID retrieves a claim by its ID
	FindByID(ctx context.Context, claimID string) (*ShiftClaim, error)

	// FindPendingByShift retrieves all pending claims for a shift, ordered by
	// priority score descending and claim time ascending
	FindPendingByShift(ctx context.Context, shiftID string) ([]*ShiftClaim, error)

	// FindByWorker retrieves a worker's claims
	FindByWorker(ctx context.Context, workerID string) ([]*ShiftClaim, error)

	// FindExpiredBefore retrieves pending claims whose deadline elapsed
	// before the cutoff
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*ShiftClaim, error)
}

// SwapRepository defines the interface for swap persistence
type SwapRepository interface {
	// Save persists a swap (create or update)
	Save(ctx context.Context, swap *ShiftSwap) error

	// FindByID retrieves a swap by its ID
	FindByID(ctx context.Context, swapID string) (*ShiftSwap, error)

	// FindPendingByShift retrieves pending swaps referencing a shift
	FindPendingByShift(ctx context.Context, shiftID string) ([]*ShiftSwap, error)

	// FindByWorker retrieves swaps where the worker is source or target
	FindByWorker(ctx context.Context, workerID string) ([]*ShiftSwap, error)

	// FindExpiredBefore retrieves pending swaps whose deadline elapsed before
	// the cutoff
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*ShiftSwap, error)
}

// ClaimResolution is the atomic outcome of approving one claim: the winning
// claim, the rejected siblings, and the transitioned shift persisted as a
// single unit.
type ClaimResolution struct {
	Shift    *Shift
	Approved *ShiftClaim
	Rejected []*ShiftClaim
}

// ClaimResolutionStore commits an approval atomically. Implementations must
// guarantee that two concurrent approvals for claims on the same shift cannot
// both succeed.
type ClaimResolutionStore interface {
	// CommitApproval persists the resolution in one transaction, conditioned
	// on the shift still being claimable and the claim still pending.
	CommitApproval(ctx context.Context, resolution *ClaimResolution) error
}

// SwapAcceptance is the atomic outcome of accepting a swap: the resolved
// swap and the reassigned shift persisted as a single unit.
type SwapAcceptance struct {
	Shift *Shift
	Swap  *ShiftSwap
}

// SwapAcceptanceStore commits an acceptance atomically. A failure must leave
// both the shift and the swap in their prior stored state.
type SwapAcceptanceStore interface {
	// CommitAcceptance persists the acceptance in one transaction,
	// conditioned on the swap still being pending and the shift still held
	// by the worker who requested the swap.
	CommitAcceptance(ctx context.Context, acceptance *SwapAcceptance) error
}

// EventPublisher publishes domain events to the message broker
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
