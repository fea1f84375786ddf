package domain

// ShiftStatus represents the lifecycle status of a shift
type ShiftStatus string

const (
	ShiftStatusDraft               ShiftStatus = "DRAFT"
	ShiftStatusPublishedUnassigned ShiftStatus = "PUBLISHED_UNASSIGNED"
	ShiftStatusPublishedOffered    ShiftStatus = "PUBLISHED_OFFERED"
	ShiftStatusPublishedClaimed    ShiftStatus = "PUBLISHED_CLAIMED"
	ShiftStatusConfirmed           ShiftStatus = "CONFIRMED"
	ShiftStatusInProgress          ShiftStatus = "IN_PROGRESS"
	ShiftStatusCompleted           ShiftStatus = "COMPLETED"
	ShiftStatusCancelled           ShiftStatus = "CANCELLED"
	ShiftStatusNoShow              ShiftStatus = "NO_SHOW"
)

// shiftTransitions is the directed transition table for the shift lifecycle.
// A status missing a target here cannot reach it, full stop.
var shiftTransitions = map[ShiftStatus][]ShiftStatus{
	ShiftStatusDraft: {
		ShiftStatusPublishedUnassigned,
		ShiftStatusCancelled,
	},
	ShiftStatusPublishedUnassigned: {
		ShiftStatusPublishedOffered,
		ShiftStatusPublishedClaimed,
		ShiftStatusCancelled,
	},
	ShiftStatusPublishedOffered: {
		ShiftStatusPublishedClaimed,
		ShiftStatusPublishedUnassigned,
		ShiftStatusCancelled,
	},
	ShiftStatusPublishedClaimed: {
		ShiftStatusConfirmed,
		ShiftStatusPublishedUnassigned,
		ShiftStatusCancelled,
	},
	ShiftStatusConfirmed: {
		ShiftStatusInProgress,
		ShiftStatusPublishedUnassigned,
		ShiftStatusCancelled,
		ShiftStatusNoShow,
	},
	ShiftStatusInProgress: {
		ShiftStatusCompleted,
		ShiftStatusNoShow,
	},
	ShiftStatusCompleted: {},
	ShiftStatusCancelled: {},
	ShiftStatusNoShow:    {},
}

// statusesWithAssignedWorker enumerates the statuses in which a shift may
// carry an assigned worker. Everywhere else assignedWorkerId must be empty.
var statusesWithAssignedWorker = map[ShiftStatus]bool{
	ShiftStatusPublishedClaimed: true,
	ShiftStatusConfirmed:        true,
	ShiftStatusInProgress:       true,
	ShiftStatusCompleted:        true,
	ShiftStatusNoShow:           true,
}

// IsValid reports whether the value is a known shift status
func (s ShiftStatus) IsValid() bool {
	_, ok := shiftTransitions[s]
	return ok
}

// CanTransitionTo checks the transition table for an allowed edge
func (s ShiftStatus) CanTransitionTo(target ShiftStatus) bool {
	allowed, ok := shiftTransitions[s]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s ShiftStatus) IsTerminal() bool {
	allowed, ok := shiftTransitions[s]
	return ok && len(allowed) == 0
}

// IsClaimable reports whether workers may submit claims in this status
func (s ShiftStatus) IsClaimable() bool {
	return s == ShiftStatusPublishedUnassigned || s == ShiftStatusPublishedOffered
}

// AllowsAssignedWorker reports whether the status permits a non-empty
// assigned worker reference
func (s ShiftStatus) AllowsAssignedWorker() bool {
	return statusesWithAssignedWorker[s]
}

// ClaimStatus represents the status of a shift claim
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
	ClaimStatusExpired  ClaimStatus = "EXPIRED"
)

// IsResolved reports whether the claim has reached a final status
func (s ClaimStatus) IsResolved() bool {
	return s != ClaimStatusPending
}

// SwapStatus represents the status of a shift swap request
type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "PENDING"
	SwapStatusAccepted  SwapStatus = "ACCEPTED"
	SwapStatusRejected  SwapStatus = "REJECTED"
	SwapStatusCancelled SwapStatus = "CANCELLED"
	SwapStatusExpired   SwapStatus = "EXPIRED"
)

// IsResolved reports whether the swap has reached a final status
func (s SwapStatus) IsResolved() bool {
	return s != SwapStatusPending
}

// ShiftType categorizes what kind of service a shift covers
type ShiftType string

const (
	ShiftTypeDineIn       ShiftType = "dine_in"
	ShiftTypeDeliveryOnly ShiftType = "delivery_only"
	ShiftTypeHybrid       ShiftType = "hybrid"
)

// IsValid reports whether the value is a known shift type
func (t ShiftType) IsValid() bool {
	switch t {
	case ShiftTypeDineIn, ShiftTypeDeliveryOnly, ShiftTypeHybrid:
		return true
	}
	return false
}
