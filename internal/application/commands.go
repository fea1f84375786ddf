package application

import (
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
)

// CreateShiftCommand drafts a new shift
type CreateShiftCommand struct {
	Position      string    `json:"position" binding:"required"`
	ShiftType     string    `json:"shiftType" binding:"required"`
	StartTime     time.Time `json:"startTime" binding:"required"`
	EndTime       time.Time `json:"endTime" binding:"required"`
	BreakMinutes  int       `json:"breakMinutes"`
	Location      geo.Point `json:"location"`
	Notes         string    `json:"notes"`
	AutoApprove   bool      `json:"autoApprove"`
	MinReputation float64   `json:"minReputation"`
	RateOverride  *float64  `json:"rateOverride"`
}

// PublishShiftCommand opens a draft shift to the pool
type PublishShiftCommand struct {
	ShiftID string
	ActorID string
}

// OfferShiftCommand targets a published shift at specific workers
type OfferShiftCommand struct {
	ShiftID   string
	WorkerIDs []string  `json:"workerIds" binding:"required"`
	ExpiresAt time.Time `json:"expiresAt" binding:"required"`
	ActorID   string
}

// CancelShiftCommand withdraws a shift
type CancelShiftCommand struct {
	ShiftID string
	Reason  string `json:"reason"`
	ActorID string
}

// TransitionShiftCommand drives an explicit lifecycle transition
// (confirm, start, complete, no-show, return to pool)
type TransitionShiftCommand struct {
	ShiftID string
	Target  string `json:"target" binding:"required"`
	Reason  string `json:"reason"`
	ActorID string
}

// WorkerProfile carries the claiming worker's standing, supplied by the
// caller at claim time.
type WorkerProfile struct {
	WorkerID        string    `json:"workerId" binding:"required"`
	TenantID        string    `json:"tenantId" binding:"required"`
	Tier            string    `json:"tier"`
	ReputationStars float64   `json:"reputationStars"`
	Reliability     float64   `json:"reliability"`
	NoShowCount     int       `json:"noShowCount"`
	Location        geo.Point `json:"location"`
}

// SubmitClaimCommand bids for a shift on behalf of a worker
type SubmitClaimCommand struct {
	ShiftID string
	Worker  WorkerProfile `json:"worker" binding:"required"`
}

// ResolveClaimCommand approves or rejects a pending claim
type ResolveClaimCommand struct {
	ClaimID    string
	Approved   bool   `json:"approved"`
	Reason     string `json:"reason"`
	ResolverID string
}

// RequestSwapCommand opens a swap for the worker's shift
type RequestSwapCommand struct {
	SourceShiftID  string     `json:"sourceShiftId" binding:"required"`
	SourceWorkerID string     `json:"sourceWorkerId" binding:"required"`
	TargetShiftID  string     `json:"targetShiftId"`
	TargetWorkerID string     `json:"targetWorkerId"`
	Message        string     `json:"message"`
	ExpiresAt      *time.Time `json:"expiresAt"`
}

// DecideSwapCommand records the manager's approval outcome
type DecideSwapCommand struct {
	SwapID     string
	Approved   bool `json:"approved"`
	ApproverID string
}

// AcceptSwapCommand resolves a swap in favor of the accepting worker
type AcceptSwapCommand struct {
	SwapID         string
	TargetWorkerID string `json:"targetWorkerId"`
}

// RejectSwapCommand declines a swap
type RejectSwapCommand struct {
	SwapID  string
	Reason  string `json:"reason"`
	ActorID string
}

// UpdatePreferencesCommand replaces a user's notification settings
type UpdatePreferencesCommand struct {
	UserID            string
	Timezone          string                `json:"timezone"`
	QuietHoursEnabled bool                  `json:"quietHoursEnabled"`
	QuietStart        string                `json:"quietStart"`
	QuietEnd          string                `json:"quietEnd"`
	BatchingEnabled   bool                  `json:"batchingEnabled"`
	DisabledTypes     []string              `json:"disabledTypes"`
	Channels          map[string][]string   `json:"channels"`
	Contact           *notification.Contact `json:"contact"`
}

// ListShiftsQuery filters the tenant's shifts
type ListShiftsQuery struct {
	Status string
	From   time.Time
	To     time.Time
}

// OpenShiftsQuery finds claimable shifts near a worker across the network
type OpenShiftsQuery struct {
	Center      geo.Point
	RadiusMiles float64
	From        time.Time
	To          time.Time
}
