package application

import (
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
)

// ShiftDTO is the API representation of a shift
type ShiftDTO struct {
	ShiftID          string          `json:"shiftId"`
	TenantID         string          `json:"tenantId"`
	Position         string          `json:"position"`
	ShiftType        string          `json:"shiftType"`
	StartTime        time.Time       `json:"startTime"`
	EndTime          time.Time       `json:"endTime"`
	BreakMinutes     int             `json:"breakMinutes"`
	Location         geo.Point       `json:"location"`
	AssignedWorkerID string          `json:"assignedWorkerId,omitempty"`
	OfferedWorkerIDs []string        `json:"offeredWorkerIds,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	AutoApprove      bool            `json:"autoApprove"`
	MinReputation    float64         `json:"minReputation"`
	RateOverride     *float64        `json:"rateOverride,omitempty"`
	Status           string          `json:"status"`
	OfferExpiresAt   *time.Time      `json:"offerExpiresAt,omitempty"`
	History          []TransitionDTO `json:"history,omitempty"`
	CreatedBy        string          `json:"createdBy"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// TransitionDTO is one audit entry in a shift's history
type TransitionDTO struct {
	From     string    `json:"from"`
	To       string    `json:"to"`
	ActorID  string    `json:"actorId"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// ClaimDTO is the API representation of a shift claim
type ClaimDTO struct {
	ClaimID         string     `json:"claimId"`
	ShiftID         string     `json:"shiftId"`
	WorkerID        string     `json:"workerId"`
	CrossTenant     bool       `json:"crossTenant"`
	PriorityScore   int        `json:"priorityScore"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	ClaimedAt       time.Time  `json:"claimedAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolverID      string     `json:"resolverId,omitempty"`
}

// SwapDTO is the API representation of a shift swap
type SwapDTO struct {
	SwapID           string     `json:"swapId"`
	SourceShiftID    string     `json:"sourceShiftId"`
	SourceWorkerID   string     `json:"sourceWorkerId"`
	TargetShiftID    string     `json:"targetShiftId,omitempty"`
	TargetWorkerID   string     `json:"targetWorkerId,omitempty"`
	Status           string     `json:"status"`
	RequiresApproval bool       `json:"requiresApproval"`
	ManagerApproved  *bool      `json:"managerApproved,omitempty"`
	Message          string     `json:"message,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
}

// NotificationDTO is the API representation of one delivered notification
type NotificationDTO struct {
	RecordID  string                        `json:"recordId"`
	Type      string                        `json:"type"`
	Urgency   string                        `json:"urgency"`
	EntityKey string                        `json:"entityKey"`
	Title     string                        `json:"title"`
	Body      string                        `json:"body"`
	Status    string                        `json:"status"`
	Attempts  []notification.ChannelAttempt `json:"attempts,omitempty"`
	Read      bool                          `json:"read"`
	ReadAt    *time.Time                    `json:"readAt,omitempty"`
	CreatedAt time.Time                     `json:"createdAt"`
}

// PreferencesDTO is the API representation of a user's notification settings
type PreferencesDTO struct {
	UserID            string               `json:"userId"`
	Timezone          string               `json:"timezone"`
	QuietHoursEnabled bool                 `json:"quietHoursEnabled"`
	QuietStart        string               `json:"quietStart"`
	QuietEnd          string               `json:"quietEnd"`
	BatchingEnabled   bool                 `json:"batchingEnabled"`
	DisabledTypes     []string             `json:"disabledTypes,omitempty"`
	Channels          map[string][]string  `json:"channels,omitempty"`
	Contact           notification.Contact `json:"contact"`
}

// ResolutionDTO summarizes a claim resolution outcome
type ResolutionDTO struct {
	Claim         ClaimDTO `json:"claim"`
	Shift         ShiftDTO `json:"shift"`
	RejectedCount int      `json:"rejectedCount"`
}
