package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// ShiftCreatedEvent is published when a new shift is drafted
type ShiftCreatedEvent struct {
	ShiftID   string    `json:"shiftId"`
	TenantID  string    `json:"tenantId"`
	Position  string    `json:"position"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *ShiftCreatedEvent) EventType() string     { return "scheduling.shift.created" }
func (e *ShiftCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ShiftTransitionedEvent is published for every accepted status transition
type ShiftTransitionedEvent struct {
	ShiftID      string      `json:"shiftId"`
	TenantID     string      `json:"tenantId"`
	From         ShiftStatus `json:"from"`
	To           ShiftStatus `json:"to"`
	ActorID      string      `json:"actorId"`
	Reason       string      `json:"reason,omitempty"`
	TransitionAt time.Time   `json:"transitionAt"`
}

func (e *ShiftTransitionedEvent) EventType() string     { return "scheduling.shift.transitioned" }
func (e *ShiftTransitionedEvent) OccurredAt() time.Time { return e.TransitionAt }

// ShiftPublishedEvent is published when a draft becomes visible to workers
type ShiftPublishedEvent struct {
	ShiftID     string    `json:"shiftId"`
	TenantID    string    `json:"tenantId"`
	Position    string    `json:"position"`
	StartTime   time.Time `json:"startTime"`
	PublishedAt time.Time `json:"publishedAt"`
}

func (e *ShiftPublishedEvent) EventType() string     { return "scheduling.shift.published" }
func (e *ShiftPublishedEvent) OccurredAt() time.Time { return e.PublishedAt }

// ShiftOfferedEvent is published when a shift is targeted at specific workers
type ShiftOfferedEvent struct {
	ShiftID   string    `json:"shiftId"`
	TenantID  string    `json:"tenantId"`
	WorkerIDs []string  `json:"workerIds"`
	ExpiresAt time.Time `json:"expiresAt"`
	OfferedAt time.Time `json:"offeredAt"`
}

func (e *ShiftOfferedEvent) EventType() string     { return "scheduling.shift.offered" }
func (e *ShiftOfferedEvent) OccurredAt() time.Time { return e.OfferedAt }

// ShiftClaimedEvent is published when a worker wins the shift
type ShiftClaimedEvent struct {
	ShiftID   string    `json:"shiftId"`
	TenantID  string    `json:"tenantId"`
	WorkerID  string    `json:"workerId"`
	Confirmed bool      `json:"confirmed"`
	ClaimedAt time.Time `json:"claimedAt"`
}

func (e *ShiftClaimedEvent) EventType() string     { return "scheduling.shift.claimed" }
func (e *ShiftClaimedEvent) OccurredAt() time.Time { return e.ClaimedAt }

// ShiftConfirmedEvent is published when the assignment is locked in
type ShiftConfirmedEvent struct {
	ShiftID     string    `json:"shiftId"`
	TenantID    string    `json:"tenantId"`
	WorkerID    string    `json:"workerId"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

func (e *ShiftConfirmedEvent) EventType() string     { return "scheduling.shift.confirmed" }
func (e *ShiftConfirmedEvent) OccurredAt() time.Time { return e.ConfirmedAt }

// ShiftCompletedEvent is published when a worked shift closes out
type ShiftCompletedEvent struct {
	ShiftID     string    `json:"shiftId"`
	TenantID    string    `json:"tenantId"`
	WorkerID    string    `json:"workerId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (e *ShiftCompletedEvent) EventType() string     { return "scheduling.shift.completed" }
func (e *ShiftCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }

// ShiftCancelledEvent is published when a shift is withdrawn
type ShiftCancelledEvent struct {
	ShiftID     string    `json:"shiftId"`
	TenantID    string    `json:"tenantId"`
	WorkerID    string    `json:"workerId,omitempty"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func (e *ShiftCancelledEvent) EventType() string     { return "scheduling.shift.cancelled" }
func (e *ShiftCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// ShiftNoShowEvent is published when the assigned worker never arrives
type ShiftNoShowEvent struct {
	ShiftID  string    `json:"shiftId"`
	TenantID string    `json:"tenantId"`
	WorkerID string    `json:"workerId"`
	MarkedAt time.Time `json:"markedAt"`
}

func (e *ShiftNoShowEvent) EventType() string     { return "scheduling.shift.no-show" }
func (e *ShiftNoShowEvent) OccurredAt() time.Time { return e.MarkedAt }

// ShiftReturnedToPoolEvent is published when a shift goes back to the open pool
type ShiftReturnedToPoolEvent struct {
	ShiftID    string    `json:"shiftId"`
	TenantID   string    `json:"tenantId"`
	Reason     string    `json:"reason"`
	ReturnedAt time.Time `json:"returnedAt"`
}

func (e *ShiftReturnedToPoolEvent) EventType() string     { return "scheduling.shift.returned" }
func (e *ShiftReturnedToPoolEvent) OccurredAt() time.Time { return e.ReturnedAt }

// ClaimSubmittedEvent is published when a worker bids for a shift
type ClaimSubmittedEvent struct {
	ClaimID       string    `json:"claimId"`
	ShiftID       string    `json:"shiftId"`
	TenantID      string    `json:"tenantId"`
	WorkerID      string    `json:"workerId"`
	PriorityScore int       `json:"priorityScore"`
	CrossTenant   bool      `json:"crossTenant"`
	ClaimedAt     time.Time `json:"claimedAt"`
}

func (e *ClaimSubmittedEvent) EventType() string     { return "scheduling.claim.submitted" }
func (e *ClaimSubmittedEvent) OccurredAt() time.Time { return e.ClaimedAt }

// ClaimApprovedEvent is published when a claim wins
type ClaimApprovedEvent struct {
	ClaimID    string    `json:"claimId"`
	ShiftID    string    `json:"shiftId"`
	TenantID   string    `json:"tenantId"`
	WorkerID   string    `json:"workerId"`
	ResolverID string    `json:"resolverId"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

func (e *ClaimApprovedEvent) EventType() string     { return "scheduling.claim.approved" }
func (e *ClaimApprovedEvent) OccurredAt() time.Time { return e.ResolvedAt }

// ClaimRejectedEvent is published when a claim is declined
type ClaimRejectedEvent struct {
	ClaimID    string    `json:"claimId"`
	ShiftID    string    `json:"shiftId"`
	TenantID   string    `json:"tenantId"`
	WorkerID   string    `json:"workerId"`
	Reason     string    `json:"reason"`
	ResolverID string    `json:"resolverId,omitempty"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

func (e *ClaimRejectedEvent) EventType() string     { return "scheduling.claim.rejected" }
func (e *ClaimRejectedEvent) OccurredAt() time.Time { return e.ResolvedAt }

// ClaimExpiredEvent is published when a pending claim times out
type ClaimExpiredEvent struct {
	ClaimID   string    `json:"claimId"`
	ShiftID   string    `json:"shiftId"`
	TenantID  string    `json:"tenantId"`
	WorkerID  string    `json:"workerId"`
	ExpiredAt time.Time `json:"expiredAt"`
}

func (e *ClaimExpiredEvent) EventType() string     { return "scheduling.claim.expired" }
func (e *ClaimExpiredEvent) OccurredAt() time.Time { return e.ExpiredAt }

// SwapRequestedEvent is published when a worker requests a trade or give-away
type SwapRequestedEvent struct {
	SwapID         string    `json:"swapId"`
	SourceShiftID  string    `json:"sourceShiftId"`
	SourceWorkerID string    `json:"sourceWorkerId"`
	TenantID       string    `json:"tenantId"`
	RequestedAt    time.Time `json:"requestedAt"`
}

func (e *SwapRequestedEvent) EventType() string     { return "scheduling.swap.requested" }
func (e *SwapRequestedEvent) OccurredAt() time.Time { return e.RequestedAt }

// SwapAcceptedEvent is published when a swap resolves
type SwapAcceptedEvent struct {
	SwapID         string    `json:"swapId"`
	SourceShiftID  string    `json:"sourceShiftId"`
	SourceWorkerID string    `json:"sourceWorkerId"`
	TargetWorkerID string    `json:"targetWorkerId"`
	TenantID       string    `json:"tenantId"`
	AcceptedAt     time.Time `json:"acceptedAt"`
}

func (e *SwapAcceptedEvent) EventType() string     { return "scheduling.swap.accepted" }
func (e *SwapAcceptedEvent) OccurredAt() time.Time { return e.AcceptedAt }

// SwapRejectedEvent is published when a swap is declined
type SwapRejectedEvent struct {
	SwapID         string    `json:"swapId"`
	SourceShiftID  string    `json:"sourceShiftId"`
	SourceWorkerID string    `json:"sourceWorkerId"`
	TenantID       string    `json:"tenantId"`
	ActorID        string    `json:"actorId"`
	Reason         string    `json:"reason,omitempty"`
	RejectedAt     time.Time `json:"rejectedAt"`
}

func (e *SwapRejectedEvent) EventType() string     { return "scheduling.swap.rejected" }
func (e *SwapRejectedEvent) OccurredAt() time.Time { return e.RejectedAt }
