// Package notification decides whether, how, and over which channels a user
// hears about scheduling activity. Delivery is fire-and-forget relative to
// the shift and claim lifecycle; nothing here can fail a domain operation.
package notification

import "time"

// Type enumerates the notification kinds the pipeline knows how to render
type Type string

const (
	TypeShiftOffered   Type = "SHIFT_OFFERED"
	TypeShiftCancelled Type = "SHIFT_CANCELLED"
	TypeShiftReminder  Type = "SHIFT_REMINDER"
	TypeClaimSubmitted Type = "CLAIM_SUBMITTED"
	TypeClaimApproved  Type = "CLAIM_APPROVED"
	TypeClaimRejected  Type = "CLAIM_REJECTED"
	TypeSwapRequested  Type = "SWAP_REQUESTED"
	TypeSwapAccepted   Type = "SWAP_ACCEPTED"
	TypeSwapRejected   Type = "SWAP_REJECTED"
)

// Urgency tiers. CRITICAL and HIGH punch through quiet hours.
type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyNormal   Urgency = "NORMAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// BypassesQuietHours reports whether the urgency overrides quiet hours
func (u Urgency) BypassesQuietHours() bool {
	return u == UrgencyCritical || u == UrgencyHigh
}

// Intent is an ephemeral request to notify one user about one entity. It is
// not persisted; only the resulting delivery record is.
type Intent struct {
	UserID    string            `json:"userId"`
	Type      Type              `json:"type"`
	Urgency   Urgency           `json:"urgency"`
	EntityKey string            `json:"entityKey"`
	Payload   map[string]string `json:"payload,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewIntent builds an intent stamped with the current time
func NewIntent(userID string, t Type, urgency Urgency, entityKey string, payload map[string]string) Intent {
	return Intent{
		UserID:    userID,
		Type:      t,
		Urgency:   urgency,
		EntityKey: entityKey,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// DedupKey scopes deduplication to (user, type, entity)
func (i Intent) DedupKey() string {
	return i.UserID + ":" + string(i.Type) + ":" + i.EntityKey
}

// Status is the state of one processed intent. PENDING only ever appears on
// a stored record whose channel attempts were cut short by a crash; every
// completed delivery overwrites it with the outcome.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusSuppressed         Status = "SUPPRESSED"
	StatusQueuedForBatch     Status = "QUEUED_FOR_BATCH"
	StatusDelivered          Status = "DELIVERED"
	StatusPartiallyDelivered Status = "PARTIALLY_DELIVERED"
	StatusFailed             Status = "FAILED"
)

// Suppression reasons, recorded for observability
const (
	ReasonPreferenceDisabled = "preference_disabled"
	ReasonQuietHours         = "quiet_hours"
	ReasonRateLimited        = "rate_limited"
	ReasonDuplicate          = "duplicate"
)

// Result summarizes what the pipeline did with an intent
type Result struct {
	Status   Status           `json:"status"`
	Reason   string           `json:"reason,omitempty"`
	Attempts []ChannelAttempt `json:"attempts,omitempty"`
	RecordID string           `json:"recordId,omitempty"`
}
