package application

import (
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
)

// ToShiftDTO converts a shift aggregate to its API representation
func ToShiftDTO(shift *domain.Shift) *ShiftDTO {
	history := make([]TransitionDTO, 0, len(shift.History))
	for _, rec := range shift.History {
		history = append(history, TransitionDTO{
			From:     string(rec.From),
			To:       string(rec.To),
			ActorID:  rec.ActorID,
			Reason:   rec.Reason,
			Occurred: rec.Occurred,
		})
	}

	return &ShiftDTO{
		ShiftID:          shift.ShiftID,
		TenantID:         shift.TenantID,
		Position:         shift.Position,
		ShiftType:        string(shift.ShiftType),
		StartTime:        shift.StartTime,
		EndTime:          shift.EndTime,
		BreakMinutes:     shift.BreakMinutes,
		Location:         shift.Location,
		AssignedWorkerID: shift.AssignedWorkerID,
		OfferedWorkerIDs: shift.OfferedWorkerIDs,
		Notes:            shift.Notes,
		AutoApprove:      shift.AutoApprove,
		MinReputation:    shift.MinReputation,
		RateOverride:     shift.RateOverride,
		Status:           string(shift.Status),
		OfferExpiresAt:   shift.OfferExpiresAt,
		History:          history,
		CreatedBy:        shift.CreatedBy,
		CreatedAt:        shift.CreatedAt,
		UpdatedAt:        shift.UpdatedAt,
	}
}

// ToShiftDTOs converts a slice of shifts
func ToShiftDTOs(shifts []*domain.Shift) []*ShiftDTO {
	out := make([]*ShiftDTO, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, ToShiftDTO(s))
	}
	return out
}

// ToClaimDTO converts a claim to its API representation
func ToClaimDTO(claim *domain.ShiftClaim) *ClaimDTO {
	return &ClaimDTO{
		ClaimID:         claim.ClaimID,
		ShiftID:         claim.ShiftID,
		WorkerID:        claim.WorkerID,
		CrossTenant:     claim.CrossTenant,
		PriorityScore:   claim.PriorityScore,
		Status:          string(claim.Status),
		RejectionReason: claim.RejectionReason,
		ClaimedAt:       claim.ClaimedAt,
		ExpiresAt:       claim.ExpiresAt,
		ResolvedAt:      claim.ResolvedAt,
		ResolverID:      claim.ResolverID,
	}
}

// ToClaimDTOs converts a slice of claims
func ToClaimDTOs(claims []*domain.ShiftClaim) []*ClaimDTO {
	out := make([]*ClaimDTO, 0, len(claims))
	for _, c := range claims {
		out = append(out, ToClaimDTO(c))
	}
	return out
}

// ToSwapDTO converts a swap to its API representation
func ToSwapDTO(swap *domain.ShiftSwap) *SwapDTO {
	return &SwapDTO{
		SwapID:           swap.SwapID,
		SourceShiftID:    swap.SourceShiftID,
		SourceWorkerID:   swap.SourceWorkerID,
		TargetShiftID:    swap.TargetShiftID,
		TargetWorkerID:   swap.TargetWorkerID,
		Status:           string(swap.Status),
		RequiresApproval: swap.RequiresApproval,
		ManagerApproved:  swap.ManagerApproved,
		Message:          swap.Message,
		CreatedAt:        swap.CreatedAt,
		ExpiresAt:        swap.ExpiresAt,
		ResolvedAt:       swap.ResolvedAt,
	}
}

// ToSwapDTOs converts a slice of swaps
func ToSwapDTOs(swaps []*domain.ShiftSwap) []*SwapDTO {
	out := make([]*SwapDTO, 0, len(swaps))
	for _, sw := range swaps {
		out = append(out, ToSwapDTO(sw))
	}
	return out
}

// ToNotificationDTO converts a delivery record to its API representation
func ToNotificationDTO(record *notification.DeliveryRecord) *NotificationDTO {
	return &NotificationDTO{
		RecordID:  record.RecordID,
		Type:      string(record.Type),
		Urgency:   string(record.Urgency),
		EntityKey: record.EntityKey,
		Title:     record.Title,
		Body:      record.Body,
		Status:    string(record.Status),
		Attempts:  record.Attempts,
		Read:      record.Read,
		ReadAt:    record.ReadAt,
		CreatedAt: record.CreatedAt,
	}
}

// ToPreferencesDTO converts preferences to their API representation
func ToPreferencesDTO(prefs *notification.Preferences) *PreferencesDTO {
	var disabled []string
	for _, t := range prefs.DisabledTypes {
		disabled = append(disabled, string(t))
	}

	var channels map[string][]string
	if len(prefs.Channels) > 0 {
		channels = make(map[string][]string, len(prefs.Channels))
		for t, kinds := range prefs.Channels {
			mapped := make([]string, 0, len(kinds))
			for _, k := range kinds {
				mapped = append(mapped, string(k))
			}
			channels[string(t)] = mapped
		}
	}

	return &PreferencesDTO{
		UserID:            prefs.UserID,
		Timezone:          prefs.Timezone,
		QuietHoursEnabled: prefs.QuietHoursEnabled,
		QuietStart:        prefs.QuietStart,
		QuietEnd:          prefs.QuietEnd,
		BatchingEnabled:   prefs.BatchingEnabled,
		DisabledTypes:     disabled,
		Channels:          channels,
		Contact:           prefs.Contact,
	}
}
