package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShift(t *testing.T) *Shift {
	t.Helper()
	start := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	shift, err := NewShift("shift-1", "tenant-a", "line cook", ShiftTypeDineIn, start, start.Add(8*time.Hour), "mgr-1")
	require.NoError(t, err)
	return shift
}

func TestNewShift(t *testing.T) {
	shift := newTestShift(t)

	assert.Equal(t, ShiftStatusDraft, shift.Status)
	assert.Empty(t, shift.AssignedWorkerID)
	assert.Empty(t, shift.History)
	assert.Len(t, shift.GetDomainEvents(), 1)
	assert.Equal(t, "scheduling.shift.created", shift.GetDomainEvents()[0].EventType())
}

func TestNewShift_Validation(t *testing.T) {
	start := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)

	_, err := NewShift("s", "t", "host", ShiftType("brunch"), start, start.Add(time.Hour), "mgr")
	assert.ErrorIs(t, err, ErrInvalidShiftType)

	_, err = NewShift("s", "t", "host", ShiftTypeDineIn, start, start, "mgr")
	assert.ErrorIs(t, err, ErrInvalidShiftWindow)
}

func TestShiftTransitionTable(t *testing.T) {
	tests := []struct {
		from    ShiftStatus
		to      ShiftStatus
		allowed bool
	}{
		{ShiftStatusDraft, ShiftStatusPublishedUnassigned, true},
		{ShiftStatusDraft, ShiftStatusCancelled, true},
		{ShiftStatusDraft, ShiftStatusConfirmed, false},
		{ShiftStatusDraft, ShiftStatusCompleted, false},
		{ShiftStatusPublishedUnassigned, ShiftStatusPublishedOffered, true},
		{ShiftStatusPublishedUnassigned, ShiftStatusPublishedClaimed, true},
		{ShiftStatusPublishedUnassigned, ShiftStatusCancelled, true},
		{ShiftStatusPublishedUnassigned, ShiftStatusConfirmed, false},
		{ShiftStatusPublishedOffered, ShiftStatusPublishedClaimed, true},
		{ShiftStatusPublishedOffered, ShiftStatusPublishedUnassigned, true},
		{ShiftStatusPublishedOffered, ShiftStatusConfirmed, false},
		{ShiftStatusPublishedClaimed, ShiftStatusConfirmed, true},
		{ShiftStatusPublishedClaimed, ShiftStatusPublishedUnassigned, true},
		{ShiftStatusPublishedClaimed, ShiftStatusInProgress, false},
		{ShiftStatusConfirmed, ShiftStatusInProgress, true},
		{ShiftStatusConfirmed, ShiftStatusNoShow, true},
		{ShiftStatusConfirmed, ShiftStatusPublishedUnassigned, true},
		{ShiftStatusInProgress, ShiftStatusCompleted, true},
		{ShiftStatusInProgress, ShiftStatusNoShow, true},
		{ShiftStatusInProgress, ShiftStatusCancelled, false},
		{ShiftStatusCompleted, ShiftStatusPublishedUnassigned, false},
		{ShiftStatusCancelled, ShiftStatusDraft, false},
		{ShiftStatusNoShow, ShiftStatusPublishedUnassigned, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestShiftTransition_RejectedTransitionMutatesNothing(t *testing.T) {
	shift := newTestShift(t)

	err := shift.Transition(ShiftStatusInProgress, "mgr-1", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, ShiftStatusDraft, shift.Status)
	assert.Empty(t, shift.History)
}

func TestShiftTransition_AppendsHistory(t *testing.T) {
	shift := newTestShift(t)

	require.NoError(t, shift.Publish("mgr-1"))
	require.NoError(t, shift.AssignWorker("worker-1", "mgr-1"))
	require.NoError(t, shift.Confirm("mgr-1"))

	require.Len(t, shift.History, 3)
	assert.Equal(t, ShiftStatusDraft, shift.History[0].From)
	assert.Equal(t, ShiftStatusPublishedUnassigned, shift.History[0].To)
	assert.Equal(t, ShiftStatusPublishedClaimed, shift.History[1].To)
	assert.Equal(t, ShiftStatusConfirmed, shift.History[2].To)
	assert.Equal(t, "mgr-1", shift.History[0].ActorID)
}

func TestShiftAssignedWorkerInvariant(t *testing.T) {
	shift := newTestShift(t)
	require.NoError(t, shift.Publish("mgr-1"))
	require.NoError(t, shift.AssignWorker("worker-1", "mgr-1"))
	assert.Equal(t, "worker-1", shift.AssignedWorkerID)

	// Returning to the pool clears the assignment.
	require.NoError(t, shift.ReturnToPool("mgr-1", "worker backed out"))
	assert.Empty(t, shift.AssignedWorkerID)
	assert.Empty(t, shift.OfferedWorkerIDs)

	// Cancelling clears it too.
	require.NoError(t, shift.AssignWorker("worker-2", "mgr-1"))
	require.NoError(t, shift.Cancel("mgr-1", "restaurant closed"))
	assert.Empty(t, shift.AssignedWorkerID)
}

func TestShiftAssignWorker_AutoApproveConfirmsImmediately(t *testing.T) {
	shift := newTestShift(t)
	shift.AutoApprove = true
	require.NoError(t, shift.Publish("mgr-1"))

	require.NoError(t, shift.AssignWorker("worker-1", "worker-1"))

	assert.Equal(t, ShiftStatusConfirmed, shift.Status)
	assert.Equal(t, "worker-1", shift.AssignedWorkerID)
	// Both hops are in the audit trail.
	require.Len(t, shift.History, 3)
	assert.Equal(t, ShiftStatusPublishedClaimed, shift.History[1].To)
	assert.Equal(t, ShiftStatusConfirmed, shift.History[2].To)
}

func TestShiftAssignWorker_NotClaimable(t *testing.T) {
	shift := newTestShift(t)

	err := shift.AssignWorker("worker-1", "worker-1")
	assert.ErrorIs(t, err, ErrShiftNotClaimable)
}

func TestShiftOffer(t *testing.T) {
	shift := newTestShift(t)
	require.NoError(t, shift.Publish("mgr-1"))

	expires := time.Now().UTC().Add(2 * time.Hour)
	require.NoError(t, shift.Offer([]string{"worker-1", "worker-2"}, expires, "mgr-1"))

	assert.Equal(t, ShiftStatusPublishedOffered, shift.Status)
	assert.True(t, shift.IsOfferedTo("worker-1"))
	assert.False(t, shift.IsOfferedTo("worker-9"))
	assert.False(t, shift.OfferExpired(time.Now().UTC()))
	assert.True(t, shift.OfferExpired(expires.Add(time.Minute)))
}

func TestShiftNoShow_KeepsWorkerOnRecord(t *testing.T) {
	shift := newTestShift(t)
	require.NoError(t, shift.Publish("mgr-1"))
	require.NoError(t, shift.AssignWorker("worker-1", "mgr-1"))
	require.NoError(t, shift.Confirm("mgr-1"))

	require.NoError(t, shift.MarkNoShow("mgr-1"))

	assert.Equal(t, ShiftStatusNoShow, shift.Status)
	assert.Equal(t, "worker-1", shift.AssignedWorkerID)
	assert.True(t, shift.Status.IsTerminal())
}

func TestShiftDurationMinutes(t *testing.T) {
	shift := newTestShift(t)
	shift.BreakMinutes = 30

	assert.Equal(t, 450, shift.DurationMinutes())
}
