package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapAccept_OpenGiveAway(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", false)

	require.NoError(t, swap.Accept("worker-2"))

	assert.Equal(t, SwapStatusAccepted, swap.Status)
	assert.Equal(t, "worker-2", swap.TargetWorkerID)
	assert.NotNil(t, swap.ResolvedAt)
}

func TestSwapAccept_RequiresApproval(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", true)

	// No manager decision yet.
	assert.ErrorIs(t, swap.Accept("worker-2"), ErrSwapApprovalRequired)
	assert.Equal(t, SwapStatusPending, swap.Status)

	// Manager denied.
	require.NoError(t, swap.SetManagerDecision("mgr-1", false))
	assert.ErrorIs(t, swap.Accept("worker-2"), ErrSwapApprovalRequired)

	// Manager approved.
	require.NoError(t, swap.SetManagerDecision("mgr-1", true))
	require.NoError(t, swap.Accept("worker-2"))
	assert.Equal(t, SwapStatusAccepted, swap.Status)
}

func TestSwapAccept_NeedsCounterparty(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", false)

	assert.ErrorIs(t, swap.Accept(""), ErrSwapMissingCounterparty)

	swap.TargetWorkerID = "worker-2"
	require.NoError(t, swap.Accept(""))
	assert.Equal(t, "worker-2", swap.TargetWorkerID)
}

func TestSwapResolveTwiceFails(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", false)
	require.NoError(t, swap.Reject("mgr-1", "coverage needed"))

	assert.ErrorIs(t, swap.Accept("worker-2"), ErrSwapAlreadyResolved)
	assert.ErrorIs(t, swap.Cancel(), ErrSwapAlreadyResolved)
	assert.ErrorIs(t, swap.SetManagerDecision("mgr-1", true), ErrSwapAlreadyResolved)
}

func TestSwapExpire_Idempotent(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", false)

	assert.True(t, swap.Expire())
	assert.False(t, swap.Expire())
	assert.Equal(t, SwapStatusExpired, swap.Status)
}

func TestSwapHasExpired(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", false)
	now := time.Now().UTC()

	assert.False(t, swap.HasExpired(now))

	deadline := now.Add(-time.Hour)
	swap.ExpiresAt = &deadline
	assert.True(t, swap.HasExpired(now))
}

func TestSwapIsDirectTrade(t *testing.T) {
	swap := NewShiftSwap("swap-1", "shift-1", "worker-1", "tenant-a", false)
	assert.False(t, swap.IsDirectTrade())

	swap.TargetShiftID = "shift-2"
	assert.True(t, swap.IsDirectTrade())
}
