package application

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

type swapFixture struct {
	shifts      *memShiftRepo
	swaps       *memSwapRepo
	acceptances *memAcceptanceStore
	notifier    *capturingNotifier
	svc         *SwapService
}

func newSwapFixture(t *testing.T) *swapFixture {
	t.Helper()
	shifts := newMemShiftRepo()
	swaps := newMemSwapRepo()
	acceptances := newMemAcceptanceStore(shifts, swaps)
	notifier := &capturingNotifier{}
	svc := NewSwapService(swaps, shifts, acceptances, &capturingPublisher{}, notifier, testLogger(), nil)
	return &swapFixture{shifts: shifts, swaps: swaps, acceptances: acceptances, notifier: notifier, svc: svc}
}

func (f *swapFixture) seedConfirmedShift(t *testing.T, shiftID, workerID string) *domain.Shift {
	t.Helper()
	start := time.Now().UTC().Add(72 * time.Hour)
	shift, err := domain.NewShift(shiftID, "tenant-1", "Server", domain.ShiftTypeDineIn, start, start.Add(6*time.Hour), "mgr-1")
	require.NoError(t, err)
	require.NoError(t, shift.Publish("mgr-1"))
	require.NoError(t, shift.AssignWorker(workerID, "mgr-1"))
	require.NoError(t, shift.Confirm("mgr-1"))
	require.NoError(t, f.shifts.Save(context.Background(), shift))
	return shift
}

func TestSwapService_RequestSwap(t *testing.T) {
	t.Run("assigned worker opens a swap needing approval", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")

		dto, err := f.svc.RequestSwap(context.Background(), RequestSwapCommand{
			SourceShiftID:  "shift-1",
			SourceWorkerID: "worker-a",
			TargetWorkerID: "worker-b",
			Message:        "family thing, can you cover?",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.SwapStatusPending), dto.Status)
		assert.True(t, dto.RequiresApproval)

		// The targeted counterparty hears about it.
		requested := f.notifier.byType("SWAP_REQUESTED")
		require.Len(t, requested, 1)
		assert.Equal(t, "worker-b", requested[0].UserID)
	})

	t.Run("auto-approve shift at the caller's own tenant skips approval", func(t *testing.T) {
		f := newSwapFixture(t)
		shift := f.seedConfirmedShift(t, "shift-1", "worker-a")
		shift.AutoApprove = true
		require.NoError(t, f.shifts.Save(context.Background(), shift))

		ctx := tenant.ToContext(context.Background(), &tenant.Context{TenantID: "tenant-1", UserID: "worker-a"})
		dto, err := f.svc.RequestSwap(ctx, RequestSwapCommand{
			SourceShiftID:  "shift-1",
			SourceWorkerID: "worker-a",
		})
		require.NoError(t, err)
		assert.False(t, dto.RequiresApproval)
	})

	t.Run("only the assigned worker can swap", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")

		_, err := f.svc.RequestSwap(context.Background(), RequestSwapCommand{
			SourceShiftID:  "shift-1",
			SourceWorkerID: "worker-z",
		})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeForbidden, appErr.Code)
	})

	t.Run("open give-away notifies the shift owner", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")

		_, err := f.svc.RequestSwap(context.Background(), RequestSwapCommand{
			SourceShiftID:  "shift-1",
			SourceWorkerID: "worker-a",
		})
		require.NoError(t, err)

		requested := f.notifier.byType("SWAP_REQUESTED")
		require.Len(t, requested, 1)
		assert.Equal(t, "mgr-1", requested[0].UserID)
	})
}

func TestSwapService_AcceptSwap(t *testing.T) {
	request := func(t *testing.T, f *swapFixture, target string) string {
		t.Helper()
		dto, err := f.svc.RequestSwap(context.Background(), RequestSwapCommand{
			SourceShiftID:  "shift-1",
			SourceWorkerID: "worker-a",
			TargetWorkerID: target,
		})
		require.NoError(t, err)
		return dto.SwapID
	}

	t.Run("acceptance before approval is refused", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")
		swapID := request(t, f, "worker-b")

		_, err := f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-b"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeApprovalRequired, appErr.Code)

		// The shift is untouched.
		stored, err := f.shifts.FindByID(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Equal(t, "worker-a", stored.AssignedWorkerID)
	})

	t.Run("approved swap reassigns the shift to the accepting worker", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")
		swapID := request(t, f, "worker-b")

		_, err := f.svc.DecideSwap(context.Background(), DecideSwapCommand{SwapID: swapID, Approved: true, ApproverID: "mgr-1"})
		require.NoError(t, err)

		dto, err := f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-b"})
		require.NoError(t, err)
		assert.Equal(t, string(domain.SwapStatusAccepted), dto.Status)

		stored, err := f.shifts.FindByID(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Equal(t, "worker-b", stored.AssignedWorkerID)
		assert.Equal(t, domain.ShiftStatusConfirmed, stored.Status)

		accepted := f.notifier.byType("SWAP_ACCEPTED")
		require.Len(t, accepted, 1)
		assert.Equal(t, "worker-a", accepted[0].UserID)
	})

	t.Run("denied swap cannot be accepted", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")
		swapID := request(t, f, "worker-b")

		_, err := f.svc.DecideSwap(context.Background(), DecideSwapCommand{SwapID: swapID, Approved: false, ApproverID: "mgr-1"})
		require.NoError(t, err)

		_, err = f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-b"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeApprovalRequired, appErr.Code)
	})

	t.Run("failed commit leaves shift and swap unchanged", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")
		swapID := request(t, f, "worker-b")

		_, err := f.svc.DecideSwap(context.Background(), DecideSwapCommand{SwapID: swapID, Approved: true, ApproverID: "mgr-1"})
		require.NoError(t, err)

		f.acceptances.err = stderrors.New("connection reset")
		_, err = f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-b"})
		require.Error(t, err)

		storedShift, err := f.shifts.FindByID(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Equal(t, "worker-a", storedShift.AssignedWorkerID)
		assert.Equal(t, domain.ShiftStatusConfirmed, storedShift.Status)

		storedSwap, err := f.swaps.FindByID(context.Background(), swapID)
		require.NoError(t, err)
		assert.Equal(t, domain.SwapStatusPending, storedSwap.Status)

		// The commit works once the store recovers.
		f.acceptances.err = nil
		_, err = f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-b"})
		require.NoError(t, err)
	})

	t.Run("accepting a resolved swap conflicts", func(t *testing.T) {
		f := newSwapFixture(t)
		f.seedConfirmedShift(t, "shift-1", "worker-a")
		swapID := request(t, f, "worker-b")

		_, err := f.svc.DecideSwap(context.Background(), DecideSwapCommand{SwapID: swapID, Approved: true, ApproverID: "mgr-1"})
		require.NoError(t, err)
		_, err = f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-b"})
		require.NoError(t, err)

		_, err = f.svc.AcceptSwap(context.Background(), AcceptSwapCommand{SwapID: swapID, TargetWorkerID: "worker-c"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeSwapNotPending, appErr.Code)
	})
}

func TestSwapService_RejectAndCancel(t *testing.T) {
	seed := func(t *testing.T, f *swapFixture) string {
		t.Helper()
		f.seedConfirmedShift(t, "shift-1", "worker-a")
		dto, err := f.svc.RequestSwap(context.Background(), RequestSwapCommand{
			SourceShiftID:  "shift-1",
			SourceWorkerID: "worker-a",
			TargetWorkerID: "worker-b",
		})
		require.NoError(t, err)
		return dto.SwapID
	}

	t.Run("rejection notifies the requester", func(t *testing.T) {
		f := newSwapFixture(t)
		swapID := seed(t, f)

		dto, err := f.svc.RejectSwap(context.Background(), RejectSwapCommand{
			SwapID:  swapID,
			Reason:  "short staffed that night",
			ActorID: "worker-b",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.SwapStatusRejected), dto.Status)

		rejected := f.notifier.byType("SWAP_REJECTED")
		require.Len(t, rejected, 1)
		assert.Equal(t, "worker-a", rejected[0].UserID)
	})

	t.Run("only the requester can cancel", func(t *testing.T) {
		f := newSwapFixture(t)
		swapID := seed(t, f)

		_, err := f.svc.CancelSwap(context.Background(), swapID, "worker-b")
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeForbidden, appErr.Code)

		dto, err := f.svc.CancelSwap(context.Background(), swapID, "worker-a")
		require.NoError(t, err)
		assert.Equal(t, string(domain.SwapStatusCancelled), dto.Status)
	})
}
