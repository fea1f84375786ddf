package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

type shiftFixture struct {
	shifts   *memShiftRepo
	notifier *capturingNotifier
	pub      *capturingPublisher
	svc      *ShiftService
}

func newShiftFixture(t *testing.T) *shiftFixture {
	t.Helper()
	shifts := newMemShiftRepo()
	notifier := &capturingNotifier{}
	pub := &capturingPublisher{}
	svc := NewShiftService(shifts, pub, notifier, testLogger(), nil)
	return &shiftFixture{shifts: shifts, notifier: notifier, pub: pub, svc: svc}
}

func managerCtx() context.Context {
	return tenant.ToContext(context.Background(), &tenant.Context{
		TenantID:  "tenant-1",
		NetworkID: "net-1",
		UserID:    "mgr-1",
		Role:      "manager",
	})
}

func validCreateCommand() CreateShiftCommand {
	start := time.Now().UTC().Add(48 * time.Hour)
	return CreateShiftCommand{
		Position:  "Line Cook",
		ShiftType: string(domain.ShiftTypeDineIn),
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
		Location:  geo.Point{Latitude: 40.7128, Longitude: -74.0060},
	}
}

func TestShiftService_CreateShift(t *testing.T) {
	t.Run("drafts a shift scoped to the tenant in context", func(t *testing.T) {
		f := newShiftFixture(t)

		dto, err := f.svc.CreateShift(managerCtx(), validCreateCommand())
		require.NoError(t, err)

		assert.Equal(t, "tenant-1", dto.TenantID)
		assert.Equal(t, string(domain.ShiftStatusDraft), dto.Status)
		assert.Equal(t, "mgr-1", dto.CreatedBy)
		assert.Contains(t, f.pub.typesSeen(), "scheduling.shift.created")
	})

	t.Run("missing tenant context is unauthorized", func(t *testing.T) {
		f := newShiftFixture(t)

		_, err := f.svc.CreateShift(context.Background(), validCreateCommand())
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeUnauthorized, appErr.Code)
	})

	t.Run("end before start fails validation", func(t *testing.T) {
		f := newShiftFixture(t)

		cmd := validCreateCommand()
		cmd.EndTime = cmd.StartTime.Add(-time.Hour)
		_, err := f.svc.CreateShift(managerCtx(), cmd)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
	})

	t.Run("unknown shift type fails validation", func(t *testing.T) {
		f := newShiftFixture(t)

		cmd := validCreateCommand()
		cmd.ShiftType = "takeout_only"
		_, err := f.svc.CreateShift(managerCtx(), cmd)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeValidationError, appErr.Code)
	})
}

func TestShiftService_PublishAndOffer(t *testing.T) {
	create := func(t *testing.T, f *shiftFixture) string {
		t.Helper()
		dto, err := f.svc.CreateShift(managerCtx(), validCreateCommand())
		require.NoError(t, err)
		return dto.ShiftID
	}

	t.Run("publish opens the draft to the pool", func(t *testing.T) {
		f := newShiftFixture(t)
		shiftID := create(t, f)

		dto, err := f.svc.PublishShift(managerCtx(), PublishShiftCommand{ShiftID: shiftID, ActorID: "mgr-1"})
		require.NoError(t, err)
		assert.Equal(t, string(domain.ShiftStatusPublishedUnassigned), dto.Status)
	})

	t.Run("publishing twice is an invalid transition", func(t *testing.T) {
		f := newShiftFixture(t)
		shiftID := create(t, f)

		_, err := f.svc.PublishShift(managerCtx(), PublishShiftCommand{ShiftID: shiftID, ActorID: "mgr-1"})
		require.NoError(t, err)

		_, err = f.svc.PublishShift(managerCtx(), PublishShiftCommand{ShiftID: shiftID, ActorID: "mgr-1"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeInvalidTransition, appErr.Code)
	})

	t.Run("offer notifies each targeted worker", func(t *testing.T) {
		f := newShiftFixture(t)
		shiftID := create(t, f)
		_, err := f.svc.PublishShift(managerCtx(), PublishShiftCommand{ShiftID: shiftID, ActorID: "mgr-1"})
		require.NoError(t, err)

		dto, err := f.svc.OfferShift(managerCtx(), OfferShiftCommand{
			ShiftID:   shiftID,
			WorkerIDs: []string{"worker-a", "worker-b"},
			ExpiresAt: time.Now().UTC().Add(4 * time.Hour),
			ActorID:   "mgr-1",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.ShiftStatusPublishedOffered), dto.Status)
		assert.ElementsMatch(t, []string{"worker-a", "worker-b"}, dto.OfferedWorkerIDs)

		offered := f.notifier.byType("SHIFT_OFFERED")
		require.Len(t, offered, 2)
	})

	t.Run("a tenant outside the network cannot touch the shift", func(t *testing.T) {
		f := newShiftFixture(t)
		shiftID := create(t, f)

		strangerCtx := tenant.ToContext(context.Background(), &tenant.Context{
			TenantID:  "tenant-9",
			NetworkID: "net-9",
			UserID:    "mgr-9",
		})
		_, err := f.svc.PublishShift(strangerCtx, PublishShiftCommand{ShiftID: shiftID, ActorID: "mgr-9"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeForbidden, appErr.Code)
	})
}

func TestShiftService_CancelShift(t *testing.T) {
	t.Run("cancelling an assigned shift alerts the worker", func(t *testing.T) {
		f := newShiftFixture(t)

		dto, err := f.svc.CreateShift(managerCtx(), validCreateCommand())
		require.NoError(t, err)
		_, err = f.svc.PublishShift(managerCtx(), PublishShiftCommand{ShiftID: dto.ShiftID, ActorID: "mgr-1"})
		require.NoError(t, err)

		shift, err := f.shifts.FindByID(context.Background(), dto.ShiftID)
		require.NoError(t, err)
		require.NoError(t, shift.AssignWorker("worker-a", "mgr-1"))
		require.NoError(t, f.shifts.Save(context.Background(), shift))

		cancelled, err := f.svc.CancelShift(managerCtx(), CancelShiftCommand{
			ShiftID: dto.ShiftID,
			Reason:  "water main burst",
			ActorID: "mgr-1",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.ShiftStatusCancelled), cancelled.Status)
		assert.Empty(t, cancelled.AssignedWorkerID)

		alerts := f.notifier.byType("SHIFT_CANCELLED")
		require.Len(t, alerts, 1)
		assert.Equal(t, "worker-a", alerts[0].UserID)
		assert.Equal(t, "CRITICAL", string(alerts[0].Urgency))
		assert.Equal(t, "water main burst", alerts[0].Payload["reason"])
	})

	t.Run("cancelling an unassigned shift notifies nobody", func(t *testing.T) {
		f := newShiftFixture(t)

		dto, err := f.svc.CreateShift(managerCtx(), validCreateCommand())
		require.NoError(t, err)

		_, err = f.svc.CancelShift(managerCtx(), CancelShiftCommand{ShiftID: dto.ShiftID, ActorID: "mgr-1"})
		require.NoError(t, err)
		assert.Empty(t, f.notifier.byType("SHIFT_CANCELLED"))
	})
}

func TestShiftService_TransitionShift(t *testing.T) {
	f := newShiftFixture(t)

	dto, err := f.svc.CreateShift(managerCtx(), validCreateCommand())
	require.NoError(t, err)
	shiftID := dto.ShiftID
	_, err = f.svc.PublishShift(managerCtx(), PublishShiftCommand{ShiftID: shiftID, ActorID: "mgr-1"})
	require.NoError(t, err)

	shift, err := f.shifts.FindByID(context.Background(), shiftID)
	require.NoError(t, err)
	require.NoError(t, shift.AssignWorker("worker-a", "mgr-1"))
	require.NoError(t, f.shifts.Save(context.Background(), shift))

	for _, target := range []domain.ShiftStatus{
		domain.ShiftStatusConfirmed,
		domain.ShiftStatusInProgress,
		domain.ShiftStatusCompleted,
	} {
		res, err := f.svc.TransitionShift(managerCtx(), TransitionShiftCommand{
			ShiftID: shiftID,
			Target:  string(target),
			ActorID: "mgr-1",
		})
		require.NoError(t, err)
		assert.Equal(t, string(target), res.Status)
	}

	// Terminal: nothing more is allowed.
	_, err = f.svc.TransitionShift(managerCtx(), TransitionShiftCommand{
		ShiftID: shiftID,
		Target:  string(domain.ShiftStatusCancelled),
		ActorID: "mgr-1",
	})
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeInvalidTransition, appErr.Code)

	_, err = f.svc.TransitionShift(managerCtx(), TransitionShiftCommand{
		ShiftID: shiftID,
		Target:  "NOT_A_STATUS",
		ActorID: "mgr-1",
	})
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeValidationError, appErr.Code)
}

func TestShiftService_FindOpenShifts(t *testing.T) {
	f := newShiftFixture(t)
	center := geo.Point{Latitude: 40.7128, Longitude: -74.0060}

	seed := func(t *testing.T, id string, loc geo.Point) {
		t.Helper()
		start := time.Now().UTC().Add(24 * time.Hour)
		shift, err := domain.NewShift(id, "tenant-1", "Server", domain.ShiftTypeDineIn, start, start.Add(6*time.Hour), "mgr-1")
		require.NoError(t, err)
		shift.NetworkID = "net-1"
		shift.Location = loc
		require.NoError(t, shift.Publish("mgr-1"))
		require.NoError(t, f.shifts.Save(context.Background(), shift))
	}

	seed(t, "shift-near", geo.Point{Latitude: 40.73, Longitude: -74.00})
	seed(t, "shift-far", geo.Point{Latitude: 42.0, Longitude: -74.00})

	found, err := f.svc.FindOpenShifts(managerCtx(), OpenShiftsQuery{
		Center:      center,
		RadiusMiles: 10,
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "shift-near", found[0].ShiftID)
}
