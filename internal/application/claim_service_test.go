package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
)

type claimFixture struct {
	shifts   *memShiftRepo
	claims   *memClaimRepo
	notifier *capturingNotifier
	pub      *capturingPublisher
	svc      *ClaimService
}

func newClaimFixture(t *testing.T) *claimFixture {
	t.Helper()
	shifts := newMemShiftRepo()
	claims := newMemClaimRepo()
	notifier := &capturingNotifier{}
	pub := &capturingPublisher{}
	svc := NewClaimService(
		shifts, claims,
		newMemResolutionStore(shifts, claims),
		pub, notifier,
		geo.DefaultCommuteConfig(),
		testLogger(), nil,
	)
	return &claimFixture{shifts: shifts, claims: claims, notifier: notifier, pub: pub, svc: svc}
}

func (f *claimFixture) seedOpenShift(t *testing.T, shiftID string) *domain.Shift {
	t.Helper()
	// Far enough out that the claim time bonus saturates at its cap, keeping
	// expected scores stable however long the test takes to get here.
	start := time.Now().UTC().Add(100 * time.Hour)
	shift, err := domain.NewShift(shiftID, "tenant-1", "Line Cook", domain.ShiftTypeDineIn, start, start.Add(8*time.Hour), "mgr-1")
	require.NoError(t, err)
	shift.NetworkID = "net-1"
	shift.Location = geo.Point{Latitude: 40.7128, Longitude: -74.0060}
	require.NoError(t, shift.Publish("mgr-1"))
	require.NoError(t, f.shifts.Save(context.Background(), shift))
	return shift
}

func directWorker(id string) WorkerProfile {
	return WorkerProfile{
		WorkerID:        id,
		TenantID:        "tenant-1",
		Tier:            "primary",
		ReputationStars: 4.0,
		Reliability:     4.8,
	}
}

func TestClaimService_SubmitClaim(t *testing.T) {
	t.Run("direct employee claim scores and notifies the manager", func(t *testing.T) {
		f := newClaimFixture(t)
		f.seedOpenShift(t, "shift-1")

		dto, err := f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "shift-1",
			Worker:  directWorker("worker-1"),
		})
		require.NoError(t, err)

		// 1000 direct + 100 primary + 400 stars + 50 reliability + claim
		// time bonus at its 60 point cap.
		assert.Equal(t, 1610, dto.PriorityScore)
		assert.False(t, dto.CrossTenant)
		assert.Equal(t, string(domain.ClaimStatusPending), dto.Status)

		submitted := f.notifier.byType("CLAIM_SUBMITTED")
		require.Len(t, submitted, 1)
		assert.Equal(t, "mgr-1", submitted[0].UserID)
	})

	t.Run("unknown shift returns not found", func(t *testing.T) {
		f := newClaimFixture(t)

		_, err := f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "missing",
			Worker:  directWorker("worker-1"),
		})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeNotFound, appErr.Code)
	})

	t.Run("draft shift is not claimable", func(t *testing.T) {
		f := newClaimFixture(t)
		start := time.Now().UTC().Add(48 * time.Hour)
		shift, err := domain.NewShift("shift-draft", "tenant-1", "Server", domain.ShiftTypeDineIn, start, start.Add(6*time.Hour), "mgr-1")
		require.NoError(t, err)
		require.NoError(t, f.shifts.Save(context.Background(), shift))

		_, err = f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "shift-draft",
			Worker:  directWorker("worker-1"),
		})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeShiftNotClaimable, appErr.Code)
	})

	t.Run("offered shift rejects workers outside the offer list", func(t *testing.T) {
		f := newClaimFixture(t)
		shift := f.seedOpenShift(t, "shift-offered")
		require.NoError(t, shift.Offer([]string{"worker-vip"}, time.Now().UTC().Add(2*time.Hour), "mgr-1"))
		require.NoError(t, f.shifts.Save(context.Background(), shift))

		_, err := f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "shift-offered",
			Worker:  directWorker("worker-other"),
		})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeShiftNotClaimable, appErr.Code)

		_, err = f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "shift-offered",
			Worker:  directWorker("worker-vip"),
		})
		assert.NoError(t, err)
	})

	t.Run("cross-tenant claim with an unreachable adjacent shift is out of range", func(t *testing.T) {
		f := newClaimFixture(t)
		target := f.seedOpenShift(t, "shift-target")

		// The worker already holds a shift 60 miles away ending 30 minutes
		// before this one starts.
		prevStart := target.StartTime.Add(-9 * time.Hour)
		prev, err := domain.NewShift("shift-prev", "tenant-2", "Server", domain.ShiftTypeDineIn, prevStart, target.StartTime.Add(-30*time.Minute), "mgr-2")
		require.NoError(t, err)
		prev.Location = geo.Point{Latitude: 41.5, Longitude: -74.0060}
		require.NoError(t, prev.Publish("mgr-2"))
		require.NoError(t, prev.AssignWorker("worker-x", "mgr-2"))
		require.NoError(t, f.shifts.Save(context.Background(), prev))

		worker := directWorker("worker-x")
		worker.TenantID = "tenant-2"
		_, err = f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "shift-target",
			Worker:  worker,
		})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeOutOfRange, appErr.Code)
	})

	t.Run("cross-tenant claim with no adjacent shifts succeeds", func(t *testing.T) {
		f := newClaimFixture(t)
		f.seedOpenShift(t, "shift-free")

		worker := directWorker("worker-y")
		worker.TenantID = "tenant-2"
		dto, err := f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{
			ShiftID: "shift-free",
			Worker:  worker,
		})
		require.NoError(t, err)
		assert.True(t, dto.CrossTenant)
		// No direct employee bonus for a cross-tenant worker.
		assert.Equal(t, 610, dto.PriorityScore)
	})
}

func TestClaimService_ResolveClaim(t *testing.T) {
	submit := func(t *testing.T, f *claimFixture, shiftID, workerID string, stars float64) string {
		t.Helper()
		worker := directWorker(workerID)
		worker.ReputationStars = stars
		dto, err := f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{ShiftID: shiftID, Worker: worker})
		require.NoError(t, err)
		return dto.ClaimID
	}

	t.Run("approval assigns the shift and rejects every sibling", func(t *testing.T) {
		f := newClaimFixture(t)
		f.seedOpenShift(t, "shift-1")
		winner := submit(t, f, "shift-1", "worker-a", 5.0)
		submit(t, f, "shift-1", "worker-b", 3.0)
		submit(t, f, "shift-1", "worker-c", 2.0)

		res, err := f.svc.ResolveClaim(context.Background(), ResolveClaimCommand{
			ClaimID:    winner,
			Approved:   true,
			ResolverID: "mgr-1",
		})
		require.NoError(t, err)

		assert.Equal(t, string(domain.ClaimStatusApproved), res.Claim.Status)
		assert.Equal(t, string(domain.ShiftStatusPublishedClaimed), res.Shift.Status)
		assert.Equal(t, "worker-a", res.Shift.AssignedWorkerID)
		assert.Equal(t, 2, res.RejectedCount)

		stored, err := f.shifts.FindByID(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusPublishedClaimed, stored.Status)

		pending, err := f.claims.FindPendingByShift(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Empty(t, pending)

		approved := f.notifier.byType("CLAIM_APPROVED")
		require.Len(t, approved, 1)
		assert.Equal(t, "worker-a", approved[0].UserID)
		assert.Len(t, f.notifier.byType("CLAIM_REJECTED"), 2)
	})

	t.Run("rejection leaves the shift untouched", func(t *testing.T) {
		f := newClaimFixture(t)
		f.seedOpenShift(t, "shift-1")
		claimID := submit(t, f, "shift-1", "worker-a", 4.0)

		res, err := f.svc.ResolveClaim(context.Background(), ResolveClaimCommand{
			ClaimID:    claimID,
			Approved:   false,
			Reason:     "overtime limit",
			ResolverID: "mgr-1",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.ClaimStatusRejected), res.Claim.Status)

		stored, err := f.shifts.FindByID(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusPublishedUnassigned, stored.Status)
		assert.Empty(t, stored.AssignedWorkerID)
	})

	t.Run("resolving a resolved claim conflicts", func(t *testing.T) {
		f := newClaimFixture(t)
		f.seedOpenShift(t, "shift-1")
		claimID := submit(t, f, "shift-1", "worker-a", 4.0)

		_, err := f.svc.ResolveClaim(context.Background(), ResolveClaimCommand{ClaimID: claimID, Approved: true, ResolverID: "mgr-1"})
		require.NoError(t, err)

		_, err = f.svc.ResolveClaim(context.Background(), ResolveClaimCommand{ClaimID: claimID, Approved: true, ResolverID: "mgr-1"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeAlreadyResolved, appErr.Code)
	})

	t.Run("concurrent approvals on the same shift produce exactly one winner", func(t *testing.T) {
		f := newClaimFixture(t)
		f.seedOpenShift(t, "shift-1")
		claimA := submit(t, f, "shift-1", "worker-a", 5.0)
		claimB := submit(t, f, "shift-1", "worker-b", 4.0)

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, claimID := range []string{claimA, claimB} {
			wg.Add(1)
			go func(i int, claimID string) {
				defer wg.Done()
				_, err := f.svc.ResolveClaim(context.Background(), ResolveClaimCommand{
					ClaimID:    claimID,
					Approved:   true,
					ResolverID: "mgr-1",
				})
				results[i] = err
			}(i, claimID)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			// The loser surfaces a conflict whichever step detects it first.
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Contains(t,
				[]string{errors.CodeAlreadyResolved, errors.CodeShiftNotClaimable},
				appErr.Code)
		}
		assert.Equal(t, 1, succeeded)

		stored, err := f.shifts.FindByID(context.Background(), "shift-1")
		require.NoError(t, err)
		assert.Equal(t, domain.ShiftStatusPublishedClaimed, stored.Status)
		assert.NotEmpty(t, stored.AssignedWorkerID)
	})
}

func TestClaimService_RankedClaims(t *testing.T) {
	f := newClaimFixture(t)
	f.seedOpenShift(t, "shift-1")

	low := directWorker("worker-low")
	low.ReputationStars = 2.0
	high := directWorker("worker-high")
	high.ReputationStars = 5.0

	_, err := f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{ShiftID: "shift-1", Worker: low})
	require.NoError(t, err)
	_, err = f.svc.SubmitClaim(context.Background(), SubmitClaimCommand{ShiftID: "shift-1", Worker: high})
	require.NoError(t, err)

	ranked, err := f.svc.RankedClaims(context.Background(), "shift-1")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "worker-high", ranked[0].WorkerID)
	assert.Equal(t, "worker-low", ranked[1].WorkerID)
	assert.Greater(t, ranked[0].PriorityScore, ranked[1].PriorityScore)
}
