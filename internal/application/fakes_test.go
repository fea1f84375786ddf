package application

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.New(&logging.Config{
		Level:       logging.LevelError,
		ServiceName: "test",
		Output:      io.Discard,
	})
}

// memShiftRepo is an in-memory ShiftRepository. Reads hand out copies so
// concurrent callers mutate independent aggregates, the way they would
// against a real store.
type memShiftRepo struct {
	mu     sync.Mutex
	shifts map[string]*domain.Shift
}

func newMemShiftRepo() *memShiftRepo {
	return &memShiftRepo{shifts: make(map[string]*domain.Shift)}
}

func copyShift(s *domain.Shift) *domain.Shift {
	c := *s
	c.OfferedWorkerIDs = append([]string(nil), s.OfferedWorkerIDs...)
	c.History = append([]domain.TransitionRecord(nil), s.History...)
	c.DomainEvents = nil
	return &c
}

func (r *memShiftRepo) Save(ctx context.Context, shift *domain.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[shift.ShiftID] = copyShift(shift)
	return nil
}

func (r *memShiftRepo) FindByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok {
		return nil, nil
	}
	return copyShift(s), nil
}

func (r *memShiftRepo) FindByStatus(ctx context.Context, status domain.ShiftStatus) ([]*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shift
	for _, s := range r.shifts {
		if s.Status == status {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func (r *memShiftRepo) FindOpenInBox(ctx context.Context, box geo.Box, from, to time.Time) ([]*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shift
	for _, s := range r.shifts {
		if s.Status.IsClaimable() && box.Contains(s.Location) &&
			!s.StartTime.Before(from) && !s.StartTime.After(to) {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func (r *memShiftRepo) FindByWorker(ctx context.Context, workerID string, from, to time.Time) ([]*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shift
	for _, s := range r.shifts {
		if s.AssignedWorkerID == workerID &&
			s.EndTime.After(from) && s.StartTime.Before(to) {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func (r *memShiftRepo) FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shift
	for _, s := range r.shifts {
		if !s.StartTime.Before(from) && !s.StartTime.After(to) {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

func (r *memShiftRepo) FindOffersExpiredBefore(ctx context.Context, cutoff time.Time) ([]*domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shift
	for _, s := range r.shifts {
		if s.Status == domain.ShiftStatusPublishedOffered &&
			s.OfferExpiresAt != nil && s.OfferExpiresAt.Before(cutoff) {
			out = append(out, copyShift(s))
		}
	}
	return out, nil
}

// memClaimRepo is an in-memory ClaimRepository
type memClaimRepo struct {
	mu     sync.Mutex
	claims map[string]*domain.ShiftClaim
}

func newMemClaimRepo() *memClaimRepo {
	return &memClaimRepo{claims: make(map[string]*domain.ShiftClaim)}
}

func copyClaim(c *domain.ShiftClaim) *domain.ShiftClaim {
	cc := *c
	cc.DomainEvents = nil
	return &cc
}

func (r *memClaimRepo) Save(ctx context.Context, claim *domain.ShiftClaim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims[claim.ClaimID] = copyClaim(claim)
	return nil
}

func (r *memClaimRepo) FindByID(ctx context.Context, claimID string) (*domain.ShiftClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[claimID]
	if !ok {
		return nil, nil
	}
	return copyClaim(c), nil
}

func (r *memClaimRepo) FindPendingByShift(ctx context.Context, shiftID string) ([]*domain.ShiftClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ShiftClaim
	for _, c := range r.claims {
		if c.ShiftID == shiftID && c.Status == domain.ClaimStatusPending {
			out = append(out, copyClaim(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return out[i].ClaimedAt.Before(out[j].ClaimedAt)
	})
	return out, nil
}

func (r *memClaimRepo) FindByWorker(ctx context.Context, workerID string) ([]*domain.ShiftClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ShiftClaim
	for _, c := range r.claims {
		if c.WorkerID == workerID {
			out = append(out, copyClaim(c))
		}
	}
	return out, nil
}

func (r *memClaimRepo) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*domain.ShiftClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ShiftClaim
	for _, c := range r.claims {
		if c.Status == domain.ClaimStatusPending &&
			c.ExpiresAt != nil && c.ExpiresAt.Before(cutoff) {
			out = append(out, copyClaim(c))
		}
	}
	return out, nil
}

// memSwapRepo is an in-memory SwapRepository
type memSwapRepo struct {
	mu    sync.Mutex
	swaps map[string]*domain.ShiftSwap
}

func newMemSwapRepo() *memSwapRepo {
	return &memSwapRepo{swaps: make(map[string]*domain.ShiftSwap)}
}

func copySwap(sw *domain.ShiftSwap) *domain.ShiftSwap {
	c := *sw
	c.DomainEvents = nil
	return &c
}

func (r *memSwapRepo) Save(ctx context.Context, swap *domain.ShiftSwap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swaps[swap.SwapID] = copySwap(swap)
	return nil
}

func (r *memSwapRepo) FindByID(ctx context.Context, swapID string) (*domain.ShiftSwap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sw, ok := r.swaps[swapID]
	if !ok {
		return nil, nil
	}
	return copySwap(sw), nil
}

func (r *memSwapRepo) FindPendingByShift(ctx context.Context, shiftID string) ([]*domain.ShiftSwap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ShiftSwap
	for _, sw := range r.swaps {
		if sw.SourceShiftID == shiftID && sw.Status == domain.SwapStatusPending {
			out = append(out, copySwap(sw))
		}
	}
	return out, nil
}

func (r *memSwapRepo) FindByWorker(ctx context.Context, workerID string) ([]*domain.ShiftSwap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ShiftSwap
	for _, sw := range r.swaps {
		if sw.SourceWorkerID == workerID || sw.TargetWorkerID == workerID {
			out = append(out, copySwap(sw))
		}
	}
	return out, nil
}

func (r *memSwapRepo) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*domain.ShiftSwap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ShiftSwap
	for _, sw := range r.swaps {
		if sw.Status == domain.SwapStatusPending &&
			sw.ExpiresAt != nil && sw.ExpiresAt.Before(cutoff) {
			out = append(out, copySwap(sw))
		}
	}
	return out, nil
}

// memResolutionStore commits approvals under a single lock with the same
// preconditions a transactional store enforces: the shift must still be
// claimable and the winning claim still pending in the store.
type memResolutionStore struct {
	mu     sync.Mutex
	shifts *memShiftRepo
	claims *memClaimRepo
}

func newMemResolutionStore(shifts *memShiftRepo, claims *memClaimRepo) *memResolutionStore {
	return &memResolutionStore{shifts: shifts, claims: claims}
}

func (s *memResolutionStore) CommitApproval(ctx context.Context, resolution *domain.ClaimResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.shifts.FindByID(ctx, resolution.Shift.ShiftID)
	if err != nil {
		return err
	}
	if stored == nil || !stored.Status.IsClaimable() {
		return domain.ErrClaimAlreadyResolved
	}
	storedClaim, err := s.claims.FindByID(ctx, resolution.Approved.ClaimID)
	if err != nil {
		return err
	}
	if storedClaim == nil || storedClaim.Status != domain.ClaimStatusPending {
		return domain.ErrClaimAlreadyResolved
	}

	if err := s.shifts.Save(ctx, resolution.Shift); err != nil {
		return err
	}
	if err := s.claims.Save(ctx, resolution.Approved); err != nil {
		return err
	}
	for _, rejected := range resolution.Rejected {
		if err := s.claims.Save(ctx, rejected); err != nil {
			return err
		}
	}
	return nil
}

// memAcceptanceStore commits swap acceptances under a single lock with the
// same preconditions a transactional store enforces: the stored swap must
// still be pending and the shift still held by the requesting worker. A
// forced error leaves both aggregates untouched.
type memAcceptanceStore struct {
	mu     sync.Mutex
	shifts *memShiftRepo
	swaps  *memSwapRepo
	err    error
}

func newMemAcceptanceStore(shifts *memShiftRepo, swaps *memSwapRepo) *memAcceptanceStore {
	return &memAcceptanceStore{shifts: shifts, swaps: swaps}
}

func (s *memAcceptanceStore) CommitAcceptance(ctx context.Context, acceptance *domain.SwapAcceptance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	storedSwap, err := s.swaps.FindByID(ctx, acceptance.Swap.SwapID)
	if err != nil {
		return err
	}
	if storedSwap == nil || storedSwap.Status != domain.SwapStatusPending {
		return domain.ErrSwapAlreadyResolved
	}
	storedShift, err := s.shifts.FindByID(ctx, acceptance.Shift.ShiftID)
	if err != nil {
		return err
	}
	if storedShift == nil || storedShift.AssignedWorkerID != acceptance.Swap.SourceWorkerID {
		return domain.ErrSwapAlreadyResolved
	}

	if err := s.swaps.Save(ctx, acceptance.Swap); err != nil {
		return err
	}
	return s.shifts.Save(ctx, acceptance.Shift)
}

// capturingNotifier records dispatched intents
type capturingNotifier struct {
	mu      sync.Mutex
	intents []notification.Intent
}

func (n *capturingNotifier) Dispatch(intents ...notification.Intent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = append(n.intents, intents...)
}

func (n *capturingNotifier) byType(t notification.Type) []notification.Intent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification.Intent
	for _, i := range n.intents {
		if i.Type == t {
			out = append(out, i)
		}
	}
	return out
}

// capturingPublisher records published domain events
type capturingPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
	err    error
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) typesSeen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
