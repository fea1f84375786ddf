package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
)

// AcceptanceStore implements domain.SwapAcceptanceStore using a MongoDB
// transaction. Both writes are conditioned on the pre-acceptance state, so a
// rival acceptance or a concurrent reassignment matches zero documents and
// aborts instead of leaving the shift and the swap disagreeing.
type AcceptanceStore struct {
	db     *mongo.Database
	shifts *mongo.Collection
	swaps  *mongo.Collection
}

// NewAcceptanceStore creates a new AcceptanceStore
func NewAcceptanceStore(db *mongo.Database) *AcceptanceStore {
	return &AcceptanceStore{
		db:     db,
		shifts: db.Collection("shifts"),
		swaps:  db.Collection("shift_swaps"),
	}
}

// CommitAcceptance persists the reassigned shift and the resolved swap in
// one transaction
func (s *AcceptanceStore) CommitAcceptance(ctx context.Context, acceptance *domain.SwapAcceptance) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		swap := acceptance.Swap
		shift := acceptance.Shift
		shift.UpdatedAt = time.Now().UTC()

		swapFilter := bson.M{
			"swapId": swap.SwapID,
			"status": domain.SwapStatusPending,
		}
		res, err := s.swaps.UpdateOne(sessCtx, swapFilter, bson.M{"$set": swap})
		if err != nil {
			return nil, fmt.Errorf("failed to update swap: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrSwapAlreadyResolved
		}

		// The shift write only matches while the requesting worker still
		// holds it. A reassignment that committed first took it away.
		shiftFilter := bson.M{
			"shiftId":          shift.ShiftID,
			"assignedWorkerId": swap.SourceWorkerID,
		}
		res, err = s.shifts.UpdateOne(sessCtx, shiftFilter, bson.M{"$set": shift})
		if err != nil {
			return nil, fmt.Errorf("failed to update shift: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrSwapAlreadyResolved
		}

		return nil, nil
	})

	return err
}
