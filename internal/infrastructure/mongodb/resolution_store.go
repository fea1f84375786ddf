package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
)

// ResolutionStore implements domain.ClaimResolutionStore using a MongoDB
// transaction. Both writes are conditioned on the pre-approval state, so a
// second concurrent approval for the same shift matches zero documents and
// aborts instead of double-assigning.
type ResolutionStore struct {
	db     *mongo.Database
	shifts *mongo.Collection
	claims *mongo.Collection
}

// NewResolutionStore creates a new ResolutionStore
func NewResolutionStore(db *mongo.Database) *ResolutionStore {
	return &ResolutionStore{
		db:     db,
		shifts: db.Collection("shifts"),
		claims: db.Collection("shift_claims"),
	}
}

// CommitApproval persists the shift transition, the approved claim and the
// rejected siblings in one transaction
func (s *ResolutionStore) CommitApproval(ctx context.Context, resolution *domain.ClaimResolution) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		shift := resolution.Shift
		shift.UpdatedAt = time.Now().UTC()

		// The shift write only matches while the shift is still open. A rival
		// approval that committed first already moved it out of the claimable
		// statuses.
		shiftFilter := bson.M{
			"shiftId": shift.ShiftID,
			"status":  bson.M{"$in": claimableStatuses},
		}
		res, err := s.shifts.UpdateOne(sessCtx, shiftFilter, bson.M{"$set": shift})
		if err != nil {
			return nil, fmt.Errorf("failed to update shift: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrClaimAlreadyResolved
		}

		claimFilter := bson.M{
			"claimId": resolution.Approved.ClaimID,
			"status":  domain.ClaimStatusPending,
		}
		res, err = s.claims.UpdateOne(sessCtx, claimFilter, bson.M{"$set": resolution.Approved})
		if err != nil {
			return nil, fmt.Errorf("failed to update approved claim: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, domain.ErrClaimAlreadyResolved
		}

		// Siblings that were resolved by some other path in the meantime are
		// simply left alone.
		for _, rejected := range resolution.Rejected {
			filter := bson.M{
				"claimId": rejected.ClaimID,
				"status":  domain.ClaimStatusPending,
			}
			if _, err := s.claims.UpdateOne(sessCtx, filter, bson.M{"$set": rejected}); err != nil {
				return nil, fmt.Errorf("failed to update rejected claim: %w", err)
			}
		}

		return nil, nil
	})

	return err
}
