package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

// ClaimRepository implements domain.ClaimRepository using MongoDB
type ClaimRepository struct {
	collection   *mongo.Collection
	tenantHelper *tenant.RepositoryHelper
}

// NewClaimRepository creates a new ClaimRepository
func NewClaimRepository(db *mongo.Database) *ClaimRepository {
	repo := &ClaimRepository{
		collection:   db.Collection("shift_claims"),
		tenantHelper: tenant.NewRepositoryHelper(false),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

// ensureIndexes creates the necessary indexes
func (r *ClaimRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "claimId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "shiftId", Value: 1}, {Key: "status", Value: 1}, {Key: "priorityScore", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "workerId", Value: 1}, {Key: "claimedAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
		},
	}

	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a claim (create or update)
func (r *ClaimRepository) Save(ctx context.Context, claim *domain.ShiftClaim) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"claimId": claim.ClaimID}
	update := bson.M{"$set": claim}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByID retrieves a claim by its ID
func (r *ClaimRepository) FindByID(ctx context.Context, claimID string) (*domain.ShiftClaim, error) {
	var claim domain.ShiftClaim
	err := r.collection.FindOne(ctx, bson.M{"claimId": claimID}).Decode(&claim)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &claim, nil
}

// FindPendingByShift retrieves a shift's pending claims in resolution order:
// priority score descending, earlier claim first on ties
func (r *ClaimRepository) FindPendingByShift(ctx context.Context, shiftID string) ([]*domain.ShiftClaim, error) {
	filter := bson.M{
		"shiftId": shiftID,
		"status":  domain.ClaimStatusPending,
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "priorityScore", Value: -1},
		{Key: "claimedAt", Value: 1},
	})

	return r.findAll(ctx, filter, opts)
}

// FindByWorker retrieves a worker's claims, newest first
func (r *ClaimRepository) FindByWorker(ctx context.Context, workerID string) ([]*domain.ShiftClaim, error) {
	filter := bson.M{"workerId": workerID}
	opts := options.Find().SetSort(bson.D{{Key: "claimedAt", Value: -1}})

	return r.findAll(ctx, filter, opts)
}

// FindExpiredBefore retrieves pending claims whose deadline elapsed before
// the cutoff
func (r *ClaimRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*domain.ShiftClaim, error) {
	filter := bson.M{
		"status":    domain.ClaimStatusPending,
		"expiresAt": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

func (r *ClaimRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.ShiftClaim, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var claims []*domain.ShiftClaim
	if err := cursor.All(ctx, &claims); err != nil {
		return nil, err
	}

	return claims, nil
}
