package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
)

// SwapRepository implements domain.SwapRepository using MongoDB
type SwapRepository struct {
	collection *mongo.Collection
}

// NewSwapRepository creates a new SwapRepository
func NewSwapRepository(db *mongo.Database) *SwapRepository {
	repo := &SwapRepository{
		collection: db.Collection("shift_swaps"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

// ensureIndexes creates the necessary indexes
func (r *SwapRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "swapId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "sourceShiftId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sourceWorkerId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}},
		},
	}

	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a swap (create or update)
func (r *SwapRepository) Save(ctx context.Context, swap *domain.ShiftSwap) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"swapId": swap.SwapID}
	update := bson.M{"$set": swap}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByID retrieves a swap by its ID
func (r *SwapRepository) FindByID(ctx context.Context, swapID string) (*domain.ShiftSwap, error) {
	var swap domain.ShiftSwap
	err := r.collection.FindOne(ctx, bson.M{"swapId": swapID}).Decode(&swap)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &swap, nil
}

// FindPendingByShift retrieves pending swaps referencing a shift
func (r *SwapRepository) FindPendingByShift(ctx context.Context, shiftID string) ([]*domain.ShiftSwap, error) {
	filter := bson.M{
		"sourceShiftId": shiftID,
		"status":        domain.SwapStatusPending,
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

// FindByWorker retrieves swaps where the worker is source or target
func (r *SwapRepository) FindByWorker(ctx context.Context, workerID string) ([]*domain.ShiftSwap, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sourceWorkerId": workerID},
		bson.M{"targetWorkerId": workerID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	return r.findAll(ctx, filter, opts)
}

// FindExpiredBefore retrieves pending swaps whose deadline elapsed before
// the cutoff
func (r *SwapRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*domain.ShiftSwap, error) {
	filter := bson.M{
		"status":    domain.SwapStatusPending,
		"expiresAt": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

func (r *SwapRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.ShiftSwap, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var swaps []*domain.ShiftSwap
	if err := cursor.All(ctx, &swaps); err != nil {
		return nil, err
	}

	return swaps, nil
}
