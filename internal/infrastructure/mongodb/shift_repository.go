package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/domain"
	"github.com/chrbailey/restaurant-scheduler-sub006/internal/geo"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

// claimableStatuses is reused across filters that select open shifts
var claimableStatuses = []domain.ShiftStatus{
	domain.ShiftStatusPublishedUnassigned,
	domain.ShiftStatusPublishedOffered,
}

// ShiftRepository implements domain.ShiftRepository using MongoDB
type ShiftRepository struct {
	collection   *mongo.Collection
	tenantHelper *tenant.RepositoryHelper
}

// NewShiftRepository creates a new ShiftRepository
func NewShiftRepository(db *mongo.Database) *ShiftRepository {
	repo := &ShiftRepository{
		collection:   db.Collection("shifts"),
		tenantHelper: tenant.NewRepositoryHelper(false),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

// ensureIndexes creates the necessary indexes
func (r *ShiftRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "shiftId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "status", Value: 1}, {Key: "startTime", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "networkId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "assignedWorkerId", Value: 1}, {Key: "startTime", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "offerExpiresAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "location.latitude", Value: 1}, {Key: "location.longitude", Value: 1}},
		},
	}

	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save persists a shift (create or update)
func (r *ShiftRepository) Save(ctx context.Context, shift *domain.Shift) error {
	shift.UpdatedAt = time.Now().UTC()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shiftId": shift.ShiftID}
	update := bson.M{"$set": shift}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByID retrieves a shift visible to the caller's tenant or network
func (r *ShiftRepository) FindByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	filter := r.tenantHelper.WithNetworkFilter(ctx, bson.M{"shiftId": shiftID})

	var shift domain.Shift
	err := r.collection.FindOne(ctx, filter).Decode(&shift)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &shift, nil
}

// FindByStatus retrieves the tenant's shifts by status
func (r *ShiftRepository) FindByStatus(ctx context.Context, status domain.ShiftStatus) ([]*domain.Shift, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"status": status})
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

// FindOpenInBox retrieves claimable shifts inside a coarse bounding box,
// across the caller's network. Exact radius checks happen in the service.
func (r *ShiftRepository) FindOpenInBox(ctx context.Context, box geo.Box, from, to time.Time) ([]*domain.Shift, error) {
	filter := bson.M{
		"status":             bson.M{"$in": claimableStatuses},
		"startTime":          bson.M{"$gte": from, "$lte": to},
		"location.latitude":  bson.M{"$gte": box.MinLat, "$lte": box.MaxLat},
		"location.longitude": bson.M{"$gte": box.MinLon, "$lte": box.MaxLon},
	}
	filter = r.tenantHelper.WithNetworkFilter(ctx, filter)
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

// FindByWorker retrieves shifts assigned to a worker overlapping a window.
// Deliberately unscoped by tenant: commute checks need the worker's shifts
// wherever they hold them.
func (r *ShiftRepository) FindByWorker(ctx context.Context, workerID string, from, to time.Time) ([]*domain.Shift, error) {
	filter := bson.M{
		"assignedWorkerId": workerID,
		"endTime":          bson.M{"$gt": from},
		"startTime":        bson.M{"$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

// FindByDateRange retrieves the tenant's shifts starting within a window
func (r *ShiftRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Shift, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{
		"startTime": bson.M{"$gte": from, "$lte": to},
	})
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

// FindOffersExpiredBefore retrieves offered shifts whose deadline elapsed.
// Used by the expiry sweep, which runs without tenant scope.
func (r *ShiftRepository) FindOffersExpiredBefore(ctx context.Context, cutoff time.Time) ([]*domain.Shift, error) {
	filter := bson.M{
		"status":         domain.ShiftStatusPublishedOffered,
		"offerExpiresAt": bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "offerExpiresAt", Value: 1}})

	return r.findAll(ctx, filter, opts)
}

func (r *ShiftRepository) findAll(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Shift, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shifts []*domain.Shift
	if err := cursor.All(ctx, &shifts); err != nil {
		return nil, err
	}

	return shifts, nil
}
