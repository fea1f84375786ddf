package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chrbailey/restaurant-scheduler-sub006/internal/notification"
)

// PreferenceRepository implements notification.PreferenceStore using MongoDB
type PreferenceRepository struct {
	collection *mongo.Collection
}

// NewPreferenceRepository creates a new PreferenceRepository
func NewPreferenceRepository(db *mongo.Database) *PreferenceRepository {
	repo := &PreferenceRepository{
		collection: db.Collection("notification_preferences"),
	}
	repo.collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return repo
}

// Find returns the user's preferences, or nil when none are stored
func (r *PreferenceRepository) Find(ctx context.Context, userID string) (*notification.Preferences, error) {
	var prefs notification.Preferences
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&prefs)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &prefs, nil
}

// Save persists preferences (create or update)
func (r *PreferenceRepository) Save(ctx context.Context, prefs *notification.Preferences) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"userId": prefs.UserID}
	update := bson.M{"$set": prefs}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// RecordRepository implements notification.RecordStore using MongoDB
type RecordRepository struct {
	collection *mongo.Collection
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *mongo.Database) *RecordRepository {
	repo := &RecordRepository{
		collection: db.Collection("notification_records"),
	}
	repo.collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recordId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "read", Value: 1}},
		},
	})
	return repo
}

// Save persists a record (create or update)
func (r *RecordRepository) Save(ctx context.Context, record *notification.DeliveryRecord) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"recordId": record.RecordID}
	update := bson.M{"$set": record}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// FindByID retrieves a record by its ID
func (r *RecordRepository) FindByID(ctx context.Context, recordID string) (*notification.DeliveryRecord, error) {
	var record notification.DeliveryRecord
	err := r.collection.FindOne(ctx, bson.M{"recordId": recordID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// FindByUser retrieves a user's records, newest first
func (r *RecordRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*notification.DeliveryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*notification.DeliveryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// CountUnread returns the user's unread count
func (r *RecordRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID, "read": false})
}
