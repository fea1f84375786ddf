package notification

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryRecord is the persisted trace of one delivered (or attempted)
// notification. Suppressed intents leave no record.
type DeliveryRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RecordID  string             `bson:"recordId"`
	UserID    string             `bson:"userId"`
	Type      Type               `bson:"type"`
	Urgency   Urgency            `bson:"urgency"`
	EntityKey string             `bson:"entityKey"`
	Title     string             `bson:"title"`
	Body      string             `bson:"body"`
	Status    Status             `bson:"status"`
	Attempts  []ChannelAttempt   `bson:"attempts"`
	Read      bool               `bson:"read"`
	ReadAt    *time.Time         `bson:"readAt,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// MarkRead flags the record as seen by the user
func (r *DeliveryRecord) MarkRead() {
	if r.Read {
		return
	}
	now := time.Now().UTC()
	r.Read = true
	r.ReadAt = &now
}

// RecordStore persists delivery records
type RecordStore interface {
	// Save persists a record (create or update)
	Save(ctx context.Context, record *DeliveryRecord) error

	// FindByID retrieves a record by its ID
	FindByID(ctx context.Context, recordID string) (*DeliveryRecord, error)

	// FindByUser retrieves a user's records, newest first
	FindByUser(ctx context.Context, userID string, limit int) ([]*DeliveryRecord, error)

	// CountUnread returns the user's unread count
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// RateLimiter enforces the per-user hourly send cap. Allow must increment
// and compare as one atomic operation.
type RateLimiter interface {
	Allow(ctx context.Context, userID string) (bool, error)
}

// Deduper suppresses repeat sends of the same (user, type, entity) within a
// TTL window. Reserve must check and mark in one atomic step so two racing
// identical intents cannot both pass the gate.
type Deduper interface {
	// Reserve atomically marks the key for ttl and reports whether this
	// caller won the reservation. A key still held within its TTL loses.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees a reserved key so a later retry is not suppressed
	Release(ctx context.Context, key string) error
}

// BatchQueue holds low-urgency intents back during quiet hours for a later
// digest flush.
type BatchQueue interface {
	// Enqueue appends the intent to the user's pending batch
	Enqueue(ctx context.Context, intent Intent) error

	// DrainDue pops every user batch older than the retention window and
	// returns the queued intents grouped by user
	DrainDue(ctx context.Context) (map[string][]Intent, error)
}
