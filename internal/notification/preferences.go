package notification

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Preferences holds one user's notification settings. A user with no stored
// preferences gets DefaultPreferences, which enables everything.
type Preferences struct {
	ID                primitive.ObjectID     `bson:"_id,omitempty"`
	UserID            string                 `bson:"userId"`
	TenantID          string                 `bson:"tenantId"`
	Timezone          string                 `bson:"timezone"`
	QuietHoursEnabled bool                   `bson:"quietHoursEnabled"`
	QuietStart        string                 `bson:"quietStart"` // "22:00"
	QuietEnd          string                 `bson:"quietEnd"`   // "08:00"
	BatchingEnabled   bool                   `bson:"batchingEnabled"`
	DisabledTypes     []Type                 `bson:"disabledTypes,omitempty"`
	Channels          map[Type][]ChannelKind `bson:"channels,omitempty"`
	Contact           Contact                `bson:"contact"`
	UpdatedAt         time.Time              `bson:"updatedAt"`
}

// Contact holds the user's reachable channel targets. An empty field means
// that channel is a no-op for this user.
type Contact struct {
	PushToken string `bson:"pushToken,omitempty" json:"pushToken,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
}

// defaultChannels is used when a user has no per-type channel selection
var defaultChannels = []ChannelKind{ChannelPush, ChannelEmail}

// DefaultPreferences returns settings for a user who never configured any
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:            userID,
		Timezone:          "UTC",
		QuietHoursEnabled: false,
		QuietStart:        "22:00",
		QuietEnd:          "08:00",
		BatchingEnabled:   true,
	}
}

// TypeEnabled reports whether the user accepts this notification type
func (p *Preferences) TypeEnabled(t Type) bool {
	for _, disabled := range p.DisabledTypes {
		if disabled == t {
			return false
		}
	}
	return true
}

// ChannelsFor returns the channels configured for a type, falling back to
// the defaults when the user has no explicit selection
func (p *Preferences) ChannelsFor(t Type) []ChannelKind {
	if kinds, ok := p.Channels[t]; ok && len(kinds) > 0 {
		return kinds
	}
	return defaultChannels
}

// InQuietHours reports whether the instant falls inside the user's quiet
// window, evaluated in the user's timezone. Windows where start >= end span
// midnight: 22:00-08:00 covers late evening through early morning, and equal
// bounds cover the whole day.
func (p *Preferences) InQuietHours(now time.Time) (bool, error) {
	if !p.QuietHoursEnabled {
		return false, nil
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return false, fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
	}

	startMin, err := parseClock(p.QuietStart)
	if err != nil {
		return false, err
	}
	endMin, err := parseClock(p.QuietEnd)
	if err != nil {
		return false, err
	}

	local := now.In(loc)
	nowMin := local.Hour()*60 + local.Minute()

	if startMin < endMin {
		return nowMin >= startMin && nowMin < endMin, nil
	}
	// Overnight window; equal bounds wrap all the way around.
	return nowMin >= startMin || nowMin < endMin, nil
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// PreferenceStore loads and saves user preferences
type PreferenceStore interface {
	// Find returns the user's preferences, or nil when none are stored
	Find(ctx context.Context, userID string) (*Preferences, error)

	// Save persists preferences (create or update)
	Save(ctx context.Context, prefs *Preferences) error
}
