package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInQuietHours_Overnight(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	prefs.QuietHoursEnabled = true
	prefs.QuietStart = "22:00"
	prefs.QuietEnd = "08:00"

	tests := []struct {
		name  string
		hour  int
		min   int
		quiet bool
	}{
		{name: "midday", hour: 12, min: 0, quiet: false},
		{name: "just before start", hour: 21, min: 59, quiet: false},
		{name: "at start", hour: 22, min: 0, quiet: true},
		{name: "midnight", hour: 0, min: 0, quiet: true},
		{name: "early morning", hour: 7, min: 59, quiet: true},
		{name: "at end", hour: 8, min: 0, quiet: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2026, 3, 10, tt.hour, tt.min, 0, 0, time.UTC)
			quiet, err := prefs.InQuietHours(now)
			require.NoError(t, err)
			assert.Equal(t, tt.quiet, quiet)
		})
	}
}

func TestInQuietHours_SameDayWindow(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	prefs.QuietHoursEnabled = true
	prefs.QuietStart = "13:00"
	prefs.QuietEnd = "15:00"

	quiet, err := prefs.InQuietHours(time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, quiet)

	quiet, err = prefs.InQuietHours(time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestInQuietHours_EqualBoundsWrapAllDay(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	prefs.QuietHoursEnabled = true
	prefs.QuietStart = "10:00"
	prefs.QuietEnd = "10:00"

	for _, hour := range []int{0, 9, 10, 15, 23} {
		quiet, err := prefs.InQuietHours(time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, quiet, "hour %d", hour)
	}
}

func TestInQuietHours_RespectsTimezone(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	prefs.QuietHoursEnabled = true
	prefs.Timezone = "America/New_York"
	prefs.QuietStart = "22:00"
	prefs.QuietEnd = "08:00"

	// 03:00 UTC in March is 22:00 or 23:00 in New York, inside the window
	// either way.
	quiet, err := prefs.InQuietHours(time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, quiet)

	// 17:00 UTC is midday in New York.
	quiet, err = prefs.InQuietHours(time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestInQuietHours_Disabled(t *testing.T) {
	prefs := DefaultPreferences("user-1")

	quiet, err := prefs.InQuietHours(time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, quiet)
}

func TestInQuietHours_InvalidTimezone(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	prefs.QuietHoursEnabled = true
	prefs.Timezone = "Mars/Olympus_Mons"

	_, err := prefs.InQuietHours(time.Now())
	assert.Error(t, err)
}

func TestTypeEnabled(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	assert.True(t, prefs.TypeEnabled(TypeShiftOffered))

	prefs.DisabledTypes = []Type{TypeShiftReminder}
	assert.False(t, prefs.TypeEnabled(TypeShiftReminder))
	assert.True(t, prefs.TypeEnabled(TypeShiftOffered))
}

func TestChannelsFor(t *testing.T) {
	prefs := DefaultPreferences("user-1")
	assert.Equal(t, defaultChannels, prefs.ChannelsFor(TypeShiftOffered))

	prefs.Channels = map[Type][]ChannelKind{
		TypeClaimApproved: {ChannelSMS},
	}
	assert.Equal(t, []ChannelKind{ChannelSMS}, prefs.ChannelsFor(TypeClaimApproved))
	assert.Equal(t, defaultChannels, prefs.ChannelsFor(TypeShiftOffered))
}
