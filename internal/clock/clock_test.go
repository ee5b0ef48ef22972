package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessClockUsesFixedOffset(t *testing.T) {
	c := NewBusiness(-4 * time.Hour)
	now := c.Now()

	_, offset := now.Zone()
	assert.Equal(t, -4*3600, offset)
	assert.Equal(t, "UTC-04:00", c.Location().String())
}

func TestZoneNames(t *testing.T) {
	assert.Equal(t, "UTC+05:30", Zone(5*time.Hour+30*time.Minute).String())
	assert.Equal(t, "UTC+00:00", Zone(0).String())
}

func TestDayAndMinutes(t *testing.T) {
	loc := Zone(-4 * time.Hour)
	ts := time.Date(2024, 1, 2, 7, 31, 0, 0, loc)

	require.Equal(t, "2024-01-02", Day(ts))
	require.Equal(t, 451, MinutesOfDay(ts))
}

func TestDayFollowsLocationNotUTC(t *testing.T) {
	loc := Zone(-4 * time.Hour)
	// 02:00 UTC on the 3rd is still the 2nd in business time.
	ts := time.Date(2024, 1, 3, 2, 0, 0, 0, time.UTC).In(loc)

	assert.Equal(t, "2024-01-02", Day(ts))
}

func TestFixedClock(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, Fixed(ts).Now().Equal(ts))
}
