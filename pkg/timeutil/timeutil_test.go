package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock(9*3600+30*60), c)
	assert.Equal(t, "09:30:00", c.String())

	c, err = ParseClock("17:00:15")
	require.NoError(t, err)
	assert.Equal(t, "17:00:15", c.String())

	for _, bad := range []string{"9:00", "24:00", "12:60", "12:00:61", "noon", ""} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	in := time.Date(2025, 10, 28, 3, 15, 0, 0, loc) // 2025-10-27 20:15 UTC
	assert.Equal(t, time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC), MidnightUTC(in))
}

func TestIsWeekendUTC(t *testing.T) {
	assert.True(t, IsWeekendUTC(time.Date(2025, 10, 25, 10, 0, 0, 0, time.UTC)))  // Saturday
	assert.True(t, IsWeekendUTC(time.Date(2025, 10, 26, 23, 59, 0, 0, time.UTC))) // Sunday
	assert.False(t, IsWeekendUTC(time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC)))  // Monday
}

func TestCombineDateAndClock(t *testing.T) {
	day := time.Date(2025, 10, 27, 13, 0, 0, 0, time.UTC)
	clock, _ := ParseClock("09:20")
	assert.Equal(t, time.Date(2025, 10, 27, 9, 20, 0, 0, time.UTC), CombineDateAndClock(day, clock))
}

func TestParseDateAndInstant(t *testing.T) {
	d, err := ParseDate("2025-10-27")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())

	_, err = ParseDate("27/10/2025")
	assert.Error(t, err)

	i, err := ParseInstant("2025-10-27T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 27, 8, 0, 0, 0, time.UTC), i)
	assert.Equal(t, time.UTC, i.Location())

	_, err = ParseInstant("not-a-time")
	assert.Error(t, err)
}

func TestWeekdayIndexHelpers(t *testing.T) {
	assert.Equal(t, 1, WeekdayIndex(time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekdayIndex(5))
	assert.False(t, IsWeekdayIndex(0))
	assert.False(t, IsWeekdayIndex(6))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 20, 0, 0, time.UTC), AddMinutes(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 20))
}
