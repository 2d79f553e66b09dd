package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cal  calendar.ID
		day  time.Time
		want bool
	}{
		{calendar.None, date(2025, 1, 4), true},
		{calendar.Weekend, date(2025, 1, 4), false},
		{calendar.Weekend, date(2025, 12, 25), true},
		{calendar.TARGET, date(2025, 12, 25), false},
		{calendar.TARGET, date(2025, 4, 18), false}, // Good Friday
		{calendar.TARGET, date(2025, 4, 21), false}, // Easter Monday
		{calendar.TARGET, date(2025, 4, 22), true},
		{calendar.USD, date(2025, 7, 4), false},
		{calendar.USD, date(2025, 11, 27), false}, // Thanksgiving
		{calendar.USD, date(2025, 5, 26), false},  // Memorial Day
		{calendar.USD, date(2026, 7, 3), false},   // July 4th observed
		{calendar.USD, date(2025, 7, 7), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, calendar.IsBusinessDay(tc.cal, tc.day), "%s %s", tc.cal, tc.day.Format(time.DateOnly))
	}
}

func TestAdjust(t *testing.T) {
	t.Parallel()

	// 2025-05-31 is a Saturday: Following crosses into June, Modified Following stays in May.
	sat := date(2025, 5, 31)
	assert.Equal(t, date(2025, 6, 2), calendar.Adjust(calendar.Weekend, sat, calendar.Following))
	assert.Equal(t, date(2025, 5, 30), calendar.Adjust(calendar.Weekend, sat, calendar.ModifiedFollowing))
	assert.Equal(t, date(2025, 5, 30), calendar.Adjust(calendar.Weekend, sat, calendar.Preceding))
	assert.Equal(t, sat, calendar.Adjust(calendar.Weekend, sat, calendar.Unadjusted))
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	eve := date(2025, 12, 24)
	assert.Equal(t, date(2025, 12, 29), calendar.AddBusinessDays(calendar.TARGET, eve, 1))
	assert.Equal(t, date(2025, 12, 23), calendar.AddBusinessDays(calendar.TARGET, eve, -1))
}

func TestParse(t *testing.T) {
	t.Parallel()

	id, err := calendar.ParseID("target")
	require.NoError(t, err)
	assert.Equal(t, calendar.TARGET, id)
	_, err = calendar.ParseID("XYZ")
	assert.Error(t, err)

	bdc, err := calendar.ParseBusinessDayConvention("modified following")
	require.NoError(t, err)
	assert.Equal(t, calendar.ModifiedFollowing, bdc)
}
