package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/utils"
)

func TestAddMonth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		months int
		want   string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-31", -1, "2025-02-28"},
		{"2025-01-15", 6, "2025-07-15"},
		{"2025-08-31", -6, "2025-02-28"},
		{"2025-05-31", 12, "2026-05-31"},
	}
	for _, tc := range cases {
		in, err := utils.ParseDate(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, utils.FormatDate(utils.AddMonth(in, tc.months)), "%s %+d", tc.in, tc.months)
	}
}

func TestAddMonthEOM(t *testing.T) {
	t.Parallel()

	feb, err := utils.ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, "2025-08-31", utils.FormatDate(utils.AddMonthEOM(feb, 6)))
	assert.Equal(t, "2025-08-28", utils.FormatDate(utils.AddMonth(feb, 6)))
}

func TestParseDate_Invalid(t *testing.T) {
	t.Parallel()

	_, err := utils.ParseDate("2025/01/01")
	assert.Error(t, err)
}

func TestSortDates(t *testing.T) {
	t.Parallel()

	a := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{a, b}
	utils.SortDates(dates)
	assert.Equal(t, []time.Time{b, a}, dates)
}
