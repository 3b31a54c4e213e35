package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meenmo/morisk/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdjust_ModifiedFollowing(t *testing.T) {
	t.Parallel()

	// Saturday 2025-05-31 would roll into June, so it rolls back to Friday.
	assert.Equal(t, date(2025, 5, 30), calendar.Adjust(calendar.TARGET, date(2025, 5, 31)))
	// Saturday 2025-03-15 rolls forward to Monday.
	assert.Equal(t, date(2025, 3, 17), calendar.Adjust(calendar.USD, date(2025, 3, 15)))
	// Christmas and Boxing Day on TARGET.
	assert.Equal(t, date(2025, 12, 29), calendar.Adjust(calendar.TARGET, date(2025, 12, 25)))
	assert.Equal(t, date(2025, 12, 26), calendar.Adjust(calendar.None, date(2025, 12, 26)))
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	fri := date(2025, 1, 10)
	assert.Equal(t, date(2025, 1, 14), calendar.AddBusinessDays(calendar.KRW, fri, 2))
	assert.Equal(t, date(2025, 1, 9), calendar.AddBusinessDays(calendar.KRW, fri, -1))
	assert.Equal(t, date(2025, 1, 2), calendar.AddBusinessDays(calendar.JPN, date(2024, 12, 31), 1))
	assert.False(t, calendar.IsBusinessDay(calendar.KRW, date(2025, 8, 15)))
}
