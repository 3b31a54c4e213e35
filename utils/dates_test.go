package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/morisk/utils"
)

func TestAddMonth_ClampsToMonthEnd(t *testing.T) {
	t.Parallel()

	jan31 := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), utils.AddMonth(jan31, 1))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), utils.AddMonth(jan31, -11))
	assert.Equal(t, time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), utils.AddMonth(jan31, 6))
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 181.0/360.0, utils.YearFraction(start, end, "ACT/360"), 1e-15)
	assert.InDelta(t, 181.0/365.0, utils.YearFraction(start, end, "ACT/365F"), 1e-15)
	assert.InDelta(t, 0.5, utils.YearFraction(start, end, "30/360"), 1e-15)
	assert.InDelta(t, 0.5, utils.YearFraction(start, end, "30E/360"), 1e-15)

	// The US rule keeps a 31st end day unless the start day is 30 or 31.
	mid := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.InDelta(t, 196.0/360.0, utils.YearFraction(mid, end, "30/360"), 1e-15)
	assert.InDelta(t, 195.0/360.0, utils.YearFraction(mid, end, "30E/360"), 1e-15)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := utils.ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())

	_, err = utils.ParseDate("10/03/2026")
	assert.Error(t, err)
}
