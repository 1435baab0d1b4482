package repost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayWindowUTCShiftsLocalDay(t *testing.T) {
	uzt := time.FixedZone("UZT", 5*60*60)

	start, end, err := DayWindowUTC("11.12.2025", uzt)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 10, 19, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 12, 11, 19, 0, 0, 0, time.UTC), end)
}

func TestDayWindowUTCInUTC(t *testing.T) {
	start, end, err := DayWindowUTC("01.01.2026", time.UTC)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestDayWindowUTCSpansDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// US spring-forward day: the local day is 23 hours long.
	start, end, err := DayWindowUTC("09.03.2025", loc)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 5, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestDayWindowUTCRejectsBadInput(t *testing.T) {
	for _, date := range []string{"2025-12-11", "31.02.2025", "11/12/2025", ""} {
		_, _, err := DayWindowUTC(date, time.UTC)
		assert.Error(t, err, date)
	}
}
