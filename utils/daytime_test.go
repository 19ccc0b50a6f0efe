package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayFromTime(t *testing.T) {
	// The epoch falls on day 0 of the fixed UTC+9:30 calendar.
	require.Equal(t, 0, DayFromTime(time.Unix(0, 0)))

	// One second before the first UTC+9:30 midnight is still day 0; the
	// midnight itself starts day 1.
	beforeMidnight := time.Unix(86400-dayZoneOffset-1, 0)
	require.Equal(t, 0, DayFromTime(beforeMidnight))
	require.Equal(t, 1, DayFromTime(beforeMidnight.Add(time.Second)))
}

func TestDayFromTimeIgnoresLocation(t *testing.T) {
	// The day index depends only on the instant, not the time's location.
	instant := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, DayFromTime(instant), DayFromTime(instant.In(time.FixedZone("X", -5*3600))))
}
