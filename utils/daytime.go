package utils

import "time"

// Retention windows are measured in whole days since the Unix epoch,
// with the day boundary fixed to the club's home timezone (UTC+9:30).
const dayZoneOffset = 9*3600 + 30*60

// CurrentDay returns the day index for the current wall-clock time.
func CurrentDay() int {
	return DayFromTime(time.Now())
}

// DayFromTime returns the day index a given timestamp falls into.
func DayFromTime(t time.Time) int {
	return int((t.Unix() + dayZoneOffset) / 86400)
}
