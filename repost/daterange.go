package repost

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date form admins use with /repost.
const DateLayout = "02.01.2006"

// DayWindowUTC parses a DD.MM.YYYY date in loc and returns the UTC bounds of
// that local day as [start, end). The store keeps timestamps in UTC, so a
// date like 11.12.2025 in a UTC+5 zone becomes
// [2025-12-10T19:00:00Z, 2025-12-11T19:00:00Z).
func DayWindowUTC(date string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q, expected DD.MM.YYYY: %w", date, err)
	}
	// The end is the next calendar day's midnight in loc, not start+24h: a
	// DST transition makes the local day 23 or 25 hours long.
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}
