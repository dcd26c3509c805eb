package retention

import "time"

// Day is the unit of every retention window.
const Day = 24 * time.Hour

// DaysBetween returns the whole number of days elapsed from then to now,
// rounded down. It is negative when then is after now.
func DaysBetween(now, then time.Time) int {
	d := now.Sub(then)
	days := int(d / Day)
	if d < 0 && d%Day != 0 {
		days--
	}
	return days
}

// StartOfDay returns midnight UTC of the day t falls on.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Expired reports whether a message published at pubDate is past the
// retention window of a realm whose setting is retentionDays. Age counts
// whole days from pubDate to the start of the current UTC day, not to now.
// A nil setting never expires anything.
//
// The archiver evaluates the same predicate in SQL; this is its reference
// form.
func Expired(now, pubDate time.Time, retentionDays *int) bool {
	if retentionDays == nil {
		return false
	}
	return DaysBetween(StartOfDay(now), pubDate) >= *retentionDays
}

// RetentionDays is a convenience for building realm settings.
func RetentionDays(days int) *int {
	return &days
}
