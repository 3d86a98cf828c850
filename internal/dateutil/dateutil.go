// Package dateutil provides calendar-day helpers for the habit ledger.
//
// The ledger is keyed by canonical YYYY-MM-DD strings in the local calendar.
// All keys flowing into the ledger MUST come from Key so that string
// comparison and string sorting agree with calendar order.
package dateutil

import (
	"fmt"
	"time"
)

// weekdayAbbr holds the fixed display abbreviations used by Label.
// These are intentionally not locale-dependent; labels are presentation-only
// and never parsed back.
var weekdayAbbr = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Key returns the canonical zero-padded YYYY-MM-DD key for t in the local
// calendar. This is the sole ledger key format.
func Key(t time.Time) string {
	return t.Format("2006-01-02")
}

// Label returns the human-readable "YYYY.M.D (Wd)" form of t, with month and
// day unpadded and a fixed English weekday abbreviation.
func Label(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d (%s)", t.Year(), int(t.Month()), t.Day(), weekdayAbbr[int(t.Weekday())])
}

// SameDay reports whether a and b fall on the same calendar day,
// ignoring time of day.
func SameDay(a, b time.Time) bool {
	return Key(a) == Key(b)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Sunday at or before t.
func StartOfWeek(t time.Time) time.Time {
	return AddDays(StartOfDay(t), -int(t.Weekday()))
}

// AddDays steps t by n calendar days. Stepping goes through time.Date with
// an adjusted day component so a DST transition cannot shift the result off
// midnight.
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
