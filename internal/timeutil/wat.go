package timeutil

import (
	"fmt"
	"time"
)

// WAT is West Africa Time (UTC+1), the business timezone for "today" and
// "this month" boundaries. Timestamps are stored in UTC.
var WAT *time.Location

func init() {
	var err error
	WAT, err = time.LoadLocation("Africa/Lagos")
	if err != nil {
		// Fallback: create fixed zone if tzdata is not available
		WAT = time.FixedZone("WAT", 60*60)
	}
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	CompactDate    = "20060102"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)

// Now returns the current time in WAT
func Now() time.Time {
	return time.Now().In(WAT)
}

// StartOfDay returns 00:00 in WAT for the day containing t
func StartOfDay(t time.Time) time.Time {
	w := t.In(WAT)
	return time.Date(w.Year(), w.Month(), w.Day(), 0, 0, 0, 0, WAT)
}

// StartOfMonth returns 00:00 on the first of the month containing t
func StartOfMonth(t time.Time) time.Time {
	w := t.In(WAT)
	return time.Date(w.Year(), w.Month(), 1, 0, 0, 0, 0, WAT)
}

// ParseDate parses a YYYY-MM-DD value as a WAT calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, WAT)
}

// FormatDate renders a calendar date, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// Ago renders how long before now t was, e.g. "5 minutes ago".
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
	return t.In(WAT).Format(DisplayLayout)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
