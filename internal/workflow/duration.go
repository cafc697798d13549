package workflow

import (
	"fmt"
	"time"
)

// FormatDuration renders the span between start and end as "N hours" below
// one day and "N days" otherwise, floored. A nil start yields nil and a nil
// end means now. Negative spans clamp to zero.
func FormatDuration(start, end *time.Time, now time.Time) *string {
	if start == nil {
		return nil
	}
	stop := now
	if end != nil {
		stop = *end
	}
	d := stop.Sub(*start)
	if d < 0 {
		d = 0
	}
	var out string
	if d < 24*time.Hour {
		out = fmt.Sprintf("%d hours", int(d/time.Hour))
	} else {
		out = fmt.Sprintf("%d days", int(d/(24*time.Hour)))
	}
	return &out
}
