// Package timeago renders a timestamp as a coarse human-readable age for ad
// listings, e.g. "45 seconds ago" or "1 day ago".
package timeago

import (
	"fmt"
	"time"
)

// Format returns the age of t relative to now, using the largest nonzero
// unit among days, hours, minutes and seconds. Ages below one second (and
// timestamps in the future) render as "just now".
func Format(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Second {
		return "just now"
	}

	switch {
	case d >= 24*time.Hour:
		return plural(int(d.Hours())/24, "day")
	case d >= time.Hour:
		return plural(int(d.Hours()), "hour")
	case d >= time.Minute:
		return plural(int(d.Minutes()), "minute")
	default:
		return plural(int(d.Seconds()), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
