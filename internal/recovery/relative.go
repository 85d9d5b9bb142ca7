package recovery

import (
	"time"

	"github.com/dustin/go-humanize"
)

const (
	day  = 24 * time.Hour
	week = 7 * day

	// AbsoluteAfter is the age from which a save time is shown as a date.
	AbsoluteAfter = 30 * day

	// DateLayout formats save times older than AbsoluteAfter.
	DateLayout = "Jan 2, 2006"
)

var magnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now", DivBy: 1},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * day, Format: "1 day %s", DivBy: 1},
	{D: week, Format: "%d days %s", DivBy: day},
	{D: 2 * week, Format: "1 week %s", DivBy: 1},
	{D: AbsoluteAfter, Format: "%d weeks %s", DivBy: week},
}

// RelativeTime describes a save made at ts (milliseconds since epoch) as
// seen from now. Saves in the future count as just now.
func RelativeTime(ts int64, now time.Time) string {
	then := time.UnixMilli(ts)
	if then.After(now) {
		return "just now"
	}
	if now.Sub(then) >= AbsoluteAfter {
		return then.In(now.Location()).Format(DateLayout)
	}
	return humanize.CustomRelTime(then, now, "ago", "from now", magnitudes)
}
