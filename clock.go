package ringlog

import "time"

// Clock returns the current timestamp in nanoseconds since the Unix epoch.
// It is injected once at construction and never swapped afterwards.
type Clock func() int64

// defaultClock anchors a wall reading at construction and advances it with
// the monotonic clock, so timestamps never jump backwards under NTP steps.
func defaultClock() Clock {
	base := time.Now()
	wall := base.UnixNano()
	return func() int64 {
		return wall + int64(time.Since(base))
	}
}
