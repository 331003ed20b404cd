// Package timeutil converts monotonic time measurements to the
// millisecond u32 representation used inside monitor state words.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

// ToMillis converts a duration to whole milliseconds.
// Panics on overflow : a monitor would need to run for roughly 49 days
// without restart to reach this point.
func ToMillis(d time.Duration) uint32 {
	ms := d.Milliseconds()
	if ms < 0 || ms > math.MaxUint32 {
		panic(fmt.Sprintf("duration %v does not fit in u32 milliseconds", d))
	}
	return uint32(ms)
}

// OriginOffset returns the offset in milliseconds between the health
// monitor starting point and an (earlier) monitor starting point.
// Panics if hmonStart precedes monitorStart, monitors are always
// created before the health monitor starts.
func OriginOffset(hmonStart time.Time, monitorStart time.Time) uint32 {
	since := hmonStart.Sub(monitorStart)
	if since < 0 {
		panic("health monitor starting point is earlier than monitor starting point")
	}
	return ToMillis(since)
}
