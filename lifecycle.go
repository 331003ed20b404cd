// This package contains the base types shared by the health monitoring
// stack : identifier tags, allowed time ranges and the evaluation
// contract implemented by every monitor variety.
package lifecycle

import (
	"fmt"
	"time"
)

// MonitorTag identifies a monitor inside a health monitor instance.
// Tags compare by content and are cheap to copy.
type MonitorTag string

// DeadlineTag identifies a single deadline inside a deadline monitor.
// Distinct from [MonitorTag] to prevent accidental mixing.
type DeadlineTag string

// TimeRange is an allowed [Min,Max] duration window.
type TimeRange struct {
	Min time.Duration
	Max time.Duration
}

// Create a new [TimeRange].
// Panics if min is greater than max, this is a programming error.
func NewTimeRange(min time.Duration, max time.Duration) TimeRange {
	if min > max {
		panic(fmt.Sprintf("time range min (%v) must be less than or equal to max (%v)", min, max))
	}
	return TimeRange{Min: min, Max: max}
}

// EvalCallback receives per-monitor evaluation failures.
// err is one of [ErrTooEarly], [ErrTooLate], [ErrMultipleHeartbeats].
type EvalCallback func(tag MonitorTag, err error)

// Evaluator is implemented by every monitor variety and called
// cyclically by the health monitor worker.
// hmonStart is the instant at which the owning health monitor started.
type Evaluator interface {
	Evaluate(hmonStart time.Time, onError EvalCallback)
}
