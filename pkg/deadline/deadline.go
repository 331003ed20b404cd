// Package deadline verifies that named units of work, bracketed by
// explicit start/stop calls, complete within a configured time window.
package deadline

import (
	"log/slog"
	"sync/atomic"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/internal/timeutil"
)

// Per-deadline gate states, packed into the state word.
const (
	gateIdle = uint64(iota)
	gateRunning
	gateCompleted
)

// deadlineState is shared between the producer handle and the
// evaluator. The whole gate fits in one packed atomic word :
// {state u8, value u32} where value carries the start timestamp while
// Running and the measured elapsed time once Completed. Timestamps are
// milliseconds on the owning monitor's creation timeline.
type deadlineState struct {
	tag  lifecycle.DeadlineTag
	rng  internalRange
	word atomic.Uint64
}

func packWord(gate uint64, value uint32) uint64 {
	return gate<<32 | uint64(value)
}

func unpackWord(word uint64) (gate uint64, value uint32) {
	return word >> 32, uint32(word)
}

// Deadline is a user facing timing gate handle, exclusively owned by
// at most one caller. Handles are vended once by [Monitor.GetDeadline].
type Deadline struct {
	inner  *monitorInner
	state  *deadlineState
	logger *slog.Logger
}

// Tag returns the identifier of this deadline.
func (d *Deadline) Tag() lifecycle.DeadlineTag {
	return d.state.tag
}

// Start records the current time as the start of the measured interval.
// Returns [lifecycle.ErrWrongState] if the deadline is already running
// or its previous completion has not been observed yet.
func (d *Deadline) Start() error {
	now := timeutil.ToMillis(time.Since(d.inner.start))
	cur := d.state.word.Load()
	gate, _ := unpackWord(cur)
	if gate != gateIdle {
		d.logger.Warn("deadline started while not idle")
		return lifecycle.ErrWrongState
	}
	if !d.state.word.CompareAndSwap(cur, packWord(gateRunning, now)) {
		// Another call on the same handle changed the gate in between,
		// the caller misused the handle.
		d.logger.Warn("deadline started while not idle")
		return lifecycle.ErrWrongState
	}
	return nil
}

// Stop ends the measured interval. The next evaluation observes the
// outcome. Returns [lifecycle.ErrWrongState] if the deadline is not
// running.
func (d *Deadline) Stop() error {
	now := timeutil.ToMillis(time.Since(d.inner.start))
	cur := d.state.word.Load()
	gate, startTimestamp := unpackWord(cur)
	if gate != gateRunning {
		d.logger.Warn("deadline stopped while not running")
		return lifecycle.ErrWrongState
	}
	if !d.state.word.CompareAndSwap(cur, packWord(gateCompleted, now-startTimestamp)) {
		d.logger.Warn("deadline stopped while not running")
		return lifecycle.ErrWrongState
	}
	return nil
}

// internalRange is a time range in u32 milliseconds.
type internalRange struct {
	min uint32
	max uint32
}

func rangeFromTimeRange(rng lifecycle.TimeRange) internalRange {
	return internalRange{
		min: timeutil.ToMillis(rng.Min),
		max: timeutil.ToMillis(rng.Max),
	}
}
