// Package heartbeat verifies that an owning task signals liveness
// exactly once per configured time window.
package heartbeat

import (
	"fmt"
	"log/slog"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/internal/timeutil"
)

// Builder for [Monitor].
type Builder struct {
	rng lifecycle.TimeRange
}

// NewBuilder creates a heartbeat monitor builder with the allowed time
// range between beats.
func NewBuilder(rng lifecycle.TimeRange) *Builder {
	return &Builder{rng: rng}
}

// Build the [Monitor].
// Panics unless 2*range.Min is greater than the internal processing
// cycle, otherwise the evaluator could miss an entire heartbeat cycle.
func (b *Builder) Build(tag lifecycle.MonitorTag, internalCycle time.Duration, logger *slog.Logger) *Monitor {
	if 2*b.rng.Min <= internalCycle {
		panic(fmt.Sprintf("heartbeat range min %v too short for internal processing cycle %v", b.rng.Min, internalCycle))
	}
	if logger == nil {
		logger = slog.Default()
	}
	inner := &monitorInner{
		tag:    tag,
		rng:    rangeFromTimeRange(b.rng),
		start:  time.Now(),
		state:  newState(),
		logger: logger.With("service", "[HB]", "tag", string(tag)),
	}
	return &Monitor{inner: inner}
}

// Monitor is the user facing heartbeat handle. It exclusively owns the
// right to produce beats, the evaluator reads through [Monitor.EvalHandle].
type Monitor struct {
	inner *monitorInner
}

// Beat signals that the owning task is alive.
// Callable from any goroutine, non blocking, bounded time.
func (m *Monitor) Beat() {
	m.inner.beat()
}

// EvalHandle returns the shared read side used by the evaluator worker.
func (m *Monitor) EvalHandle() lifecycle.Evaluator {
	return m.inner
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

// offset shifts the range onto an absolute cycle starting point.
func (r internalRange) offset(timestamp uint32) internalRange {
	return internalRange{min: r.min + timestamp, max: r.max + timestamp}
}

type monitorInner struct {
	tag lifecycle.MonitorTag
	rng internalRange
	// Monitor starting point. All snapshot timestamps are relative to it.
	start  time.Time
	state  *state
	logger *slog.Logger
}

func (inner *monitorInner) beat() {
	now := timeutil.ToMillis(time.Since(inner.start))
	inner.state.update(func(s snapshot) snapshot {
		s.heartbeatOffset = now - s.startTimestamp
		s.counter = saturatingInc(s.counter)
		return s
	})
}

// Evaluate scores the current cycle against the allowed window.
// Called on every internal tick by the health monitor worker.
func (inner *monitorInner) Evaluate(hmonStart time.Time, onError lifecycle.EvalCallback) {
	// Current timestamp on the monitor timeline.
	offset := timeutil.OriginOffset(hmonStart, inner.start)
	now := offset + timeutil.ToMillis(time.Since(hmonStart))

	cur := inner.state.current.Load()
	snap := *cur

	// The first heartbeat arrives before the cycle is anchored. Until
	// then the health monitor start acts as the cycle starting point and
	// the stored offset is already absolute on the monitor timeline.
	var start, beat uint32
	if snap.postInit {
		start = snap.startTimestamp
		beat = start + snap.heartbeatOffset
	} else {
		start = offset
		beat = snap.heartbeatOffset
	}

	window := inner.rng.offset(start)

	switch {
	case snap.counter > 1:
		inner.logger.Warn("multiple heartbeats detected", "count", snap.counter)
		onError(inner.tag, lifecycle.ErrMultipleHeartbeats)
		return
	case snap.counter == 0:
		if now > window.max {
			inner.logger.Warn("no heartbeat detected", "pastWindowMs", now-window.max)
			onError(inner.tag, lifecycle.ErrTooLate)
		}
		// Still in grace otherwise.
		return
	}

	switch {
	case beat < window.min:
		inner.logger.Warn("heartbeat too early", "beforeWindowMs", window.min-beat)
		onError(inner.tag, lifecycle.ErrTooEarly)
	case beat > window.max:
		inner.logger.Warn("heartbeat too late", "pastWindowMs", beat-window.max)
		onError(inner.tag, lifecycle.ErrTooLate)
	default:
		// Cycle success : the accepted beat anchors the next cycle.
		inner.state.replace(cur, snapshot{startTimestamp: beat, postInit: true})
	}
}
