package deadline

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/internal/timeutil"
)

// Builder for [Monitor].
type Builder struct {
	ranges map[lifecycle.DeadlineTag]lifecycle.TimeRange
}

// NewBuilder creates an empty deadline monitor builder.
func NewBuilder() *Builder {
	return &Builder{ranges: map[lifecycle.DeadlineTag]lifecycle.TimeRange{}}
}

// AddDeadline registers a deadline with its allowed window.
// Adding the same tag again overwrites the previous registration.
func (b *Builder) AddDeadline(tag lifecycle.DeadlineTag, rng lifecycle.TimeRange) *Builder {
	b.ranges[tag] = rng
	return b
}

// Build the [Monitor]. The set of deadlines is fixed from this point.
func (b *Builder) Build(tag lifecycle.MonitorTag, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", "[DL]", "tag", string(tag))
	inner := &monitorInner{
		tag:    tag,
		start:  time.Now(),
		logger: logger,
	}
	monitor := &Monitor{
		inner: inner,
		slots: map[lifecycle.DeadlineTag]*slot{},
	}
	// Deterministic evaluation order for the fixed deadline set.
	tags := make([]lifecycle.DeadlineTag, 0, len(b.ranges))
	for deadlineTag := range b.ranges {
		tags = append(tags, deadlineTag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, deadlineTag := range tags {
		state := &deadlineState{tag: deadlineTag, rng: rangeFromTimeRange(b.ranges[deadlineTag])}
		inner.deadlines = append(inner.deadlines, state)
		monitor.slots[deadlineTag] = &slot{state: state}
	}
	return monitor
}

type slot struct {
	state *deadlineState
	taken bool
}

// Monitor owns a fixed set of deadlines keyed by tag and vends each
// [Deadline] handle at most once.
type Monitor struct {
	inner *monitorInner
	mu    sync.Mutex
	slots map[lifecycle.DeadlineTag]*slot
}

// GetDeadline hands over exclusive ownership of the named deadline.
// Returns [lifecycle.ErrNotFound] for an unknown tag and
// [lifecycle.ErrAlreadyTaken] on a second request.
func (m *Monitor) GetDeadline(tag lifecycle.DeadlineTag) (*Deadline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[tag]
	if !ok {
		return nil, lifecycle.ErrNotFound
	}
	if s.taken {
		return nil, lifecycle.ErrAlreadyTaken
	}
	s.taken = true
	return &Deadline{
		inner:  m.inner,
		state:  s.state,
		logger: m.inner.logger.With("deadline", string(tag)),
	}, nil
}

// EvalHandle returns the shared read side used by the evaluator worker.
func (m *Monitor) EvalHandle() lifecycle.Evaluator {
	return m.inner
}

type monitorInner struct {
	tag lifecycle.MonitorTag
	// Monitor starting point. All gate timestamps are relative to it.
	start     time.Time
	deadlines []*deadlineState
	logger    *slog.Logger
}

// Evaluate samples every deadline gate once.
// A gate still running past its bound reports on every tick until the
// owner stops it. A completed gate outside its window reports once and
// resets, a completed gate inside its window resets silently.
func (inner *monitorInner) Evaluate(hmonStart time.Time, onError lifecycle.EvalCallback) {
	offset := timeutil.OriginOffset(hmonStart, inner.start)
	now := offset + timeutil.ToMillis(time.Since(hmonStart))

	for _, state := range inner.deadlines {
		word := state.word.Load()
		gate, value := unpackWord(word)
		switch gate {
		case gateRunning:
			// A start racing this tick can carry a timestamp past our
			// time sample, such a gate is trivially within bounds.
			if now > value && now-value > state.rng.max {
				inner.logger.Warn("deadline exceeded while still running",
					"deadline", string(state.tag), "pastWindowMs", now-value-state.rng.max)
				onError(inner.tag, lifecycle.ErrTooLate)
			}
		case gateCompleted:
			switch {
			case value < state.rng.min:
				inner.logger.Warn("deadline completed too early",
					"deadline", string(state.tag), "beforeWindowMs", state.rng.min-value)
				onError(inner.tag, lifecycle.ErrTooEarly)
			case value > state.rng.max:
				inner.logger.Warn("deadline completed too late",
					"deadline", string(state.tag), "pastWindowMs", value-state.rng.max)
				onError(inner.tag, lifecycle.ErrTooLate)
			}
			// Observed, clear the gate.
			state.word.CompareAndSwap(word, packWord(gateIdle, 0))
		}
	}
}
