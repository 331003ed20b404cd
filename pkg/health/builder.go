// Package health aggregates timing monitors, runs their evaluation on
// a dedicated worker and reports liveness to the process supervisor
// while every monitor stays healthy.
package health

import (
	"fmt"
	"log/slog"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/deadline"
	"github.com/eclipse-score/lifecycle/pkg/heartbeat"
	"github.com/eclipse-score/lifecycle/pkg/supervisor"
)

const (
	DefaultSupervisorAPICycle      = 500 * time.Millisecond
	DefaultInternalProcessingCycle = 100 * time.Millisecond
)

// Builder for [HealthMonitor].
type Builder struct {
	deadlineBuilders  map[lifecycle.MonitorTag]*deadline.Builder
	heartbeatBuilders map[lifecycle.MonitorTag]*heartbeat.Builder
	supervisorCycle   time.Duration
	internalCycle     time.Duration
	logger            *slog.Logger
	client            supervisor.Client
}

// NewBuilder creates a health monitor builder with default cycles.
func NewBuilder() *Builder {
	return &Builder{
		deadlineBuilders:  map[lifecycle.MonitorTag]*deadline.Builder{},
		heartbeatBuilders: map[lifecycle.MonitorTag]*heartbeat.Builder{},
		supervisorCycle:   DefaultSupervisorAPICycle,
		internalCycle:     DefaultInternalProcessingCycle,
	}
}

// WithSupervisorAPICycle sets how often the supervisor is notified
// that the system is alive.
func (b *Builder) WithSupervisorAPICycle(cycle time.Duration) *Builder {
	b.supervisorCycle = cycle
	return b
}

// WithInternalProcessingCycle sets how often monitors are evaluated.
func (b *Builder) WithInternalProcessingCycle(cycle time.Duration) *Builder {
	b.internalCycle = cycle
	return b
}

// WithLogger sets the logger used by the health monitor and every
// monitor it builds.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithSupervisor overrides the platform supervisor client, mainly for
// tests and embedding.
func (b *Builder) WithSupervisor(client supervisor.Client) *Builder {
	b.client = client
	return b
}

// AddDeadlineMonitor registers a deadline monitor under a tag.
// A monitor already registered with the same tag is overwritten.
func (b *Builder) AddDeadlineMonitor(tag lifecycle.MonitorTag, monitor *deadline.Builder) *Builder {
	b.deadlineBuilders[tag] = monitor
	return b
}

// AddHeartbeatMonitor registers a heartbeat monitor under a tag.
// A monitor already registered with the same tag is overwritten.
func (b *Builder) AddHeartbeatMonitor(tag lifecycle.MonitorTag, monitor *heartbeat.Builder) *Builder {
	b.heartbeatBuilders[tag] = monitor
	return b
}

// Build consumes the builder and instantiates every monitor.
// Panics when the supervisor cycle is not a positive integer multiple
// of the internal processing cycle, this is a programming error.
func (b *Builder) Build() *HealthMonitor {
	if b.internalCycle <= 0 || b.supervisorCycle <= 0 {
		panic("processing cycles must be positive")
	}
	if b.supervisorCycle%b.internalCycle != 0 {
		panic(fmt.Sprintf("supervisor API cycle %v must be a multiple of internal processing cycle %v",
			b.supervisorCycle, b.internalCycle))
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	client := b.client
	if client == nil {
		client = supervisor.New(logger)
	}

	hm := &HealthMonitor{
		deadlines:       map[lifecycle.MonitorTag]*deadlineEntry{},
		heartbeats:      map[lifecycle.MonitorTag]*heartbeatEntry{},
		supervisorCycle: b.supervisorCycle,
		internalCycle:   b.internalCycle,
		client:          client,
		logger:          logger.With("service", "[HMON]"),
	}
	for tag, builder := range b.deadlineBuilders {
		hm.deadlines[tag] = &deadlineEntry{monitor: builder.Build(tag, logger)}
	}
	for tag, builder := range b.heartbeatBuilders {
		hm.heartbeats[tag] = &heartbeatEntry{monitor: builder.Build(tag, b.internalCycle, logger)}
	}
	return hm
}
