package boundary

import (
	"errors"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/deadline"
	"github.com/eclipse-score/lifecycle/pkg/health"
	"github.com/eclipse-score/lifecycle/pkg/heartbeat"
)

// --- health monitor builder ---

func HealthMonitorBuilderCreate() Handle {
	return export(health.NewBuilder())
}

func HealthMonitorBuilderDestroy(h Handle) Code {
	if _, ok := release[*health.Builder](h); !ok {
		return InvalidArgument
	}
	return OK
}

// HealthMonitorBuilderAddDeadlineMonitor consumes the deadline monitor
// builder handle, it must not be used afterwards.
func HealthMonitorBuilderAddDeadlineMonitor(h Handle, tag string, monitorBuilder Handle) Code {
	builder, ok := resolve[*health.Builder](h)
	if !ok {
		return InvalidArgument
	}
	mb, ok := release[*deadline.Builder](monitorBuilder)
	if !ok {
		return InvalidArgument
	}
	builder.AddDeadlineMonitor(lifecycle.MonitorTag(tag), mb)
	return OK
}

// HealthMonitorBuilderAddHeartbeatMonitor consumes the heartbeat
// monitor builder handle, it must not be used afterwards.
func HealthMonitorBuilderAddHeartbeatMonitor(h Handle, tag string, monitorBuilder Handle) Code {
	builder, ok := resolve[*health.Builder](h)
	if !ok {
		return InvalidArgument
	}
	mb, ok := release[*heartbeat.Builder](monitorBuilder)
	if !ok {
		return InvalidArgument
	}
	builder.AddHeartbeatMonitor(lifecycle.MonitorTag(tag), mb)
	return OK
}

// HealthMonitorBuilderBuild consumes the builder handle and returns a
// health monitor handle, or the zero handle on invalid cycles.
func HealthMonitorBuilderBuild(h Handle, supervisorCycleMs uint32, internalCycleMs uint32) Handle {
	builder, ok := release[*health.Builder](h)
	if !ok {
		return 0
	}
	if internalCycleMs == 0 || supervisorCycleMs == 0 || supervisorCycleMs%internalCycleMs != 0 {
		return 0
	}
	builder.WithSupervisorAPICycle(time.Duration(supervisorCycleMs) * time.Millisecond)
	builder.WithInternalProcessingCycle(time.Duration(internalCycleMs) * time.Millisecond)
	return export(builder.Build())
}

// --- deadline monitor builder ---

func DeadlineMonitorBuilderCreate() Handle {
	return export(deadline.NewBuilder())
}

func DeadlineMonitorBuilderDestroy(h Handle) Code {
	if _, ok := release[*deadline.Builder](h); !ok {
		return InvalidArgument
	}
	return OK
}

func DeadlineMonitorBuilderAddDeadline(h Handle, tag string, minMs uint32, maxMs uint32) Code {
	builder, ok := resolve[*deadline.Builder](h)
	if !ok {
		return InvalidArgument
	}
	if minMs > maxMs {
		return InvalidArgument
	}
	builder.AddDeadline(lifecycle.DeadlineTag(tag),
		lifecycle.NewTimeRange(time.Duration(minMs)*time.Millisecond, time.Duration(maxMs)*time.Millisecond))
	return OK
}

// --- heartbeat monitor builder ---

// HeartbeatMonitorBuilderCreate returns the zero handle on an inverted
// range.
func HeartbeatMonitorBuilderCreate(minMs uint32, maxMs uint32) Handle {
	if minMs > maxMs {
		return 0
	}
	rng := lifecycle.NewTimeRange(time.Duration(minMs)*time.Millisecond, time.Duration(maxMs)*time.Millisecond)
	return export(heartbeat.NewBuilder(rng))
}

func HeartbeatMonitorBuilderDestroy(h Handle) Code {
	if _, ok := release[*heartbeat.Builder](h); !ok {
		return InvalidArgument
	}
	return OK
}

// --- health monitor ---

func HealthMonitorDestroy(h Handle) Code {
	hm, ok := release[*health.HealthMonitor](h)
	if !ok {
		return InvalidArgument
	}
	hm.Stop()
	return OK
}

func HealthMonitorStart(h Handle) Code {
	hm, ok := resolve[*health.HealthMonitor](h)
	if !ok {
		return InvalidArgument
	}
	hm.Start()
	return OK
}

// HealthMonitorGetDeadlineMonitor returns the zero handle when the tag
// is unknown or the monitor was already taken.
func HealthMonitorGetDeadlineMonitor(h Handle, tag string) Handle {
	hm, ok := resolve[*health.HealthMonitor](h)
	if !ok {
		return 0
	}
	monitor := hm.GetDeadlineMonitor(lifecycle.MonitorTag(tag))
	if monitor == nil {
		return 0
	}
	return export(monitor)
}

// HealthMonitorGetHeartbeatMonitor returns the zero handle when the
// tag is unknown or the monitor was already taken.
func HealthMonitorGetHeartbeatMonitor(h Handle, tag string) Handle {
	hm, ok := resolve[*health.HealthMonitor](h)
	if !ok {
		return 0
	}
	monitor := hm.GetHeartbeatMonitor(lifecycle.MonitorTag(tag))
	if monitor == nil {
		return 0
	}
	return export(monitor)
}

// --- vended monitors ---

func DeadlineMonitorDestroy(h Handle) Code {
	if _, ok := release[*deadline.Monitor](h); !ok {
		return InvalidArgument
	}
	return OK
}

func DeadlineMonitorGetDeadline(h Handle, tag string) (Handle, Code) {
	monitor, ok := resolve[*deadline.Monitor](h)
	if !ok {
		return 0, InvalidArgument
	}
	d, err := monitor.GetDeadline(lifecycle.DeadlineTag(tag))
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		return 0, NotFound
	case errors.Is(err, lifecycle.ErrAlreadyTaken):
		return 0, AlreadyExists
	case err != nil:
		return 0, Failed
	}
	return export(d), OK
}

func HeartbeatMonitorDestroy(h Handle) Code {
	if _, ok := release[*heartbeat.Monitor](h); !ok {
		return InvalidArgument
	}
	return OK
}

func HeartbeatMonitorBeat(h Handle) Code {
	monitor, ok := resolve[*heartbeat.Monitor](h)
	if !ok {
		return InvalidArgument
	}
	monitor.Beat()
	return OK
}

// --- deadlines ---

func DeadlineDestroy(h Handle) Code {
	if _, ok := release[*deadline.Deadline](h); !ok {
		return InvalidArgument
	}
	return OK
}

func DeadlineStart(h Handle) Code {
	d, ok := resolve[*deadline.Deadline](h)
	if !ok {
		return InvalidArgument
	}
	if err := d.Start(); err != nil {
		return WrongState
	}
	return OK
}

func DeadlineStop(h Handle) Code {
	d, ok := resolve[*deadline.Deadline](h)
	if !ok {
		return InvalidArgument
	}
	if err := d.Stop(); err != nil {
		return WrongState
	}
	return OK
}
