package health

import (
	"sync/atomic"
	"testing"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/deadline"
	"github.com/eclipse-score/lifecycle/pkg/heartbeat"
	"github.com/eclipse-score/lifecycle/pkg/supervisor"
	"github.com/stretchr/testify/assert"
)

func rangeFromMs(min int64, max int64) lifecycle.TimeRange {
	return lifecycle.NewTimeRange(time.Duration(min)*time.Millisecond, time.Duration(max)*time.Millisecond)
}

func TestBuildCycleNotMultiple(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().WithSupervisorAPICycle(50 * time.Millisecond).Build()
	})
}

func TestBuildNonPositiveCycle(t *testing.T) {
	assert.Panics(t, func() {
		NewBuilder().WithInternalProcessingCycle(0).Build()
	})
}

func TestStartWithoutMonitors(t *testing.T) {
	hm := NewBuilder().Build()
	assert.Panics(t, func() { hm.Start() })
}

func TestStartWithNotTakenMonitor(t *testing.T) {
	hm := NewBuilder().
		AddDeadlineMonitor("test_monitor", deadline.NewBuilder()).
		Build()
	assert.Panics(t, func() { hm.Start() })
}

func TestStartWithTakenMonitor(t *testing.T) {
	hm := NewBuilder().
		WithSupervisor(supervisor.NewRecorder()).
		AddDeadlineMonitor("test_monitor", deadline.NewBuilder()).
		Build()

	monitor := hm.GetDeadlineMonitor("test_monitor")
	assert.NotNil(t, monitor)

	hm.Start()
	defer hm.Stop()
}

func TestGetDeadlineMonitorVendedOnce(t *testing.T) {
	hm := NewBuilder().
		AddDeadlineMonitor("test_monitor", deadline.NewBuilder()).
		Build()

	assert.NotNil(t, hm.GetDeadlineMonitor("test_monitor"))
	assert.Nil(t, hm.GetDeadlineMonitor("test_monitor"))
	assert.Nil(t, hm.GetDeadlineMonitor("unknown"))
}

func TestGetHeartbeatMonitorVendedOnce(t *testing.T) {
	hm := NewBuilder().
		AddHeartbeatMonitor("test_monitor", heartbeat.NewBuilder(rangeFromMs(80, 120))).
		Build()

	assert.NotNil(t, hm.GetHeartbeatMonitor("test_monitor"))
	assert.Nil(t, hm.GetHeartbeatMonitor("test_monitor"))
	assert.Nil(t, hm.GetHeartbeatMonitor("unknown"))
}

func TestBuilderDuplicateTagOverwrites(t *testing.T) {
	hm := NewBuilder().
		AddDeadlineMonitor("test_monitor", deadline.NewBuilder().AddDeadline("first", rangeFromMs(0, 10))).
		AddDeadlineMonitor("test_monitor", deadline.NewBuilder().AddDeadline("second", rangeFromMs(0, 10))).
		Build()

	monitor := hm.GetDeadlineMonitor("test_monitor")
	assert.NotNil(t, monitor)
	_, err := monitor.GetDeadline("first")
	assert.Equal(t, lifecycle.ErrNotFound, err)
	_, err = monitor.GetDeadline("second")
	assert.Nil(t, err)
}

func TestStopBeforeStart(t *testing.T) {
	hm := NewBuilder().Build()
	hm.Stop()
}

func TestDoubleStartPanics(t *testing.T) {
	hm := NewBuilder().
		WithSupervisor(supervisor.NewRecorder()).
		AddDeadlineMonitor("test_monitor", deadline.NewBuilder()).
		Build()
	hm.GetDeadlineMonitor("test_monitor")
	hm.Start()
	defer hm.Stop()
	assert.Panics(t, func() { hm.Start() })
}

// Healthy heartbeats keep the supervisor pinged and never raise errors.
func TestHealthySystemKeepsAlive(t *testing.T) {
	recorder := supervisor.NewRecorder()
	hm := NewBuilder().
		WithInternalProcessingCycle(20*time.Millisecond).
		WithSupervisorAPICycle(40*time.Millisecond).
		WithSupervisor(recorder).
		AddHeartbeatMonitor("main-loop", heartbeat.NewBuilder(rangeFromMs(30, 70))).
		Build()

	var errCount atomic.Int32
	hm.OnEvaluationError(func(tag lifecycle.MonitorTag, err error) {
		errCount.Add(1)
	})

	monitor := hm.GetHeartbeatMonitor("main-loop")
	assert.NotNil(t, monitor)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 6; i++ {
			time.Sleep(50 * time.Millisecond)
			monitor.Beat()
		}
	}()

	hm.Start()
	<-done
	hm.Stop()

	assert.Equal(t, []time.Duration{40 * time.Millisecond}, recorder.Configured())
	assert.EqualValues(t, 0, errCount.Load())
	assert.GreaterOrEqual(t, recorder.KeepAliveCount(), 3)
}

// A monitor failure inhibits the supervisor ping for its window, the
// next clean window pings again.
func TestSupervisorGating(t *testing.T) {
	recorder := supervisor.NewRecorder()
	hm := NewBuilder().
		WithInternalProcessingCycle(25*time.Millisecond).
		WithSupervisorAPICycle(50*time.Millisecond).
		WithSupervisor(recorder).
		AddDeadlineMonitor("storage", deadline.NewBuilder().AddDeadline("flush", rangeFromMs(10, 40))).
		AddDeadlineMonitor("idle", deadline.NewBuilder().AddDeadline("unused", rangeFromMs(10, 40))).
		Build()

	var errCount atomic.Int32
	hm.OnEvaluationError(func(tag lifecycle.MonitorTag, err error) {
		assert.Equal(t, lifecycle.MonitorTag("storage"), tag)
		assert.Equal(t, lifecycle.ErrTooLate, err)
		errCount.Add(1)
	})

	storage := hm.GetDeadlineMonitor("storage")
	assert.NotNil(t, storage)
	assert.NotNil(t, hm.GetDeadlineMonitor("idle"))
	flush, err := storage.GetDeadline("flush")
	assert.Nil(t, err)

	start := time.Now()
	hm.Start()

	// Bracket a unit of work that blows its 40ms bound.
	assert.Nil(t, flush.Start())
	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, flush.Stop())

	// Let clean windows accumulate afterwards.
	time.Sleep(240 * time.Millisecond)
	hm.Stop()
	elapsed := time.Since(start)

	windows := int(elapsed / (50 * time.Millisecond))
	assert.GreaterOrEqual(t, errCount.Load(), int32(1))
	// At least one window was inhibited, and pings resumed afterwards.
	assert.Less(t, recorder.KeepAliveCount(), windows)
	assert.GreaterOrEqual(t, recorder.KeepAliveCount(), 1)
}
