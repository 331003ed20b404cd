package health

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/deadline"
	"github.com/eclipse-score/lifecycle/pkg/heartbeat"
	"github.com/eclipse-score/lifecycle/pkg/supervisor"
)

// Per-monitor ownership handoff : a monitor is built Available and
// becomes Taken once its handle has been handed to the caller.
type ownership uint8

const (
	available = ownership(iota)
	taken
)

type deadlineEntry struct {
	state   ownership
	monitor *deadline.Monitor
}

type heartbeatEntry struct {
	state   ownership
	monitor *heartbeat.Monitor
}

// HealthMonitor owns the monitor registry and the evaluation worker.
type HealthMonitor struct {
	mu              sync.Mutex
	deadlines       map[lifecycle.MonitorTag]*deadlineEntry
	heartbeats      map[lifecycle.MonitorTag]*heartbeatEntry
	supervisorCycle time.Duration
	internalCycle   time.Duration
	client          supervisor.Client
	logger          *slog.Logger
	onError         lifecycle.EvalCallback
	worker          *worker
}

// GetDeadlineMonitor hands over the deadline monitor registered under
// tag. The handle is vended at most once, later calls return nil.
func (hm *HealthMonitor) GetDeadlineMonitor(tag lifecycle.MonitorTag) *deadline.Monitor {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	entry, ok := hm.deadlines[tag]
	if !ok || entry.state == taken {
		return nil
	}
	entry.state = taken
	return entry.monitor
}

// GetHeartbeatMonitor hands over the heartbeat monitor registered
// under tag. The handle is vended at most once, later calls return nil.
func (hm *HealthMonitor) GetHeartbeatMonitor(tag lifecycle.MonitorTag) *heartbeat.Monitor {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	entry, ok := hm.heartbeats[tag]
	if !ok || entry.state == taken {
		return nil
	}
	entry.state = taken
	return entry.monitor
}

// OnEvaluationError installs a custom sink for evaluation failures.
// Must be called before Start. The default sink logs a warning.
// Either way a failure inhibits the supervisor ping for its cycle.
func (hm *HealthMonitor) OnEvaluationError(cb lifecycle.EvalCallback) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.onError = cb
}

// Start launches the evaluation worker.
// Shall be called before the application reports itself running,
// otherwise the supervisor may consider the process not alive.
//
// Panics when no monitors were registered, or when a registered
// monitor was never taken : a configured but unacquired monitor would
// silently miss events.
func (hm *HealthMonitor) Start() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.worker != nil {
		panic("health monitor already started")
	}
	if len(hm.deadlines)+len(hm.heartbeats) == 0 {
		panic("no monitors have been added, health monitor cannot start without any monitors")
	}

	monitors := make([]taggedEvaluator, 0, len(hm.deadlines)+len(hm.heartbeats))
	for tag, entry := range hm.deadlines {
		if entry.state != taken {
			panic(fmt.Sprintf("all monitors must be taken before starting health monitor but %q is not taken", tag))
		}
		monitors = append(monitors, taggedEvaluator{tag: tag, eval: entry.monitor.EvalHandle()})
	}
	for tag, entry := range hm.heartbeats {
		if entry.state != taken {
			panic(fmt.Sprintf("all monitors must be taken before starting health monitor but %q is not taken", tag))
		}
		monitors = append(monitors, taggedEvaluator{tag: tag, eval: entry.monitor.EvalHandle()})
	}
	// Stable evaluation order across ticks.
	sort.Slice(monitors, func(i, j int) bool { return monitors[i].tag < monitors[j].tag })

	onError := hm.onError
	if onError == nil {
		logger := hm.logger
		onError = func(tag lifecycle.MonitorTag, err error) {
			logger.Warn("monitor evaluation failed", "tag", string(tag), "error", err)
		}
	}

	hm.worker = newWorker(monitors, hm.internalCycle, hm.supervisorCycle, hm.client, onError, hm.logger)
	hm.worker.Start(context.Background())
}

// Stop terminates the evaluation worker and waits for it to exit.
// The stop request ends the worker's wait for the next tick at once, a
// tick already in progress finishes first : shutdown latency is bounded
// by one internal cycle.
func (hm *HealthMonitor) Stop() {
	hm.mu.Lock()
	w := hm.worker
	hm.mu.Unlock()
	if w == nil {
		return
	}
	w.Stop()
	w.Wait()
}
