package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/supervisor"
)

type taggedEvaluator struct {
	tag  lifecycle.MonitorTag
	eval lifecycle.Evaluator
}

// worker is the single evaluation thread of a health monitor. It wakes
// every internal cycle, evaluates every monitor, and on a coarser
// supervisor cycle pings the supervisor when the whole window stayed
// clean.
type worker struct {
	logger          *slog.Logger
	monitors        []taggedEvaluator
	client          supervisor.Client
	cycle           time.Duration
	supervisorCycle time.Duration
	onError         lifecycle.EvalCallback
	cancel          context.CancelFunc
	wg              sync.WaitGroup
}

func newWorker(
	monitors []taggedEvaluator,
	cycle time.Duration,
	supervisorCycle time.Duration,
	client supervisor.Client,
	onError lifecycle.EvalCallback,
	logger *slog.Logger,
) *worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &worker{
		logger:          logger.With("service", "[WORKER]"),
		monitors:        monitors,
		client:          client,
		cycle:           cycle,
		supervisorCycle: supervisorCycle,
		onError:         onError,
	}
}

// Start evaluation processing, this will be run inside of a go routine.
// Call Stop() to stop processing or cancel the context.
// Call Wait() to wait for end of execution.
func (w *worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Stop evaluation processing.
// Wait should be called in order to make sure the routine has exited.
func (w *worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// Wait for processing to finish (blocking).
func (w *worker) Wait() {
	w.wg.Wait()
}

func (w *worker) run(ctx context.Context) {
	// The health monitor starting point anchors every evaluation.
	hmonStart := time.Now()

	if err := w.client.Configure(w.supervisorCycle); err != nil {
		w.logger.Error("supervisor configuration failed", "error", err)
	}

	ticksPerWindow := int(w.supervisorCycle / w.cycle)
	ticks := 0
	windowErrored := false

	ticker := time.NewTicker(w.cycle)
	defer ticker.Stop()
	w.logger.Info("starting evaluation worker",
		"internalCycle", w.cycle, "supervisorCycle", w.supervisorCycle, "monitors", len(w.monitors))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("exited evaluation worker")
			return
		case <-ticker.C:
			tickErrored := false
			onError := func(tag lifecycle.MonitorTag, err error) {
				tickErrored = true
				w.onError(tag, err)
			}
			// Every monitor is evaluated every tick, an error never
			// short-circuits the remaining monitors.
			for _, monitor := range w.monitors {
				monitor.eval.Evaluate(hmonStart, onError)
			}
			if tickErrored {
				windowErrored = true
			}

			ticks++
			if ticks >= ticksPerWindow {
				if !windowErrored {
					if err := w.client.KeepAlive(); err != nil {
						w.logger.Error("keep alive failed", "error", err)
					}
				}
				ticks = 0
				windowErrored = false
			}
		}
	}
}
