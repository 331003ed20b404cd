// Demo supervised application : runs a fake workload whose liveness is
// watched by a health monitor and reported to the process supervisor.
//
// Without a configuration file a built-in monitor set is used : one
// heartbeat monitor for the main loop and one deadline monitor
// bracketing a storage flush.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/config"
	"github.com/eclipse-score/lifecycle/pkg/deadline"
	"github.com/eclipse-score/lifecycle/pkg/health"
	"github.com/eclipse-score/lifecycle/pkg/heartbeat"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	beatPeriod time.Duration
	workTime   time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "supervised-app",
		Short: "Demo workload supervised by the health monitoring library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "monitor set INI file (optional)")
	rootCmd.Flags().DurationVarP(&beatPeriod, "period", "p", 100*time.Millisecond, "main loop period")
	rootCmd.Flags().DurationVarP(&workTime, "work", "w", 20*time.Millisecond, "simulated flush duration")

	if err := rootCmd.Execute(); err != nil {
		log.Errorf("exited with error : %v", err)
		os.Exit(1)
	}
}

func loadManifest() (*config.Manifest, error) {
	if configPath != "" {
		log.Infof("loading monitor set from %v", configPath)
		return config.Load(configPath, slog.Default())
	}
	builder := health.NewBuilder().
		AddHeartbeatMonitor("main-loop", heartbeat.NewBuilder(
			lifecycle.NewTimeRange(3*beatPeriod/4, 2*beatPeriod))).
		AddDeadlineMonitor("storage", deadline.NewBuilder().
			AddDeadline("flush", lifecycle.NewTimeRange(0, 2*workTime)))
	return &config.Manifest{
		Builder:    builder,
		Heartbeats: []lifecycle.MonitorTag{"main-loop"},
		DeadlineMonitors: map[lifecycle.MonitorTag][]lifecycle.DeadlineTag{
			"storage": {"flush"},
		},
	}, nil
}

func run() error {
	log.SetLevel(log.DebugLevel)

	manifest, err := loadManifest()
	if err != nil {
		return err
	}
	hm := manifest.Builder.Build()

	// Acquire every configured handle before starting.
	heartbeats := make([]*heartbeat.Monitor, 0, len(manifest.Heartbeats))
	for _, tag := range manifest.Heartbeats {
		heartbeats = append(heartbeats, hm.GetHeartbeatMonitor(tag))
	}
	deadlines := make([]*deadline.Deadline, 0)
	for monitorTag, deadlineTags := range manifest.DeadlineMonitors {
		monitor := hm.GetDeadlineMonitor(monitorTag)
		for _, tag := range deadlineTags {
			d, err := monitor.GetDeadline(tag)
			if err != nil {
				return err
			}
			deadlines = append(deadlines, d)
		}
	}

	hm.Start()
	defer hm.Stop()
	log.Info("health monitoring started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(beatPeriod)
	defer ticker.Stop()

	iteration := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("termination requested, shutting down")
			return nil
		case <-ticker.C:
			iteration++
			// Bracket the slow work every few loops so the evaluator has
			// observed the previous completion.
			if iteration%5 == 0 {
				for _, d := range deadlines {
					if err := d.Start(); err != nil {
						log.Warnf("deadline start rejected : %v", err)
					}
				}
				time.Sleep(workTime)
				for _, d := range deadlines {
					if err := d.Stop(); err != nil {
						log.Warnf("deadline stop rejected : %v", err)
					}
				}
			}
			for _, monitor := range heartbeats {
				monitor.Beat()
			}
		}
	}
}
