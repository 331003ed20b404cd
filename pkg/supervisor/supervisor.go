// Package supervisor carries aggregate liveness to the external
// process supervisor. The concrete carrier is selected at compile
// time : systemd watchdog notifications on Linux, a logging stub
// elsewhere.
package supervisor

import (
	"log/slog"
	"time"
)

// Client is the capability used by the health monitor worker :
// Configure once at worker start, then KeepAlive once per successful
// supervisor cycle.
type Client interface {
	Configure(minInterval time.Duration) error
	KeepAlive() error
}

// NewNoop returns a client that only logs, for targets without a
// supervisor notification channel.
func NewNoop(logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &noopClient{logger: logger.With("service", "[SUP]")}
}

type noopClient struct {
	logger *slog.Logger
}

func (c *noopClient) Configure(minInterval time.Duration) error {
	c.logger.Info("configuring supervisor stub", "minInterval", minInterval)
	return nil
}

func (c *noopClient) KeepAlive() error {
	c.logger.Debug("keep alive")
	return nil
}
