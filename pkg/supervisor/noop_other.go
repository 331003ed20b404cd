//go:build !linux

package supervisor

import "log/slog"

// New returns the watchdog client for this platform.
// No supervisor notification channel exists here, liveness is logged.
func New(logger *slog.Logger) Client {
	return NewNoop(logger)
}
