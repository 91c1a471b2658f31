//go:build !linux

package notify

import "log/slog"

// NewPlatform returns the log-backed notifier on platforms without a
// desktop notification transport wired in.
func NewPlatform(logger *slog.Logger) Notifier {
	return NewLogNotifier(logger)
}
