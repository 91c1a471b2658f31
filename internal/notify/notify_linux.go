//go:build linux

package notify

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyMethod    = "org.freedesktop.Notifications.Notify"
	notifyTimeoutMS = 5000
)

// DBusNotifier sends desktop notifications over the session bus.
type DBusNotifier struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewPlatform returns a desktop notifier backed by D-Bus, falling back to
// the log when no session bus is reachable.
func NewPlatform(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Warn("session bus unavailable, notifications go to the log", "error", err)
		return NewLogNotifier(logger)
	}
	return &DBusNotifier{conn: conn, logger: logger.With("component", "notify")}
}

// Notify raises a desktop notification. Delivery is fire-and-forget on a
// separate goroutine; failures are logged and dropped.
func (n *DBusNotifier) Notify(title, body string) {
	go func() {
		obj := n.conn.Object(notifyService, notifyPath)
		call := obj.Call(notifyMethod, 0,
			"expandd",          // app name
			uint32(0),          // replaces id
			"",                 // icon
			title, body,        // summary, body
			[]string{},         // actions
			map[string]dbus.Variant{}, // hints
			int32(notifyTimeoutMS),
		)
		if call.Err != nil {
			n.logger.Warn("desktop notification failed",
				"title", title, "error", call.Err)
		}
	}()
}
