//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName      = "org.freedesktop.Notifications"
	busPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = busName + ".Notify"
	closeMethod  = busName + ".CloseNotification"
)

// busNotifier talks to the session bus notification daemon.
type busNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus. Without one, notifications are
// silently dropped.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Nop(), nil //nolint:nilerr // no session bus means no notifications
	}
	return &busNotifier{obj: conn.Object(busName, busPath)}, nil
}

// hints maps a notification onto freedesktop hints.
func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}
	if n.Category != "" {
		h["category"] = dbus.MakeVariant(n.Category)
	}
	return h
}

// Notify implements Notifier.
func (n *busNotifier) Notify(notif Notification) (uint32, error) {
	// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout)
	call := n.obj.Call(notifyMethod, 0,
		appName,
		notif.ReplacesID,
		notif.Icon,
		notif.Title,
		notif.Body,
		[]string{},
		hints(notif),
		notif.Timeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify: read id: %w", err)
	}
	return id, nil
}

// Close implements Notifier.
func (n *busNotifier) Close(id uint32) error {
	if err := n.obj.Call(closeMethod, 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	return nil
}
