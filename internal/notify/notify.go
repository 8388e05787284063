// Package notify provides desktop notifications via D-Bus.
package notify

import "fmt"

const (
	appName      = "Rhythm"
	desktopEntry = "rhythm"
	appIcon      = "software-update-available"

	// CategoryUpdate tags release announcements.
	CategoryUpdate = "x-rhythm.update"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
	Category   string  // freedesktop category hint (optional)
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// UpdateAvailable builds the notification announcing a new release.
func UpdateAvailable(version, url string) Notification {
	body := "A new version is ready to download."
	if url != "" {
		body = fmt.Sprintf(`<a href="%s">%s</a>`, url, url)
	}
	return Notification{
		Title:    fmt.Sprintf("%s %s available", appName, version),
		Body:     body,
		Icon:     appIcon,
		Timeout:  -1,
		Urgency:  UrgencyNormal,
		Category: CategoryUpdate,
	}
}

// Nop returns a notifier that discards everything.
func Nop() Notifier {
	return &stubNotifier{}
}
