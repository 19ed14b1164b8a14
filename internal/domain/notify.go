package domain

// NotificationLevel is the severity of a user-facing message
type NotificationLevel string

const (
	NotifySuccess NotificationLevel = "success"
	NotifyInfo    NotificationLevel = "info"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is a short message shown to the user (toast)
type Notification struct {
	Level   NotificationLevel
	Message string
}

// Notifier delivers user-facing messages. Calls are fire-and-forget and
// must not block.
type Notifier interface {
	Notify(n Notification)
}

// NoOpNotifier discards notifications (for testing/batch operations).
type NoOpNotifier struct{}

func (NoOpNotifier) Notify(Notification) {}
