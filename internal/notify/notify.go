package notify

import (
	"context"
	"log/slog"

	"github.com/mmcdole/showtrack/internal/domain"
)

// Logger writes notifications to a structured logger. Used by the CLI
// commands, where there is no toast area to render into.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a log-backed notifier.
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Notify(n domain.Notification) {
	level := slog.LevelInfo
	switch n.Level {
	case domain.NotifyWarning:
		level = slog.LevelWarn
	case domain.NotifyError:
		level = slog.LevelError
	}
	l.logger.Log(context.Background(), level, n.Message, "kind", "notification", "severity", string(n.Level))
}

// Channel adapts domain.Notifier to a channel for Bubble Tea.
type Channel struct {
	ch chan<- domain.Notification
}

// NewChannel creates a new channel-based notifier.
func NewChannel(ch chan<- domain.Notification) *Channel {
	return &Channel{ch: ch}
}

// Notify sends to the channel (non-blocking if full).
func (c *Channel) Notify(n domain.Notification) {
	select {
	case c.ch <- n:
	default: // Non-blocking if channel full
	}
}

// Multi delivers each notification to every notifier in order.
type Multi []domain.Notifier

func (m Multi) Notify(n domain.Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}
