package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/profile"
)

// snapshotChangedMsg signals that the container committed a change. The
// model re-reads the container rather than trusting the queued copy.
type snapshotChangedMsg struct{}

// notificationMsg carries a toast from the notifier
type notificationMsg struct {
	Note domain.Notification
}

// opDoneMsg reports the result of a user-initiated operation
type opDoneMsg struct {
	Verb string
	Err  error
}

// clearStatusMsg clears the status bar if it still shows the given message
type clearStatusMsg struct {
	ID int
}

// signedOutMsg signals that the session was cleared
type signedOutMsg struct {
	Err error
}

func waitForSnapshot(ch <-chan profile.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return snapshotChangedMsg{}
	}
}

func waitForNotification(ch <-chan domain.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg{Note: n}
	}
}

func clearStatusCmd(id int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return clearStatusMsg{ID: id}
	})
}
