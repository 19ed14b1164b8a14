// Package tui is the terminal front-end. It renders the cached profile
// snapshot and forwards focus, key and mouse events to the trigger
// coordinator so the cache revalidates itself while the user works.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/profile"
	"github.com/mmcdole/showtrack/internal/trigger"
	"github.com/mmcdole/showtrack/internal/tui/styles"
)

const (
	statusDuration = 4 * time.Second
	opTimeout      = 30 * time.Second
	// header, tabs, counts, blank, filter/status, help
	chromeHeight = 7
)

// Engine is the part of the profile container the view uses
type Engine interface {
	Snapshot() profile.Snapshot
	Reload(ctx context.Context) (profile.Snapshot, error)
	RemoveFavorite(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error
	UpdateWatchStatus(ctx context.Context, kind domain.ContentKind, profileID, contentID int, status domain.WatchStatus) error
	ShowWatchCounts() profile.WatchCounts
	MovieWatchCounts() profile.WatchCounts
	ContentByStreamingService() map[string]profile.ServiceGroup
}

// Triggers receives view events
type Triggers interface {
	Mount()
	OnFocus()
	OnInteraction(kind trigger.Interaction)
}

// Options wires the model to the engine
type Options struct {
	Engine        Engine
	Triggers      Triggers
	Snapshots     <-chan profile.Snapshot
	Notifications <-chan domain.Notification
	SignOut       func(ctx context.Context) error
	Logger        *slog.Logger
	Now           func() time.Time
}

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateConfirmLogout
	StateHelp
)

// Model is the main Bubble Tea model for the application
type Model struct {
	State ApplicationState

	engine    Engine
	triggers  Triggers
	snapshots <-chan profile.Snapshot
	notes     <-chan domain.Notification
	signOut   func(ctx context.Context) error
	logger    *slog.Logger
	now       func() time.Time

	snap profile.Snapshot
	tab  Tab
	list list

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	filter  textinput.Model

	Width  int
	Height int

	statusMsg   string
	statusLevel domain.NotificationLevel
	statusID    int
}

// NewModel creates the model with the engine's current snapshot
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styles.SpinnerStyle

	ti := textinput.New()
	ti.Prompt = styles.FilterPromptStyle.Render("/ ")
	ti.Placeholder = "filter titles"

	m := Model{
		engine:    opts.Engine,
		triggers:  opts.Triggers,
		snapshots: opts.Snapshots,
		notes:     opts.Notifications,
		signOut:   opts.SignOut,
		logger:    logger,
		now:       now,
		snap:      opts.Engine.Snapshot(),
		tab:       TabNext,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		filter:    ti,
	}
	m.refreshRows()
	return m
}

// Run starts the program and blocks until the user quits
func Run(opts Options) error {
	p := tea.NewProgram(
		NewModel(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	triggers := m.triggers
	return tea.Batch(
		m.spinner.Tick,
		waitForSnapshot(m.snapshots),
		waitForNotification(m.notes),
		func() tea.Msg {
			triggers.Mount()
			return nil
		},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.FocusMsg:
		m.triggers.OnFocus()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		m.triggers.OnInteraction(trigger.KeyDown)
		return m.handleKey(msg)

	case snapshotChangedMsg:
		m.snap = m.engine.Snapshot()
		m.refreshRows()
		m.triggers.Mount()
		return m, waitForSnapshot(m.snapshots)

	case notificationMsg:
		cmd := m.setStatus(msg.Note.Message, msg.Note.Level)
		return m, tea.Batch(cmd, waitForNotification(m.notes))

	case opDoneMsg:
		m.snap = m.engine.Snapshot()
		m.refreshRows()
		if msg.Err != nil {
			m.logger.Warn("operation failed", "op", msg.Verb, "error", msg.Err)
			cmd := m.setStatus(fmt.Sprintf("%s failed: %v", msg.Verb, msg.Err), domain.NotifyError)
			return m, cmd
		}
		return m, nil

	case signedOutMsg:
		text, level := "signed out", domain.NotifyInfo
		if msg.Err != nil {
			text, level = "logout failed: "+msg.Err.Error(), domain.NotifyError
		}
		cmd := m.setStatus(text, level)
		return m, cmd

	case clearStatusMsg:
		if msg.ID == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	ev := tea.MouseEvent(msg)
	if ev.Action != tea.MouseActionPress {
		return m, nil
	}
	if ev.IsWheel() {
		m.triggers.OnInteraction(trigger.Scroll)
		switch ev.Button {
		case tea.MouseButtonWheelUp:
			m.list.Move(-1)
		case tea.MouseButtonWheelDown:
			m.list.Move(1)
		}
		return m, nil
	}
	m.triggers.OnInteraction(trigger.PointerDown)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.State {
	case StateConfirmLogout:
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.State = StateBrowsing
			return m, m.signOutCmd()
		case key.Matches(msg, m.keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateHelp:
		m.State = StateBrowsing
		m.help.ShowAll = false
		return m, nil

	case StateFiltering:
		switch msg.Type {
		case tea.KeyEsc:
			m.State = StateBrowsing
			m.filter.Blur()
			m.filter.SetValue("")
			m.list.SetFilter("")
			return m, nil
		case tea.KeyEnter:
			m.State = StateBrowsing
			m.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.list.SetFilter(m.filter.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.State = StateHelp
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.Up):
		m.list.Move(-1)
	case key.Matches(msg, m.keys.Down):
		m.list.Move(1)
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
	case key.Matches(msg, m.keys.Filter):
		m.State = StateFiltering
		cmd := m.filter.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Escape):
		m.filter.SetValue("")
		m.list.SetFilter("")
	case key.Matches(msg, m.keys.Refresh):
		return m, m.reloadCmd()
	case key.Matches(msg, m.keys.Watched):
		return m, m.statusCmd(domain.WatchStatusWatched)
	case key.Matches(msg, m.keys.Watching):
		return m, m.statusCmd(domain.WatchStatusWatching)
	case key.Matches(msg, m.keys.Unwatched):
		return m, m.statusCmd(domain.WatchStatusNotWatched)
	case key.Matches(msg, m.keys.Unfavor):
		return m, m.unfavoriteCmd()
	case key.Matches(msg, m.keys.Logout):
		m.State = StateConfirmLogout
	}
	return m, nil
}

func (m *Model) switchTab(delta int) {
	i := (int(m.tab) + delta + len(tabs)) % len(tabs)
	m.tab = tabs[i]
	m.list = list{query: m.list.query}
	m.refreshRows()
}

func (m *Model) refreshRows() {
	var groups map[string]profile.ServiceGroup
	if m.tab == TabServices {
		groups = m.engine.ContentByStreamingService()
	}
	m.list.SetRows(buildRows(m.tab, m.snap, groups))
}

func (m *Model) setStatus(text string, level domain.NotificationLevel) tea.Cmd {
	m.statusID++
	m.statusMsg = text
	m.statusLevel = level
	return clearStatusCmd(m.statusID, statusDuration)
}

func (m Model) reloadCmd() tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, err := engine.Reload(ctx)
		return opDoneMsg{Verb: "refresh", Err: err}
	}
}

// selectedRecord returns the actionable row under the cursor
func (m Model) selectedRecord() (row, int, bool) {
	r, ok := m.list.Selected()
	if !ok || r.kind == "" || m.snap.Profile == nil {
		return row{}, 0, false
	}
	return r, m.snap.Profile.ID, true
}

func (m Model) statusCmd(status domain.WatchStatus) tea.Cmd {
	r, profileID, ok := m.selectedRecord()
	if !ok {
		return nil
	}
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := engine.UpdateWatchStatus(ctx, r.kind, profileID, r.id, status)
		return opDoneMsg{Verb: "mark " + strings.ToLower(status.String()), Err: err}
	}
}

func (m Model) unfavoriteCmd() tea.Cmd {
	r, profileID, ok := m.selectedRecord()
	if !ok {
		return nil
	}
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		err := engine.RemoveFavorite(ctx, r.kind, profileID, r.id)
		return opDoneMsg{Verb: "unfavorite", Err: err}
	}
}

func (m Model) signOutCmd() tea.Cmd {
	signOut := m.signOut
	if signOut == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return signedOutMsg{Err: signOut(ctx)}
	}
}

func (m Model) View() string {
	width := m.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderTabs())
	b.WriteByte('\n')
	b.WriteString(m.renderCounts())
	b.WriteString("\n\n")

	listHeight := m.Height - chromeHeight
	if m.Height <= 0 {
		listHeight = 20
	}
	b.WriteString(m.list.View(width, listHeight))
	b.WriteByte('\n')

	switch m.State {
	case StateFiltering:
		b.WriteString(m.filter.View())
	case StateConfirmLogout:
		b.WriteString(styles.AccentStyle.Render("Sign out and clear the local cache? (y/n)"))
	default:
		b.WriteString(m.renderStatus())
	}
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	left := styles.TitleStyle.Render("showtrack")
	if p := m.snap.Profile; p != nil {
		left += styles.SubtitleStyle.Render("  " + p.Name)
	} else {
		left += styles.DimStyle.Render("  no profile")
	}

	var right string
	switch {
	case m.snap.Loading:
		right = m.spinner.View() + styles.DimStyle.Render(" loading")
	case m.snap.LastUpdated != nil:
		right = styles.DimStyle.Render("updated " + ago(m.now().Sub(*m.snap.LastUpdated)))
	case m.snap.Profile != nil:
		right = styles.ErrorStyle.Render("stale")
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 2)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		if t == m.tab {
			parts[i] = styles.ActiveTabStyle.Render(t.String())
		} else {
			parts[i] = styles.InactiveTabStyle.Render(t.String())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderCounts() string {
	var counts profile.WatchCounts
	switch m.tab {
	case TabShows:
		counts = m.engine.ShowWatchCounts()
	case TabMovies:
		counts = m.engine.MovieWatchCounts()
	default:
		return styles.DimStyle.Render(fmt.Sprintf("%d shows · %d movies · %d up next",
			len(m.snap.Shows), len(m.snap.Movies), len(m.snap.NextWatch)))
	}
	return styles.DimStyle.Render(fmt.Sprintf("%d watched · %d watching · %d up to date · %d not watched · %d unaired",
		counts.Watched, counts.Watching, counts.UpToDate, counts.NotWatched, counts.Unaired))
}

func (m Model) renderStatus() string {
	if m.snap.Error != "" && m.statusMsg == "" {
		return styles.ErrorStyle.Render(m.snap.Error)
	}
	switch m.statusLevel {
	case domain.NotifyError, domain.NotifyWarning:
		return styles.ErrorStyle.Render(m.statusMsg)
	case domain.NotifySuccess:
		return styles.SuccessStyle.Render(m.statusMsg)
	default:
		return styles.InfoStyle.Render(m.statusMsg)
	}
}

func ago(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
