package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/log"
	"github.com/mmcdole/showtrack/internal/profile"
	"github.com/mmcdole/showtrack/internal/trigger"
)

type statusUpdate struct {
	kind      domain.ContentKind
	profileID int
	contentID int
	status    domain.WatchStatus
}

type fakeEngine struct {
	snap    profile.Snapshot
	mu      sync.Mutex
	updates []statusUpdate
	removed []int
	reloads int
	opErr   error
}

func (f *fakeEngine) Snapshot() profile.Snapshot { return f.snap }

func (f *fakeEngine) Reload(context.Context) (profile.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.snap, f.opErr
}

func (f *fakeEngine) RemoveFavorite(_ context.Context, _ domain.ContentKind, _, contentID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, contentID)
	return f.opErr
}

func (f *fakeEngine) UpdateWatchStatus(_ context.Context, kind domain.ContentKind, profileID, contentID int, status domain.WatchStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{kind, profileID, contentID, status})
	return f.opErr
}

func (f *fakeEngine) ShowWatchCounts() profile.WatchCounts  { return profile.WatchCounts{Watched: 1} }
func (f *fakeEngine) MovieWatchCounts() profile.WatchCounts { return profile.WatchCounts{} }

func (f *fakeEngine) ContentByStreamingService() map[string]profile.ServiceGroup {
	return map[string]profile.ServiceGroup{"Max": {TotalCount: 2}}
}

type fakeTriggers struct {
	mounts       int
	focuses      int
	interactions []trigger.Interaction
}

func (f *fakeTriggers) Mount()   { f.mounts++ }
func (f *fakeTriggers) OnFocus() { f.focuses++ }
func (f *fakeTriggers) OnInteraction(kind trigger.Interaction) {
	f.interactions = append(f.interactions, kind)
}

func testSnapshot() profile.Snapshot {
	updated := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	return profile.Snapshot{
		Profile: &domain.Profile{ID: 1, AccountID: 1, Name: "Kyle"},
		Shows: []domain.Show{
			{ID: 7, Title: "Severance", WatchStatus: domain.WatchStatusWatching},
			{ID: 8, Title: "The Bear", WatchStatus: domain.WatchStatusNotWatched},
		},
		Movies:      []domain.Movie{{ID: 42, Title: "Dune"}},
		NextWatch:   []domain.NextWatchEpisode{{ShowID: 7, ShowTitle: "Severance", SeasonNumber: 2, EpisodeNumber: 3}},
		LastUpdated: &updated,
	}
}

func newTestModel(t *testing.T) (Model, *fakeEngine, *fakeTriggers) {
	t.Helper()
	engine := &fakeEngine{snap: testSnapshot()}
	triggers := &fakeTriggers{}
	m := NewModel(Options{Engine: engine, Triggers: triggers, Logger: log.NullLogger()})
	return m, engine, triggers
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestFocusTriggersCheck(t *testing.T) {
	m, _, triggers := newTestModel(t)

	update(t, m, tea.FocusMsg{})

	assert.Equal(t, 1, triggers.focuses)
}

func TestInputRecordsActivity(t *testing.T) {
	m, _, triggers := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(t, m, tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	update(t, m, tea.MouseMsg{Action: tea.MouseActionMotion})

	assert.Equal(t, []trigger.Interaction{trigger.KeyDown, trigger.PointerDown, trigger.Scroll}, triggers.interactions)
}

func TestSnapshotChangeRemounts(t *testing.T) {
	m, engine, triggers := newTestModel(t)
	engine.snap.NextWatch = nil

	m, _ = update(t, m, snapshotChangedMsg{})

	assert.Equal(t, 1, triggers.mounts)
	assert.Zero(t, m.list.Len())
}

func TestSnapshotChangeShowsLatestState(t *testing.T) {
	ch := make(chan profile.Snapshot, 1)
	obs := NewChannelObserver(ch)
	engine := &fakeEngine{snap: testSnapshot()}
	m := NewModel(Options{Engine: engine, Triggers: &fakeTriggers{}, Snapshots: ch, Logger: log.NullLogger()})

	// A reload begins, then a second one commits before the view wakes up
	loading := testSnapshot()
	loading.Loading = true
	obs.OnChange(loading)
	engine.snap.Loading = false
	engine.snap.Shows = engine.snap.Shows[:1]
	obs.OnChange(engine.snap)

	msg := waitForSnapshot(ch)()
	m, _ = update(t, m, msg)

	assert.False(t, m.snap.Loading)
	assert.Len(t, m.snap.Shows, 1)
	assert.NotContains(t, m.View(), "loading")
}

func TestOpDoneRereadsEngine(t *testing.T) {
	m, engine, _ := newTestModel(t)
	engine.snap.Movies = nil

	m, _ = update(t, m, opDoneMsg{Verb: "refresh"})

	assert.Empty(t, m.snap.Movies)
}

func TestMarkWatchedOnShowsTab(t *testing.T) {
	m, engine, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, TabShows, m.tab)
	m, _ = update(t, m, runeKey('j'))

	_, cmd := update(t, m, runeKey('w'))
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, opDoneMsg{Verb: "mark watched"}, msg)
	require.Len(t, engine.updates, 1)
	assert.Equal(t, statusUpdate{domain.KindShow, 1, 8, domain.WatchStatusWatched}, engine.updates[0])
}

func TestUnfavoriteMovie(t *testing.T) {
	m, engine, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, TabMovies, m.tab)

	_, cmd := update(t, m, runeKey('x'))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, []int{42}, engine.removed)
}

func TestServicesRowsAreNotActionable(t *testing.T) {
	m, engine, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, TabServices, m.tab)

	_, cmd := update(t, m, runeKey('w'))

	assert.Nil(t, cmd)
	assert.Empty(t, engine.updates)
}

func TestFilter(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, runeKey('/'))
	require.Equal(t, StateFiltering, m.State)

	for _, r := range "bear" {
		m, _ = update(t, m, runeKey(r))
	}
	require.Equal(t, 1, m.list.Len())
	sel, ok := m.list.Selected()
	require.True(t, ok)
	assert.Equal(t, "The Bear", sel.title)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateBrowsing, m.State)
	assert.Equal(t, 2, m.list.Len())
}

func TestLogoutNeedsConfirmation(t *testing.T) {
	m, _, _ := newTestModel(t)
	var signedOut bool
	m.signOut = func(context.Context) error {
		signedOut = true
		return nil
	}

	m, cmd := update(t, m, runeKey('L'))
	assert.Nil(t, cmd)
	assert.Equal(t, StateConfirmLogout, m.State)

	m, _ = update(t, m, runeKey('n'))
	assert.Equal(t, StateBrowsing, m.State)

	m, _ = update(t, m, runeKey('L'))
	_, cmd = update(t, m, runeKey('y'))
	require.NotNil(t, cmd)
	assert.Equal(t, signedOutMsg{}, cmd())
	assert.True(t, signedOut)
}

func TestNotificationShownAndCleared(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = update(t, m, notificationMsg{Note: domain.Notification{Level: domain.NotifySuccess, Message: "Dune favorited"}})
	assert.Contains(t, m.View(), "Dune favorited")

	m, _ = update(t, m, clearStatusMsg{ID: m.statusID})
	assert.NotContains(t, m.View(), "Dune favorited")
}

func TestViewShowsProfileAndTabs(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()

	assert.Contains(t, view, "Kyle")
	assert.Contains(t, view, "Up Next")
	assert.Contains(t, view, "Severance")
	assert.Contains(t, view, "S02E03")
}

func TestChannelObserverKeepsNewest(t *testing.T) {
	ch := make(chan profile.Snapshot, 1)
	obs := NewChannelObserver(ch)

	obs.OnChange(profile.Snapshot{Loading: true})
	obs.OnChange(profile.Snapshot{Error: "committed"})

	require.Len(t, ch, 1)
	got := <-ch
	assert.False(t, got.Loading)
	assert.Equal(t, "committed", got.Error)
}

func TestChannelObserverDoesNotBlockWithoutBuffer(t *testing.T) {
	obs := NewChannelObserver(make(chan profile.Snapshot))

	obs.OnChange(profile.Snapshot{})
}
