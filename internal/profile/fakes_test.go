package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/log"
	"github.com/mmcdole/showtrack/internal/store"
)

var errNetwork = errors.New("network unreachable")

type statusCall struct {
	kind      domain.ContentKind
	contentID int
	status    domain.WatchStatus
	recursive bool
}

// fakeRepo is a scriptable domain.ProfileRepository.
type fakeRepo struct {
	mu sync.Mutex

	fetch       func(ctx context.Context, accountID, profileID int) (*domain.ProfileBundle, error)
	bundleCalls int

	next    []domain.NextWatchEpisode
	nextErr error

	addResult    *domain.FavoriteResult
	addErr       error
	removeResult *domain.FavoriteResult
	removeErr    error
	statusErr    error
	statusCalls  []statusCall
	statusGate   func() // runs after the call is recorded, before it returns
}

func (f *fakeRepo) FetchProfileBundle(ctx context.Context, accountID, profileID int) (*domain.ProfileBundle, error) {
	f.mu.Lock()
	f.bundleCalls++
	fetch := f.fetch
	f.mu.Unlock()
	return fetch(ctx, accountID, profileID)
}

func (f *fakeRepo) FetchNextWatchEpisodes(context.Context, int, int) ([]domain.NextWatchEpisode, error) {
	return f.next, f.nextErr
}

func (f *fakeRepo) AddFavorite(context.Context, int, int, domain.ContentKind, int) (*domain.FavoriteResult, error) {
	return f.addResult, f.addErr
}

func (f *fakeRepo) RemoveFavorite(context.Context, int, int, domain.ContentKind, int) (*domain.FavoriteResult, error) {
	return f.removeResult, f.removeErr
}

func (f *fakeRepo) UpdateWatchStatus(_ context.Context, _, _ int, kind domain.ContentKind, contentID int, status domain.WatchStatus, recursive bool) error {
	f.mu.Lock()
	f.statusCalls = append(f.statusCalls, statusCall{kind, contentID, status, recursive})
	gate, err := f.statusGate, f.statusErr
	f.mu.Unlock()
	if gate != nil {
		gate()
	}
	return err
}

func (f *fakeRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bundleCalls
}

func returnBundle(b *domain.ProfileBundle) func(context.Context, int, int) (*domain.ProfileBundle, error) {
	return func(context.Context, int, int) (*domain.ProfileBundle, error) { return b, nil }
}

// gatedFetch blocks each call until release is closed, signalling started first.
func gatedFetch(b *domain.ProfileBundle, started chan<- struct{}, release <-chan struct{}) func(context.Context, int, int) (*domain.ProfileBundle, error) {
	return func(context.Context, int, int) (*domain.ProfileBundle, error) {
		started <- struct{}{}
		<-release
		return b, nil
	}
}

// profileFetch blocks like gatedFetch and returns sampleBundle relabelled
// with the requested ids.
func profileFetch(started chan<- pairing, release <-chan struct{}) func(context.Context, int, int) (*domain.ProfileBundle, error) {
	return func(_ context.Context, accountID, profileID int) (*domain.ProfileBundle, error) {
		started <- pairing{accountID, profileID}
		<-release
		b := sampleBundle()
		b.Profile = domain.Profile{ID: profileID, AccountID: accountID, Name: fmt.Sprintf("profile %d", profileID)}
		return b, nil
	}
}

// gate returns a func that signals started and blocks until release closes.
func gate(started chan<- struct{}, release <-chan struct{}) func() {
	return func() {
		started <- struct{}{}
		<-release
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (r *recordingNotifier) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.got))
	for i, n := range r.got {
		out[i] = n.Message
	}
	return out
}

type harness struct {
	repo     *fakeRepo
	kv       *store.KVStore
	clock    *fakeClock
	notifier *recordingNotifier
	c        *Container
}

func newHarness(t *testing.T, bundle *domain.ProfileBundle) *harness {
	t.Helper()
	kv, err := store.Open("")
	require.NoError(t, err)
	h := &harness{
		repo:     &fakeRepo{fetch: returnBundle(bundle)},
		kv:       kv,
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
	}
	h.c = NewContainer(h.repo, kv, h.notifier, log.NullLogger(), WithClock(h.clock.Now))
	return h
}

// loaded returns a harness whose container already holds sampleBundle.
func loaded(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, sampleBundle())
	_, err := h.c.Load(context.Background(), 1, 1)
	require.NoError(t, err)
	return h
}

func sampleBundle() *domain.ProfileBundle {
	return &domain.ProfileBundle{
		Profile: domain.Profile{ID: 1, AccountID: 1, Name: "Kyle"},
		Shows: []domain.Show{
			{
				ID: 7, Title: "Show A", Network: "HBO",
				Genres: []string{"Drama", "Crime"}, StreamingServices: []string{"Max"},
				WatchStatus: domain.WatchStatusWatched, SeasonCount: 5, EpisodeCount: 62,
			},
			{
				ID: 8, Title: "Show B",
				Genres: []string{"Comedy", "Drama"}, StreamingServices: []string{"Netflix", "Hulu"},
				WatchStatus: domain.WatchStatusNotWatched,
			},
		},
		Movies: []domain.Movie{
			{
				ID: 40, Title: "Arrival", Genres: []string{"Science Fiction"},
				StreamingServices: []string{"Netflix"}, WatchStatus: domain.WatchStatusWatched,
			},
			{
				ID: 41, Title: "Heat", Genres: []string{"Crime", "Thriller"},
				StreamingServices: []string{"Max"}, WatchStatus: domain.WatchStatusNotWatched,
			},
		},
		NextWatch: []domain.NextWatchEpisode{
			{ShowID: 8, ShowTitle: "Show B", EpisodeID: 801, SeasonNumber: 1, EpisodeNumber: 1},
		},
		RecentMovies:   []int{40},
		UpcomingMovies: []int{},
	}
}
