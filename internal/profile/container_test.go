package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/log"
	"github.com/mmcdole/showtrack/internal/store"
)

func TestLoad_PopulatesSnapshot(t *testing.T) {
	bundle := &domain.ProfileBundle{
		Profile: domain.Profile{ID: 1, AccountID: 1, Name: "Kyle"},
		Shows: []domain.Show{
			{ID: 1, Title: "Show A", Genres: []string{"Drama"}, WatchStatus: domain.WatchStatusWatched},
			{ID: 2, Title: "Show B", Genres: []string{"Comedy", "Drama"}, WatchStatus: domain.WatchStatusNotWatched},
		},
	}
	h := newHarness(t, bundle)
	require.Nil(t, h.c.Snapshot().LastUpdated)

	snap, err := h.c.Load(context.Background(), 1, 1)
	require.NoError(t, err)

	assert.Len(t, snap.Shows, 2)
	assert.Equal(t, []string{"Comedy", "Drama"}, snap.ShowGenres)
	require.NotNil(t, snap.LastUpdated)
	assert.True(t, snap.LastUpdated.Equal(h.clock.Now()))
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.True(t, snap.HasProfile())

	_, persisted := h.kv.Get(domain.KeyActiveProfile)
	assert.True(t, persisted, "successful load should persist the snapshot")
}

func TestLoad_FailureKeepsContentAndClearsLastUpdated(t *testing.T) {
	h := loaded(t)
	before := h.c.Snapshot()

	h.repo.fetch = func(context.Context, int, int) (*domain.ProfileBundle, error) {
		return nil, domain.ErrServerOffline
	}
	snap, err := h.c.Load(context.Background(), 1, 1)

	require.ErrorIs(t, err, domain.ErrServerOffline)
	assert.Equal(t, before.Shows, snap.Shows)
	assert.Equal(t, before.Movies, snap.Movies)
	assert.NotEmpty(t, snap.Error)
	assert.Nil(t, snap.LastUpdated)
	assert.False(t, snap.Loading)

	// The durable copy must not claim freshness either
	reopened := NewContainer(h.repo, h.kv, nil, log.NullLogger())
	assert.Nil(t, reopened.Snapshot().LastUpdated)
	assert.Len(t, reopened.Snapshot().Shows, 2)
}

func TestLoad_SetsLoadingWhileInFlight(t *testing.T) {
	h := newHarness(t, nil)
	started, release := make(chan struct{}, 1), make(chan struct{})
	h.repo.fetch = gatedFetch(sampleBundle(), started, release)

	done := make(chan error, 1)
	go func() {
		_, err := h.c.Load(context.Background(), 1, 1)
		done <- err
	}()

	<-started
	assert.True(t, h.c.Snapshot().Loading)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.c.Snapshot().Loading)
}

func TestReload_NoActiveProfile(t *testing.T) {
	h := newHarness(t, sampleBundle())

	snap, err := h.c.Reload(context.Background())

	require.ErrorIs(t, err, domain.ErrNoActiveProfile)
	assert.Equal(t, 0, h.repo.calls(), "no network call without a profile")
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
}

func TestReload_UsesActiveProfile(t *testing.T) {
	h := loaded(t)
	var gotAccount, gotProfile int
	h.repo.fetch = func(_ context.Context, accountID, profileID int) (*domain.ProfileBundle, error) {
		gotAccount, gotProfile = accountID, profileID
		return sampleBundle(), nil
	}
	h.clock.Advance(time.Minute)

	snap, err := h.c.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, gotAccount)
	assert.Equal(t, 1, gotProfile)
	assert.True(t, snap.LastUpdated.Equal(h.clock.Now()))
}

func TestReload_DiscardedAfterSignOut(t *testing.T) {
	h := loaded(t)
	started, release := make(chan struct{}, 1), make(chan struct{})
	h.repo.fetch = gatedFetch(sampleBundle(), started, release)

	done := make(chan error, 1)
	go func() {
		_, err := h.c.Reload(context.Background())
		done <- err
	}()

	<-started
	h.c.SignOut()
	close(release)

	require.ErrorIs(t, <-done, ErrSuperseded)
	snap := h.c.Snapshot()
	assert.Nil(t, snap.Profile)
	assert.Empty(t, snap.Shows)
	assert.Nil(t, snap.LastUpdated)
	assert.False(t, snap.Loading)
	_, persisted := h.kv.Get(domain.KeyActiveProfile)
	assert.False(t, persisted, "sign-out must not be undone by a late reload")
}

func TestLoad_OverlappingLoadsKeepNewest(t *testing.T) {
	h := newHarness(t, nil)

	slowStarted, slowRelease := make(chan struct{}, 1), make(chan struct{})
	older := sampleBundle()
	older.Shows = older.Shows[:1]
	h.repo.fetch = gatedFetch(older, slowStarted, slowRelease)

	slowDone := make(chan error, 1)
	go func() {
		_, err := h.c.Load(context.Background(), 1, 1)
		slowDone <- err
	}()
	<-slowStarted

	h.repo.mu.Lock()
	h.repo.fetch = returnBundle(sampleBundle())
	h.repo.mu.Unlock()
	_, err := h.c.Load(context.Background(), 1, 1)
	require.NoError(t, err)

	close(slowRelease)
	require.ErrorIs(t, <-slowDone, ErrSuperseded)
	assert.Len(t, h.c.Snapshot().Shows, 2, "older response must not overwrite the newer one")
}

func TestLoad_StorageFailureIsNotFatal(t *testing.T) {
	kv, err := store.Open("")
	require.NoError(t, err)
	repo := &fakeRepo{fetch: returnBundle(sampleBundle())}
	c := NewContainer(repo, brokenStore{kv}, nil, log.NullLogger())

	snap, err := c.Load(context.Background(), 1, 1)

	require.NoError(t, err)
	assert.Len(t, snap.Shows, 2)
	assert.NotNil(t, snap.LastUpdated)
}

type brokenStore struct{ domain.KeyValueStore }

func (brokenStore) Set(string, []byte) error { return errors.New("quota exceeded") }

func TestNewContainer_Rehydrates(t *testing.T) {
	h := loaded(t)

	c := NewContainer(h.repo, h.kv, nil, log.NullLogger())
	snap := c.Snapshot()

	require.NotNil(t, snap.Profile)
	assert.Equal(t, 1, snap.Profile.ID)
	assert.Len(t, snap.Shows, 2)
	assert.Equal(t, []string{"Comedy", "Crime", "Drama"}, snap.ShowGenres)
	require.NotNil(t, snap.LastUpdated)
	assert.False(t, snap.Loading)
}

func TestNewContainer_DropsCorruptCache(t *testing.T) {
	kv, err := store.Open("")
	require.NoError(t, err)
	require.NoError(t, kv.Set(domain.KeyActiveProfile, []byte("{not json")))

	c := NewContainer(&fakeRepo{}, kv, nil, log.NullLogger())

	assert.Nil(t, c.Snapshot().Profile)
	_, ok := kv.Get(domain.KeyActiveProfile)
	assert.False(t, ok)
}

func TestPersistedFormatOmitsTransientFields(t *testing.T) {
	h := loaded(t)
	raw, ok := h.kv.Get(domain.KeyActiveProfile)
	require.True(t, ok)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "shows")
	assert.Contains(t, fields, "lastUpdated")
	assert.NotContains(t, fields, "Loading")
	assert.NotContains(t, fields, "ShowGenres")
}

func TestSignOut_ClearsEverything(t *testing.T) {
	h := loaded(t)

	h.c.SignOut()

	snap := h.c.Snapshot()
	assert.Nil(t, snap.Profile)
	assert.Nil(t, snap.Shows)
	assert.Nil(t, snap.ShowGenres)
	assert.Nil(t, snap.LastUpdated)
	_, ok := h.kv.Get(domain.KeyActiveProfile)
	assert.False(t, ok)
}

func TestSnapshot_IsACopy(t *testing.T) {
	h := loaded(t)

	snap := h.c.Snapshot()
	snap.Shows[0].Title = "mutated"
	snap.Shows[0].Genres[0] = "mutated"
	snap.Profile.Name = "mutated"

	again := h.c.Snapshot()
	assert.Equal(t, "Show A", again.Shows[0].Title)
	assert.Equal(t, "Drama", again.Shows[0].Genres[0])
	assert.Equal(t, "Kyle", again.Profile.Name)
}

func TestReloadNextWatchEpisodes(t *testing.T) {
	h := loaded(t)
	h.repo.next = []domain.NextWatchEpisode{
		{ShowID: 7, ShowTitle: "Show A", EpisodeID: 9001, SeasonNumber: 6, EpisodeNumber: 1},
	}
	h.clock.Advance(time.Minute)
	showsBefore := h.c.Snapshot().Shows

	got, err := h.c.ReloadNextWatchEpisodes(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	snap := h.c.Snapshot()
	assert.Equal(t, h.repo.next, snap.NextWatch)
	assert.Equal(t, showsBefore, snap.Shows)
	assert.True(t, snap.LastUpdated.Equal(h.clock.Now()))
	assert.Equal(t, 1, h.repo.calls(), "must not re-fetch the bundle")
}

func TestReloadNextWatchEpisodes_Failure(t *testing.T) {
	h := loaded(t)
	h.repo.nextErr = errNetwork
	before := h.c.Snapshot()

	_, err := h.c.ReloadNextWatchEpisodes(context.Background())
	require.ErrorIs(t, err, errNetwork)

	snap := h.c.Snapshot()
	assert.Equal(t, before.NextWatch, snap.NextWatch)
	assert.Equal(t, before.LastUpdated, snap.LastUpdated)
	assert.Contains(t, snap.Error, "network unreachable")
}

func TestObserverSeesChanges(t *testing.T) {
	kv, err := store.Open("")
	require.NoError(t, err)
	var mu sync.Mutex
	var seen []bool
	obs := ObserverFunc(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Loading)
		mu.Unlock()
	})
	c := NewContainer(&fakeRepo{fetch: returnBundle(sampleBundle())}, kv, nil, log.NullLogger(), WithObserver(obs))

	_, err = c.Load(context.Background(), 1, 1)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}

func TestReload_DuringProfileSwitchFollowsTheSwitch(t *testing.T) {
	h := loaded(t)
	started, release := make(chan pairing, 2), make(chan struct{})
	h.repo.mu.Lock()
	h.repo.fetch = profileFetch(started, release)
	h.repo.mu.Unlock()

	switchDone := make(chan error, 1)
	go func() {
		_, err := h.c.Load(context.Background(), 1, 2)
		switchDone <- err
	}()
	require.Equal(t, pairing{1, 2}, <-started)

	reloadDone := make(chan error, 1)
	go func() {
		_, err := h.c.Reload(context.Background())
		reloadDone <- err
	}()
	assert.Equal(t, pairing{1, 2}, <-started, "reload must fetch the profile being switched to")

	close(release)
	require.ErrorIs(t, <-switchDone, ErrSuperseded)
	require.NoError(t, <-reloadDone)

	p := h.c.ActiveProfile()
	require.NotNil(t, p)
	assert.Equal(t, 2, p.ID)
}

func TestReload_AfterSignOutDuringSwitch(t *testing.T) {
	h := loaded(t)
	started, release := make(chan pairing, 1), make(chan struct{})
	h.repo.mu.Lock()
	h.repo.fetch = profileFetch(started, release)
	h.repo.mu.Unlock()

	switchDone := make(chan error, 1)
	go func() {
		_, err := h.c.Load(context.Background(), 1, 2)
		switchDone <- err
	}()
	<-started

	h.c.SignOut()
	_, err := h.c.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrNoActiveProfile)

	close(release)
	require.ErrorIs(t, <-switchDone, ErrSuperseded)
	assert.Nil(t, h.c.ActiveProfile(), "sign-out must not be undone")
	assert.Equal(t, 2, h.repo.calls(), "no fetch after sign-out")
}

func TestReload_AfterFailedSwitchUsesShownProfile(t *testing.T) {
	h := loaded(t)
	var got []pairing
	h.repo.mu.Lock()
	h.repo.fetch = func(_ context.Context, accountID, profileID int) (*domain.ProfileBundle, error) {
		got = append(got, pairing{accountID, profileID})
		if profileID == 2 {
			return nil, domain.ErrNotFound
		}
		return sampleBundle(), nil
	}
	h.repo.mu.Unlock()

	_, err := h.c.Load(context.Background(), 1, 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.c.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []pairing{{1, 2}, {1, 1}}, got)
	assert.Equal(t, 1, h.c.ActiveProfile().ID)
}
