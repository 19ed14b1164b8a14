// Package profile holds the in-memory snapshot of the active profile and
// keeps it consistent with the server and the durable store.
//
// # Ownership
//
// A Container is created once per session and passed by reference to
// everything that reads or writes the snapshot. Only the Container's own
// operations (and the two status reducers) modify it.
//
// # Ordering
//
// Whole-snapshot loads are stamped with an epoch when they begin. A load
// applies its response only if no newer load and no sign-out has started
// since; otherwise the response is discarded. Mutations are stamped with
// the session instead, so a reload does not discard a favorite that was
// confirmed while it was in flight, but a sign-out or a switch to another
// profile does.
//
// Mutations are confirm-then-patch: the local record changes only after the
// server accepts the change.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmcdole/showtrack/internal/domain"
)

// ErrSuperseded is returned by a load whose response arrived after a newer
// load or a sign-out started. The response was discarded.
var ErrSuperseded = errors.New("superseded by a newer load or sign-out")

// Observer is told about every committed change to the snapshot.
type Observer interface {
	OnChange(snap Snapshot)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnChange(snap Snapshot) { f(snap) }

// Container owns the active profile snapshot.
type Container struct {
	repo     domain.ProfileRepository
	kv       domain.KeyValueStore
	notifier domain.Notifier
	logger   *slog.Logger
	now      func() time.Time
	observer Observer

	mu      sync.RWMutex
	state   Snapshot
	epoch   uint64   // bumped by Load/Reload/SignOut
	session uint64   // bumped by SignOut and profile switches
	pending *pairing // target of the newest load still in flight
}

type pairing struct {
	accountID int
	profileID int
}

// Option configures a Container
type Option func(*Container)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

// WithObserver registers a change observer
func WithObserver(o Observer) Option {
	return func(c *Container) { c.observer = o }
}

// NewContainer creates a container, rehydrating the last persisted
// snapshot from kv when one exists.
func NewContainer(
	repo domain.ProfileRepository,
	kv domain.KeyValueStore,
	notifier domain.Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = domain.NoOpNotifier{}
	}
	c := &Container{
		repo:     repo,
		kv:       kv,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rehydrate()
	return c
}

func (c *Container) rehydrate() {
	raw, ok := c.kv.Get(domain.KeyActiveProfile)
	if !ok {
		return
	}
	var p persistedSnapshot
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("discarding unreadable cached profile", "error", err)
		if err := c.kv.Remove(domain.KeyActiveProfile); err != nil {
			c.logger.Warn("failed to remove cached profile", "error", err)
		}
		return
	}
	c.state = p.snapshot()
	c.logger.Debug("rehydrated profile",
		"profileID", profileID(c.state.Profile),
		"shows", len(c.state.Shows),
		"movies", len(c.state.Movies),
	)
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// ActiveProfile returns the loaded profile, or nil
func (c *Container) ActiveProfile() *domain.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.Profile == nil {
		return nil
	}
	p := *c.state.Profile
	return &p
}

// LastUpdated returns the time of the last successful load, or nil
func (c *Container) LastUpdated() *time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.LastUpdated == nil {
		return nil
	}
	ts := *c.state.LastUpdated
	return &ts
}

// Load fetches the full bundle for a profile and replaces the snapshot.
// On failure the previous content is kept for display, Error is set and
// LastUpdated is cleared so the next staleness check forces a retry.
func (c *Container) Load(ctx context.Context, accountID, profileID int) (Snapshot, error) {
	c.mu.Lock()
	epoch, snap := c.beginLoadLocked(pairing{accountID, profileID})
	c.mu.Unlock()

	c.changed(snap)
	return c.fetch(ctx, epoch, accountID, profileID)
}

// fetch completes a load started under epoch.
func (c *Container) fetch(ctx context.Context, epoch uint64, accountID, profileID int) (Snapshot, error) {
	c.logger.Debug("loading profile", "accountID", accountID, "profileID", profileID, "epoch", epoch)
	bundle, err := c.repo.FetchProfileBundle(ctx, accountID, profileID)

	c.mu.Lock()
	if epoch != c.epoch {
		snap := c.state.clone()
		c.mu.Unlock()
		c.logger.Info("discarding superseded profile load",
			"profileID", profileID, "epoch", epoch, "fetchError", err)
		return snap, ErrSuperseded
	}
	c.pending = nil

	if err != nil {
		err = fmt.Errorf("load profile %d/%d: %w", accountID, profileID, err)
		c.state.Loading = false
		c.state.Error = err.Error()
		c.state.LastUpdated = nil
		c.persistLocked()
		snap := c.state.clone()
		c.mu.Unlock()

		c.logger.Error("failed to load profile", "error", err)
		c.changed(snap)
		return snap, err
	}

	profile := bundle.Profile
	if profile.ID == 0 {
		profile.ID = profileID
	}
	if profile.AccountID == 0 {
		profile.AccountID = accountID
	}
	if p := c.state.Profile; p == nil || p.ID != profile.ID || p.AccountID != profile.AccountID {
		// Mutations begun against the previous profile during the fetch
		c.session++
	}
	now := c.now()
	c.state = Snapshot{
		Profile:        &profile,
		Shows:          cloneShows(bundle.Shows),
		Movies:         cloneMovies(bundle.Movies),
		NextWatch:      cloneEpisodes(bundle.NextWatch),
		RecentMovies:   slices.Clone(bundle.RecentMovies),
		UpcomingMovies: slices.Clone(bundle.UpcomingMovies),
		LastUpdated:    &now,
	}
	c.state.derive()
	c.persistLocked()
	snap := c.state.clone()
	c.mu.Unlock()

	c.logger.Info("loaded profile",
		"profileID", profileID,
		"shows", len(snap.Shows),
		"movies", len(snap.Movies),
		"nextWatch", len(snap.NextWatch),
	)
	c.changed(snap)
	return snap, nil
}

// beginLoadLocked supersedes any load in flight and records target as the
// pending load. Must hold c.mu.
func (c *Container) beginLoadLocked(target pairing) (uint64, Snapshot) {
	c.epoch++
	if p := c.state.Profile; p == nil || p.ID != target.profileID || p.AccountID != target.accountID {
		c.session++
	}
	c.pending = &target
	c.state.Loading = true
	c.state.Error = ""
	return c.epoch, c.state.clone()
}

// Reload re-fetches the profile being shown, or the one a load in flight is
// switching to. Without either it fails fast with domain.ErrNoActiveProfile
// and leaves the snapshot untouched.
func (c *Container) Reload(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	var target pairing
	switch {
	case c.pending != nil:
		target = *c.pending
	case c.state.Profile != nil:
		target = pairing{c.state.Profile.AccountID, c.state.Profile.ID}
	default:
		snap := c.state.clone()
		c.mu.Unlock()
		return snap, domain.ErrNoActiveProfile
	}
	epoch, snap := c.beginLoadLocked(target)
	c.mu.Unlock()

	c.changed(snap)
	return c.fetch(ctx, epoch, target.accountID, target.profileID)
}

// ReloadNextWatchEpisodes refreshes only the next-watch list.
func (c *Container) ReloadNextWatchEpisodes(ctx context.Context) ([]domain.NextWatchEpisode, error) {
	t, err := c.begin(0)
	if err != nil {
		return nil, err
	}

	episodes, err := c.repo.FetchNextWatchEpisodes(ctx, t.accountID, t.profileID)
	if err != nil {
		err = fmt.Errorf("reload next episodes: %w", err)
		c.fail(t, err)
		return nil, err
	}

	ok := c.commit(t, true, func(s *Snapshot) {
		s.NextWatch = cloneEpisodes(episodes)
	})
	if !ok {
		return nil, ErrSuperseded
	}
	return cloneEpisodes(episodes), nil
}

// SignOut clears the snapshot and its durable entry unconditionally.
// Loads still in flight will discard their responses.
func (c *Container) SignOut() {
	c.mu.Lock()
	c.epoch++
	c.session++
	c.pending = nil
	c.state = Snapshot{}
	if err := c.kv.Remove(domain.KeyActiveProfile); err != nil {
		c.logger.Warn("failed to remove cached profile", "error", err)
	}
	snap := c.state.clone()
	c.mu.Unlock()

	c.logger.Info("signed out, profile cache cleared")
	c.changed(snap)
}

// ticket identifies the profile and session an operation started under.
type ticket struct {
	accountID int
	profileID int
	session   uint64
}

// begin checks the operation's preconditions and clears Error. profileID 0
// means "whatever profile is active".
func (c *Container) begin(profileID int) (ticket, error) {
	c.mu.Lock()
	p := c.state.Profile
	if p == nil {
		c.mu.Unlock()
		return ticket{}, domain.ErrNoActiveProfile
	}
	if profileID != 0 && profileID != p.ID {
		c.mu.Unlock()
		return ticket{}, fmt.Errorf("%w: %d (active %d)", domain.ErrProfileMismatch, profileID, p.ID)
	}
	t := ticket{accountID: p.AccountID, profileID: p.ID, session: c.session}
	var snap Snapshot
	if c.state.Error != "" {
		c.state.Error = ""
		snap = c.state.clone()
	}
	c.mu.Unlock()

	if snap.Profile != nil {
		c.changed(snap)
	}
	return t, nil
}

// commit applies fn if the ticket's session is still current, re-derives,
// optionally stamps LastUpdated, and persists. It reports whether fn ran.
func (c *Container) commit(t ticket, stamp bool, fn func(s *Snapshot)) bool {
	c.mu.Lock()
	if t.session != c.session {
		c.mu.Unlock()
		c.logger.Info("discarding result for inactive profile", "profileID", t.profileID)
		return false
	}
	fn(&c.state)
	c.state.derive()
	if stamp {
		now := c.now()
		c.state.LastUpdated = &now
	}
	c.persistLocked()
	snap := c.state.clone()
	c.mu.Unlock()

	c.changed(snap)
	return true
}

// fail records err on the snapshot if the ticket's session is still current.
func (c *Container) fail(t ticket, err error) {
	c.logger.Error("profile operation failed", "profileID", t.profileID, "error", err)

	c.mu.Lock()
	if t.session != c.session {
		c.mu.Unlock()
		return
	}
	c.state.Error = err.Error()
	snap := c.state.clone()
	c.mu.Unlock()

	c.changed(snap)
}

// persistLocked writes the snapshot to the durable store. Must hold c.mu.
// Failures are logged; the in-memory snapshot stays authoritative.
func (c *Container) persistLocked() {
	data, err := json.Marshal(c.state.persisted())
	if err != nil {
		c.logger.Warn("failed to encode profile cache", "error", err)
		return
	}
	if err := c.kv.Set(domain.KeyActiveProfile, data); err != nil {
		c.logger.Warn("failed to persist profile cache", "error", err)
	}
}

func (c *Container) changed(snap Snapshot) {
	if c.observer != nil {
		c.observer.OnChange(snap)
	}
}

func profileID(p *domain.Profile) int {
	if p == nil {
		return 0
	}
	return p.ID
}

func cloneEpisodes(eps []domain.NextWatchEpisode) []domain.NextWatchEpisode {
	if eps == nil {
		return nil
	}
	dup := make([]domain.NextWatchEpisode, len(eps))
	copy(dup, eps)
	return dup
}
