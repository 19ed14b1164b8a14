// Package trigger decides when the profile cache should revalidate itself.
//
// A Coordinator turns view events into staleness checks: the first render
// with a profile, terminal focus regained, and a periodic tick. Each check
// asks the activity tracker whether the snapshot is stale, records activity,
// and reloads in the background if it was. Raw input events only record
// activity.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/profile"
)

const (
	DefaultInterval      = 5 * time.Minute
	DefaultReloadTimeout = 30 * time.Second
)

// Cache is the part of the profile container the coordinator drives
type Cache interface {
	ActiveProfile() *domain.Profile
	LastUpdated() *time.Time
	Reload(ctx context.Context) (profile.Snapshot, error)
}

// Tracker is the part of the activity tracker the coordinator consults
type Tracker interface {
	IsStale(lastUpdated *time.Time) bool
	RecordActivity()
}

// Interaction is a raw input event that counts as user activity
type Interaction int

const (
	PointerDown Interaction = iota
	KeyDown
	Scroll
	TouchStart
)

func (i Interaction) String() string {
	switch i {
	case PointerDown:
		return "pointerdown"
	case KeyDown:
		return "keydown"
	case Scroll:
		return "scroll"
	case TouchStart:
		return "touchstart"
	default:
		return "unknown"
	}
}

type pairing struct {
	accountID int
	profileID int
}

// Coordinator wires triggers to staleness checks and reloads.
type Coordinator struct {
	cache         Cache
	tracker       Tracker
	logger        *slog.Logger
	interval      time.Duration
	reloadTimeout time.Duration

	mu      sync.Mutex
	mounted pairing // zero until the mount check ran for the current pairing
	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      conc.WaitGroup
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithInterval sets the periodic check interval
func WithInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithReloadTimeout bounds each background reload
func WithReloadTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.reloadTimeout = d
		}
	}
}

// New creates a coordinator. Call Start to begin periodic checks and Stop
// to release it.
func New(cache Cache, tracker Tracker, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cache:         cache,
		tracker:       tracker,
		logger:        logger,
		interval:      DefaultInterval,
		reloadTimeout: DefaultReloadTimeout,
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start launches the periodic check. It returns immediately; the ticker
// stops when ctx is done or Stop is called.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.started = true
	defer c.mu.Unlock()

	c.wg.Go(func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				if c.hasProfile() {
					c.check("interval")
				}
			}
		}
	})
}

// Mount runs the staleness check the first time a given account/profile
// pairing is present. It is safe to call on every render.
func (c *Coordinator) Mount() {
	p := c.cache.ActiveProfile()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if p == nil || p.AccountID == 0 || p.ID == 0 {
		c.mounted = pairing{}
		c.mu.Unlock()
		return
	}
	current := pairing{accountID: p.AccountID, profileID: p.ID}
	if c.mounted == current {
		c.mu.Unlock()
		return
	}
	c.mounted = current
	c.mu.Unlock()

	c.check("mount")
}

// OnFocus re-checks staleness when the terminal regains focus.
func (c *Coordinator) OnFocus() {
	if c.isStopped() || !c.hasProfile() {
		return
	}
	c.check("focus")
}

// OnInteraction records user activity. It never reloads.
func (c *Coordinator) OnInteraction(kind Interaction) {
	if c.isStopped() {
		return
	}
	switch kind {
	case PointerDown, KeyDown, Scroll, TouchStart:
		c.tracker.RecordActivity()
	}
}

// Stop cancels the ticker, waits for in-flight reloads, and makes further
// triggers no-ops.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// check runs one staleness check. Staleness is judged before recording
// activity so the check itself cannot mask an idle period.
func (c *Coordinator) check(reason string) {
	stale := c.tracker.IsStale(c.cache.LastUpdated())
	c.tracker.RecordActivity()
	if !stale {
		c.logger.Debug("profile cache fresh", "trigger", reason)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.logger.Info("profile cache stale, reloading", "trigger", reason)
	c.wg.Go(func() { c.reload(reason) })
}

func (c *Coordinator) reload(reason string) {
	// Stop waits for the reload instead of aborting it; the container
	// discards results that arrive after a sign-out.
	ctx, cancel := context.WithTimeout(context.Background(), c.reloadTimeout)
	defer cancel()

	if _, err := c.cache.Reload(ctx); err != nil {
		c.logger.Warn("background reload failed", "trigger", reason, "error", err)
	}
}

func (c *Coordinator) hasProfile() bool {
	p := c.cache.ActiveProfile()
	return p != nil && p.AccountID != 0 && p.ID != 0
}

func (c *Coordinator) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}
