// Package activity decides when the cached profile snapshot is stale.
//
// Staleness has two sources: the snapshot is old (its last successful load
// is older than the freshness window), or the user has been away (the last
// recorded interaction is older than the same window). The second case
// catches a terminal that sat idle with data that is technically young.
//
// The only state is the lastActivity entry in the durable store.
package activity

import (
	"log/slog"
	"time"

	"github.com/mmcdole/showtrack/internal/domain"
)

// DefaultFreshness is how long a snapshot or an idle period may last before
// the snapshot must be revalidated.
const DefaultFreshness = 30 * time.Minute

// Tracker records user activity and judges snapshot staleness.
type Tracker struct {
	kv        domain.KeyValueStore
	logger    *slog.Logger
	now       func() time.Time
	threshold time.Duration
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithThreshold overrides DefaultFreshness
func WithThreshold(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.threshold = d
		}
	}
}

// NewTracker creates a tracker backed by kv.
func NewTracker(kv domain.KeyValueStore, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		kv:        kv,
		logger:    logger,
		now:       time.Now,
		threshold: DefaultFreshness,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordActivity stamps the current time as the last user activity.
// Storage failures are logged and otherwise ignored.
func (t *Tracker) RecordActivity() {
	stamp := t.now().UTC().Format(time.RFC3339Nano)
	if err := t.kv.Set(domain.KeyLastActivity, []byte(stamp)); err != nil {
		t.logger.Warn("failed to record activity", "error", err)
	}
}

// ReadLastActivity returns the last recorded activity, or nil when none is
// stored or the stored value cannot be parsed.
func (t *Tracker) ReadLastActivity() *time.Time {
	raw, ok := t.kv.Get(domain.KeyLastActivity)
	if !ok {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		t.logger.Debug("ignoring unparseable activity stamp", "value", string(raw))
		return nil
	}
	return &ts
}

// IsStale reports whether a snapshot last loaded at lastUpdated must be
// refreshed. A nil lastUpdated (never loaded) is always stale.
func (t *Tracker) IsStale(lastUpdated *time.Time) bool {
	if lastUpdated == nil {
		return true
	}

	now := t.now()
	if now.Sub(*lastUpdated) > t.threshold {
		return true
	}

	if last := t.ReadLastActivity(); last != nil && now.Sub(*last) > t.threshold {
		return true
	}
	return false
}

// ClearActivity forgets the last activity (sign-out).
func (t *Tracker) ClearActivity() {
	if err := t.kv.Remove(domain.KeyLastActivity); err != nil {
		t.logger.Warn("failed to clear activity", "error", err)
	}
}

// Threshold returns the configured freshness window
func (t *Tracker) Threshold() time.Duration { return t.threshold }
