package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/mmcdole/showtrack/internal/activity"
	"github.com/mmcdole/showtrack/internal/api"
	"github.com/mmcdole/showtrack/internal/config"
	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/log"
	"github.com/mmcdole/showtrack/internal/notify"
	"github.com/mmcdole/showtrack/internal/profile"
	"github.com/mmcdole/showtrack/internal/store"
	"github.com/mmcdole/showtrack/internal/trigger"
	"github.com/mmcdole/showtrack/internal/tui"
)

var (
	errNotConfigured = errors.New("server not configured; run `showtrack login`")
	errNoSession     = errors.New("no profile selected; pass --account and --profile or run `showtrack login`")
)

// Runner holds the dependencies shared by every command and provides one
// method per command action.
type Runner struct {
	fs         afero.Fs
	output     io.Writer
	httpClient *http.Client
	logger     *slog.Logger
	isTerminal func() bool

	manager   *config.Manager
	cfg       *config.Config
	kv        *store.KVStore
	tracker   *activity.Tracker
	container *profile.Container
	notes     chan domain.Notification
	snapshots chan profile.Snapshot
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Fs         afero.Fs
	Output     io.Writer
	HTTPClient *http.Client
	Logger     *slog.Logger // skips file logging when set
	IsTerminal func() bool
}

// NewRunner creates a new Runner with the provided options
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	}
	return &Runner{
		fs:         opts.Fs,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		isTerminal: opts.IsTerminal,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, statusCommand, favoriteCommand, watchCommand, loginCommand, logoutCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig reads the config file named by --config and applies the
// global flag overrides.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	r.manager = config.NewManager(r.fs, cmd.String("config"))
	cfg, err := r.manager.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if level := cmd.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if id := int(cmd.Int("account")); id != 0 {
		cfg.Session.AccountID = id
	}
	if id := int(cmd.Int("profile")); id != 0 {
		cfg.Session.ProfileID = id
	}
	r.cfg = cfg
	return nil
}

// open builds the engine: store, activity tracker, API client and profile
// container. console adds a stderr log handler for non-interactive commands.
func (r *Runner) open(cmd *cli.Command, console bool) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	if r.logger == nil {
		r.cfg.Logging.Console = r.cfg.Logging.Console || console
		logger, err := log.SetupLogger(&r.cfg.Logging)
		if err != nil {
			// Fall back to the console if file logging fails
			logger = slog.New(log.ConsoleHandler(os.Stderr, log.ParseLevel(r.cfg.Logging.Level)))
		}
		r.logger = logger
	}
	slog.SetDefault(r.logger)

	kv, err := store.Open(r.cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	r.kv = kv

	r.tracker = activity.NewTracker(kv, r.logger, activity.WithThreshold(r.cfg.Sync.Freshness))

	clientOpts := []api.Option{
		api.WithRateLimit(r.cfg.Sync.RateLimit, 1),
		api.WithRetry(r.cfg.Sync.Retries, 250*time.Millisecond),
	}
	if r.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(r.httpClient))
	}
	client := api.NewClient(r.cfg.Server.URL, r.cfg.Server.Token, r.logger, clientOpts...)

	r.notes = make(chan domain.Notification, 16)
	r.snapshots = make(chan profile.Snapshot, 1)
	notifier := notify.Multi{notify.NewLogger(r.logger), notify.NewChannel(r.notes)}

	r.container = profile.NewContainer(client, kv, notifier, r.logger,
		profile.WithObserver(tui.NewChannelObserver(r.snapshots)))
	return nil
}

func (r *Runner) close() {
	if r.kv == nil {
		return
	}
	if err := r.kv.Close(); err != nil {
		r.logger.Warn("failed to close session store", "error", err)
	}
}

func (r *Runner) requireSession() error {
	if !r.cfg.IsConfigured() {
		return errNotConfigured
	}
	if !r.cfg.HasSession() {
		return errNoSession
	}
	return nil
}

// current reports whether the cached profile is the configured one
func (r *Runner) current(snap profile.Snapshot) bool {
	return snap.HasProfile() &&
		snap.Profile.AccountID == r.cfg.Session.AccountID &&
		snap.Profile.ID == r.cfg.Session.ProfileID
}

// ensureProfile returns the cached snapshot when it belongs to the
// configured profile and is fresh, and loads it otherwise.
func (r *Runner) ensureProfile(ctx context.Context, refresh bool) (profile.Snapshot, error) {
	snap := r.container.Snapshot()
	stale := r.tracker.IsStale(snap.LastUpdated)
	r.tracker.RecordActivity()
	if r.current(snap) && !stale && !refresh {
		r.logger.Debug("using cached profile", "profile_id", snap.Profile.ID)
		return snap, nil
	}
	return r.container.Load(ctx, r.cfg.Session.AccountID, r.cfg.Session.ProfileID)
}

// TUI runs the terminal front-end, or prints the status when stdout is not
// a terminal.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if !r.isTerminal() {
		return r.status(ctx, cmd, false)
	}
	if err := r.open(cmd, false); err != nil {
		return err
	}
	defer r.close()
	if err := r.requireSession(); err != nil {
		return err
	}

	r.logger.Info("starting showtrack", "version", Version)

	var wg conc.WaitGroup
	defer wg.Wait()
	if !r.current(r.container.Snapshot()) {
		accountID, profileID := r.cfg.Session.AccountID, r.cfg.Session.ProfileID
		wg.Go(func() {
			loadCtx, cancel := context.WithTimeout(ctx, r.cfg.Sync.ReloadTimeout)
			defer cancel()
			if _, err := r.container.Load(loadCtx, accountID, profileID); err != nil {
				r.logger.Warn("initial load failed", "error", err)
			}
		})
	}

	coordinator := trigger.New(r.container, r.tracker, r.logger,
		trigger.WithInterval(r.cfg.Sync.Interval),
		trigger.WithReloadTimeout(r.cfg.Sync.ReloadTimeout))
	coordinator.Start(ctx)
	defer coordinator.Stop()

	err := tui.Run(tui.Options{
		Engine:        r.container,
		Triggers:      coordinator,
		Snapshots:     r.snapshots,
		Notifications: r.notes,
		SignOut:       r.signOut,
		Logger:        r.logger,
	})
	if err != nil {
		r.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	r.logger.Info("shutting down")
	return nil
}

// Status loads the profile (or reuses a fresh cache) and prints a summary
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	return r.status(ctx, cmd, cmd.Bool("refresh"))
}

func (r *Runner) status(ctx context.Context, cmd *cli.Command, refresh bool) error {
	if err := r.open(cmd, true); err != nil {
		return err
	}
	defer r.close()
	if err := r.requireSession(); err != nil {
		return err
	}

	snap, err := r.ensureProfile(ctx, refresh)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	return r.printStatus(snap)
}

// FavoriteAdd favorites a show or movie
func (r *Runner) FavoriteAdd(ctx context.Context, cmd *cli.Command) error {
	return r.mutate(ctx, cmd, func(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error {
		return r.container.AddFavorite(ctx, kind, profileID, contentID)
	})
}

// FavoriteRemove unfavorites a show or movie
func (r *Runner) FavoriteRemove(ctx context.Context, cmd *cli.Command) error {
	return r.mutate(ctx, cmd, func(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error {
		return r.container.RemoveFavorite(ctx, kind, profileID, contentID)
	})
}

// Watch sets the watch status of a show or movie
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	status, err := domain.ParseWatchStatus(cmd.String("status"))
	if err != nil {
		return err
	}
	return r.mutate(ctx, cmd, func(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error {
		return r.container.UpdateWatchStatus(ctx, kind, profileID, contentID, status)
	})
}

type mutation func(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error

// mutate validates --kind and --id, makes sure the configured profile is
// active, runs fn and prints the resulting notifications.
func (r *Runner) mutate(ctx context.Context, cmd *cli.Command, fn mutation) error {
	kind, err := domain.ParseContentKind(cmd.String("kind"))
	if err != nil {
		return err
	}
	contentID := int(cmd.Int("id"))
	if contentID <= 0 {
		return fmt.Errorf("invalid id %d", contentID)
	}

	if err := r.open(cmd, true); err != nil {
		return err
	}
	defer r.close()
	if err := r.requireSession(); err != nil {
		return err
	}
	snap, err := r.ensureProfile(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	err = fn(ctx, kind, snap.Profile.ID, contentID)
	r.printNotifications()
	return err
}

// Login saves the server, token and selected profile
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	r.cfg.Server.URL = strings.TrimRight(cmd.String("url"), "/")
	r.cfg.Server.Token = cmd.String("token")
	if err := r.manager.Save(r.cfg); err != nil {
		return err
	}
	return r.writeln("Saved configuration to %s", r.manager.Path())
}

// Logout clears the cached profile, the activity timestamp and the saved
// session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(cmd, true); err != nil {
		return err
	}
	defer r.close()
	if err := r.signOut(ctx); err != nil {
		return err
	}
	return r.writeln("Signed out")
}

func (r *Runner) signOut(context.Context) error {
	r.container.SignOut()
	r.tracker.ClearActivity()
	if err := r.manager.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (r *Runner) printStatus(snap profile.Snapshot) error {
	updated := "never"
	if snap.LastUpdated != nil {
		updated = time.Since(*snap.LastUpdated).Round(time.Second).String() + " ago"
	}
	if err := r.writeln("%s (account %d, profile %d), updated %s",
		snap.Profile.Name, snap.Profile.AccountID, snap.Profile.ID, updated); err != nil {
		return err
	}
	if snap.Error != "" {
		if err := r.writeln("last error: %s", snap.Error); err != nil {
			return err
		}
	}

	for _, line := range []struct {
		label  string
		counts profile.WatchCounts
	}{
		{"Shows", r.container.ShowWatchCounts()},
		{"Movies", r.container.MovieWatchCounts()},
	} {
		c := line.counts
		err := r.writeln("%-7s %3d  watched %d  watching %d  not watched %d  up to date %d  unaired %d",
			line.label, c.Total(), c.Watched, c.Watching, c.NotWatched, c.UpToDate, c.Unaired)
		if err != nil {
			return err
		}
	}

	if len(snap.NextWatch) == 0 {
		return nil
	}
	if err := r.writeln("\nUp next"); err != nil {
		return err
	}
	for _, ep := range snap.NextWatch {
		title := ep.ShowTitle
		if ep.EpisodeTitle != "" {
			title += " - " + ep.EpisodeTitle
		}
		if err := r.writeln("  %s  %s", ep.EpisodeCode(), title); err != nil {
			return err
		}
	}
	return nil
}

// printNotifications drains what the container reported during a command
func (r *Runner) printNotifications() {
	for {
		select {
		case n := <-r.notes:
			_ = r.writeln("%s", n.Message)
		default:
			return
		}
	}
}

func (r *Runner) writeln(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
