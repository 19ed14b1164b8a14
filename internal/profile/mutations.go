package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmcdole/showtrack/internal/domain"
)

// AddFavorite favorites a show or movie and appends the server's record.
func (c *Container) AddFavorite(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error {
	if err := validKind(kind); err != nil {
		return err
	}
	t, err := c.begin(profileID)
	if err != nil {
		return err
	}

	res, err := c.repo.AddFavorite(ctx, t.accountID, t.profileID, kind, contentID)
	if err == nil {
		err = checkFavoriteRecord(kind, res)
	}
	if err != nil {
		err = fmt.Errorf("favorite %s %d: %w", kind, contentID, err)
		c.fail(t, err)
		return err
	}

	var title string
	ok := c.commit(t, true, func(s *Snapshot) {
		switch kind {
		case domain.KindShow:
			title = res.Show.Title
			s.Shows = upsertShow(s.Shows, *res.Show)
			if res.NextWatch != nil {
				s.NextWatch = cloneEpisodes(res.NextWatch)
			}
		case domain.KindMovie:
			title = res.Movie.Title
			s.Movies = upsertMovie(s.Movies, *res.Movie)
			applyMovieLists(s, res)
		}
	})
	if !ok {
		return ErrSuperseded
	}

	c.logger.Info("favorited", "kind", kind, "contentID", contentID, "title", title)
	c.notifier.Notify(domain.Notification{
		Level:   domain.NotifySuccess,
		Message: title + " favorited",
	})
	return nil
}

// RemoveFavorite unfavorites a show or movie. The local record is matched
// by the id the server reports as removed; a missing record is a no-op.
func (c *Container) RemoveFavorite(ctx context.Context, kind domain.ContentKind, profileID, contentID int) error {
	if err := validKind(kind); err != nil {
		return err
	}
	t, err := c.begin(profileID)
	if err != nil {
		return err
	}

	res, err := c.repo.RemoveFavorite(ctx, t.accountID, t.profileID, kind, contentID)
	if err != nil {
		err = fmt.Errorf("unfavorite %s %d: %w", kind, contentID, err)
		c.fail(t, err)
		return err
	}
	if res == nil {
		res = &domain.FavoriteResult{}
	}
	removedID := removedRecordID(kind, res, contentID)

	title := kind.Label()
	ok := c.commit(t, true, func(s *Snapshot) {
		switch kind {
		case domain.KindShow:
			if i := slices.IndexFunc(s.Shows, func(sh domain.Show) bool { return sh.ID == removedID }); i >= 0 {
				title = s.Shows[i].Title
			}
			s.Shows = slices.DeleteFunc(s.Shows, func(sh domain.Show) bool { return sh.ID == removedID })
			if res.NextWatch != nil {
				s.NextWatch = cloneEpisodes(res.NextWatch)
			}
		case domain.KindMovie:
			if i := slices.IndexFunc(s.Movies, func(m domain.Movie) bool { return m.ID == removedID }); i >= 0 {
				title = s.Movies[i].Title
			}
			s.Movies = slices.DeleteFunc(s.Movies, func(m domain.Movie) bool { return m.ID == removedID })
			applyMovieLists(s, res)
		}
	})
	if !ok {
		return ErrSuperseded
	}

	c.logger.Info("unfavorited", "kind", kind, "contentID", removedID, "title", title)
	c.notifier.Notify(domain.Notification{
		Level:   domain.NotifySuccess,
		Message: title + " unfavorited",
	})
	return nil
}

// UpdateWatchStatus sets the watch status of a show or movie. Show updates
// are applied recursively to seasons and episodes on the server. Only the
// record's WatchStatus changes locally, and only after the server confirms.
func (c *Container) UpdateWatchStatus(
	ctx context.Context,
	kind domain.ContentKind,
	profileID, contentID int,
	status domain.WatchStatus,
) error {
	if err := validKind(kind); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, string(status))
	}
	t, err := c.begin(profileID)
	if err != nil {
		return err
	}

	recursive := kind == domain.KindShow
	if err := c.repo.UpdateWatchStatus(ctx, t.accountID, t.profileID, kind, contentID, status, recursive); err != nil {
		err = fmt.Errorf("update %s %d status: %w", kind, contentID, err)
		c.fail(t, err)
		return err
	}

	ok := c.commit(t, true, func(s *Snapshot) {
		switch kind {
		case domain.KindShow:
			setShowStatus(s.Shows, contentID, status)
		case domain.KindMovie:
			for i := range s.Movies {
				if s.Movies[i].ID == contentID {
					s.Movies[i].WatchStatus = status
				}
			}
		}
	})
	if !ok {
		return ErrSuperseded
	}
	c.logger.Debug("updated watch status", "kind", kind, "contentID", contentID, "status", status)
	return nil
}

// EpisodeStatusChange is emitted by the episode subsystem after the server
// accepted an episode watch-status change.
type EpisodeStatusChange struct {
	ProfileID  int
	ShowID     int
	ShowStatus domain.WatchStatus // recomputed aggregate for the parent show
	NextWatch  []domain.NextWatchEpisode
}

// SeasonStatusChange is emitted by the season subsystem after the server
// accepted a season watch-status change.
type SeasonStatusChange struct {
	ProfileID  int
	ShowID     int
	ShowStatus domain.WatchStatus
	NextWatch  []domain.NextWatchEpisode
}

// ApplyEpisodeStatusChange patches the parent show's aggregate status.
// It reports whether the event applied to the active profile.
func (c *Container) ApplyEpisodeStatusChange(ev EpisodeStatusChange) bool {
	return c.applyShowAggregate(ev.ProfileID, ev.ShowID, ev.ShowStatus, ev.NextWatch)
}

// ApplySeasonStatusChange patches the parent show's aggregate status.
func (c *Container) ApplySeasonStatusChange(ev SeasonStatusChange) bool {
	return c.applyShowAggregate(ev.ProfileID, ev.ShowID, ev.ShowStatus, ev.NextWatch)
}

func (c *Container) applyShowAggregate(
	profileID, showID int,
	status domain.WatchStatus,
	nextWatch []domain.NextWatchEpisode,
) bool {
	if !status.Valid() {
		c.logger.Warn("ignoring status change with invalid status", "showID", showID, "status", status)
		return false
	}
	t, err := c.currentTicket(profileID)
	if err != nil {
		c.logger.Debug("ignoring status change", "showID", showID, "error", err)
		return false
	}
	return c.commit(t, false, func(s *Snapshot) {
		setShowStatus(s.Shows, showID, status)
		if nextWatch != nil {
			s.NextWatch = cloneEpisodes(nextWatch)
		}
	})
}

// currentTicket is begin without clearing Error; reducers are not user operations.
func (c *Container) currentTicket(profileID int) (ticket, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p := c.state.Profile
	if p == nil {
		return ticket{}, domain.ErrNoActiveProfile
	}
	if profileID != 0 && profileID != p.ID {
		return ticket{}, domain.ErrProfileMismatch
	}
	return ticket{accountID: p.AccountID, profileID: p.ID, session: c.session}, nil
}

func validKind(kind domain.ContentKind) error {
	if kind != domain.KindShow && kind != domain.KindMovie {
		return fmt.Errorf("%w: %q", domain.ErrInvalidKind, string(kind))
	}
	return nil
}

func checkFavoriteRecord(kind domain.ContentKind, res *domain.FavoriteResult) error {
	switch {
	case res == nil:
		return errors.New("empty response")
	case kind == domain.KindShow && res.Show == nil:
		return errors.New("response is missing the show record")
	case kind == domain.KindMovie && res.Movie == nil:
		return errors.New("response is missing the movie record")
	}
	return nil
}

func removedRecordID(kind domain.ContentKind, res *domain.FavoriteResult, requested int) int {
	if res.RemovedID != 0 {
		return res.RemovedID
	}
	if kind == domain.KindShow && res.Show != nil && res.Show.ID != 0 {
		return res.Show.ID
	}
	if kind == domain.KindMovie && res.Movie != nil && res.Movie.ID != 0 {
		return res.Movie.ID
	}
	return requested
}

func applyMovieLists(s *Snapshot, res *domain.FavoriteResult) {
	if res.RecentMovies != nil {
		s.RecentMovies = slices.Clone(res.RecentMovies)
	}
	if res.UpcomingMovies != nil {
		s.UpcomingMovies = slices.Clone(res.UpcomingMovies)
	}
}

func setShowStatus(shows []domain.Show, id int, status domain.WatchStatus) {
	for i := range shows {
		if shows[i].ID == id {
			shows[i].WatchStatus = status
		}
	}
}

// upsertShow appends sh, or replaces an existing record with the same id.
func upsertShow(shows []domain.Show, sh domain.Show) []domain.Show {
	sh.Genres = slices.Clone(sh.Genres)
	sh.StreamingServices = slices.Clone(sh.StreamingServices)
	if i := slices.IndexFunc(shows, func(x domain.Show) bool { return x.ID == sh.ID }); i >= 0 {
		shows[i] = sh
		return shows
	}
	return append(shows, sh)
}

func upsertMovie(movies []domain.Movie, m domain.Movie) []domain.Movie {
	m.Genres = slices.Clone(m.Genres)
	m.StreamingServices = slices.Clone(m.StreamingServices)
	if i := slices.IndexFunc(movies, func(x domain.Movie) bool { return x.ID == m.ID }); i >= 0 {
		movies[i] = m
		return movies
	}
	return append(movies, m)
}
