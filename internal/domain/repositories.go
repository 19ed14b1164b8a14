package domain

import (
	"context"
)

// ProfileRepository provides network access to a profile's tracked content.
// Implemented by the API client; every method may fail with a transport or
// server error.
type ProfileRepository interface {
	// FetchProfileBundle returns the profile with all shows, movies and
	// derived lists in one response
	FetchProfileBundle(ctx context.Context, accountID, profileID int) (*ProfileBundle, error)

	// FetchNextWatchEpisodes returns only the "what to watch next" list
	FetchNextWatchEpisodes(ctx context.Context, accountID, profileID int) ([]NextWatchEpisode, error)

	// AddFavorite favorites a show or movie and returns the new record
	AddFavorite(ctx context.Context, accountID, profileID int, kind ContentKind, contentID int) (*FavoriteResult, error)

	// RemoveFavorite unfavorites a show or movie
	RemoveFavorite(ctx context.Context, accountID, profileID int, kind ContentKind, contentID int) (*FavoriteResult, error)

	// UpdateWatchStatus changes the watch status of a show or movie.
	// recursive applies the change to all seasons and episodes of a show.
	UpdateWatchStatus(ctx context.Context, accountID, profileID int, kind ContentKind, contentID int, status WatchStatus, recursive bool) error
}
