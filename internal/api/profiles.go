package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mmcdole/showtrack/internal/domain"
)

func profilePath(accountID, profileID int) string {
	return fmt.Sprintf("/api/v1/accounts/%d/profiles/%d", accountID, profileID)
}

// FetchProfileBundle returns the profile with its shows, movies and lists
func (c *Client) FetchProfileBundle(ctx context.Context, accountID, profileID int) (*domain.ProfileBundle, error) {
	body, err := c.doRequest(ctx, http.MethodGet, profilePath(accountID, profileID)+"/bundle", nil)
	if err != nil {
		return nil, err
	}
	bundle, err := decode[domain.ProfileBundle](body)
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

// FetchNextWatchEpisodes returns the next unwatched episode of each show
func (c *Client) FetchNextWatchEpisodes(ctx context.Context, accountID, profileID int) ([]domain.NextWatchEpisode, error) {
	body, err := c.doRequest(ctx, http.MethodGet, profilePath(accountID, profileID)+"/episodes/next", nil)
	if err != nil {
		return nil, err
	}
	return decode[[]domain.NextWatchEpisode](body)
}

// AddFavorite favorites a show or movie and returns the new record
func (c *Client) AddFavorite(ctx context.Context, accountID, profileID int, kind domain.ContentKind, contentID int) (*domain.FavoriteResult, error) {
	path := fmt.Sprintf("%s/%s/favorites", profilePath(accountID, profileID), kind.Plural())
	body, err := c.doRequest(ctx, http.MethodPost, path, favoriteRequest{ContentID: contentID})
	if err != nil {
		return nil, err
	}
	res, err := decode[domain.FavoriteResult](body)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RemoveFavorite unfavorites a show or movie
func (c *Client) RemoveFavorite(ctx context.Context, accountID, profileID int, kind domain.ContentKind, contentID int) (*domain.FavoriteResult, error) {
	path := fmt.Sprintf("%s/%s/favorites/%d", profilePath(accountID, profileID), kind.Plural(), contentID)
	body, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return &domain.FavoriteResult{}, nil
	}
	res, err := decode[domain.FavoriteResult](body)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateWatchStatus sets the watch status of a show or movie
func (c *Client) UpdateWatchStatus(
	ctx context.Context,
	accountID, profileID int,
	kind domain.ContentKind,
	contentID int,
	status domain.WatchStatus,
	recursive bool,
) error {
	path := fmt.Sprintf("%s/%s/watchstatus", profilePath(accountID, profileID), kind.Plural())
	_, err := c.doRequest(ctx, http.MethodPut, path, watchStatusRequest{
		ContentID: contentID,
		Status:    string(status),
		Recursive: recursive,
	})
	return err
}

var _ domain.ProfileRepository = (*Client)(nil)
