package domain

import (
	"fmt"
	"strings"
)

// ContentKind distinguishes the two tracked content types
type ContentKind string

const (
	KindShow  ContentKind = "show"
	KindMovie ContentKind = "movie"
)

// ParseContentKind validates a user or wire supplied content kind
func ParseContentKind(s string) (ContentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "show", "shows", "tv":
		return KindShow, nil
	case "movie", "movies", "film":
		return KindMovie, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Plural returns the URL path segment for the kind ("shows", "movies")
func (k ContentKind) Plural() string {
	return string(k) + "s"
}

// Label returns the capitalized display name ("Show", "Movie")
func (k ContentKind) Label() string {
	switch k {
	case KindShow:
		return "Show"
	case KindMovie:
		return "Movie"
	default:
		return "Content"
	}
}

// WatchStatus represents the viewing state of a show or movie.
// Values match the server's wire representation.
type WatchStatus string

const (
	WatchStatusUnaired    WatchStatus = "UNAIRED"
	WatchStatusNotWatched WatchStatus = "NOT_WATCHED"
	WatchStatusWatching   WatchStatus = "WATCHING"
	WatchStatusUpToDate   WatchStatus = "UP_TO_DATE"
	WatchStatusWatched    WatchStatus = "WATCHED"
)

// ParseWatchStatus accepts the wire form and the common spellings a user
// would type on the command line ("watched", "up-to-date", "not watched").
func ParseWatchStatus(s string) (WatchStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	status := WatchStatus(normalized)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Valid reports whether w is one of the known statuses
func (w WatchStatus) Valid() bool {
	switch w {
	case WatchStatusUnaired, WatchStatusNotWatched, WatchStatusWatching,
		WatchStatusUpToDate, WatchStatusWatched:
		return true
	}
	return false
}

// String returns a human-readable representation of the watch status
func (w WatchStatus) String() string {
	switch w {
	case WatchStatusUnaired:
		return "Unaired"
	case WatchStatusNotWatched:
		return "Not Watched"
	case WatchStatusWatching:
		return "Watching"
	case WatchStatusUpToDate:
		return "Up To Date"
	case WatchStatusWatched:
		return "Watched"
	default:
		return "Unknown"
	}
}

// Profile is one viewer profile under an account
type Profile struct {
	ID        int    `json:"id"`
	AccountID int    `json:"accountId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
}

// Show represents a favorited TV series and the profile's progress in it
type Show struct {
	ID                int         `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	ReleaseDate       string      `json:"releaseDate,omitempty"`
	Network           string      `json:"network,omitempty"`
	Genres            []string    `json:"genres,omitempty"`
	StreamingServices []string    `json:"streamingServices,omitempty"`
	WatchStatus       WatchStatus `json:"watchStatus"`
	SeasonCount       int         `json:"seasonCount,omitempty"`
	EpisodeCount      int         `json:"episodeCount,omitempty"`
}

// Movie represents a favorited movie
type Movie struct {
	ID                int         `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description,omitempty"`
	ReleaseDate       string      `json:"releaseDate,omitempty"`
	Runtime           int         `json:"runtime,omitempty"` // minutes
	MPARating         string      `json:"mpaRating,omitempty"`
	Genres            []string    `json:"genres,omitempty"`
	StreamingServices []string    `json:"streamingServices,omitempty"`
	WatchStatus       WatchStatus `json:"watchStatus"`
}

// NextWatchEpisode is the next unwatched, already aired episode of a show
type NextWatchEpisode struct {
	ShowID        int    `json:"showId"`
	ShowTitle     string `json:"showTitle"`
	EpisodeID     int    `json:"episodeId"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	EpisodeTitle  string `json:"episodeTitle,omitempty"`
	AirDate       string `json:"airDate,omitempty"`
	Network       string `json:"network,omitempty"`
}

// EpisodeCode returns the formatted episode code (e.g., "S01E05")
func (e NextWatchEpisode) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// ProfileBundle is everything the server knows about one profile
type ProfileBundle struct {
	Profile        Profile            `json:"profile"`
	Shows          []Show             `json:"shows"`
	Movies         []Movie            `json:"movies"`
	NextWatch      []NextWatchEpisode `json:"nextWatch"`
	RecentMovies   []int              `json:"recentMovies"`
	UpcomingMovies []int              `json:"upcomingMovies"`
}

// FavoriteResult is the server's answer to a favorite add or remove.
// A nil slice means the server did not include that list; an empty,
// non-nil slice means it did and the list is now empty.
type FavoriteResult struct {
	Show           *Show              `json:"show,omitempty"`
	Movie          *Movie             `json:"movie,omitempty"`
	RemovedID      int                `json:"removedId,omitempty"`
	NextWatch      []NextWatchEpisode `json:"nextWatch,omitempty"`
	RecentMovies   []int              `json:"recentMovies,omitempty"`
	UpcomingMovies []int              `json:"upcomingMovies,omitempty"`
}
