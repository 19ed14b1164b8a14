package profile

import (
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/showtrack/internal/domain"
)

// Snapshot is the cached state of the one active profile.
type Snapshot struct {
	Profile        *domain.Profile
	Shows          []domain.Show
	Movies         []domain.Movie
	NextWatch      []domain.NextWatchEpisode
	RecentMovies   []int // ids into Movies
	UpcomingMovies []int // ids into Movies

	// Derived from Shows/Movies after every change
	ShowGenres             []string
	ShowStreamingServices  []string
	MovieGenres            []string
	MovieStreamingServices []string

	// LastUpdated is nil until a load succeeds, and again after a failed load
	LastUpdated *time.Time
	Loading     bool
	Error       string
}

// HasProfile reports whether an account and profile are both known
func (s Snapshot) HasProfile() bool {
	return s.Profile != nil && s.Profile.ID != 0 && s.Profile.AccountID != 0
}

// persistedSnapshot is the durable form. Derived sets and in-flight flags
// are recomputed on rehydrate rather than stored.
type persistedSnapshot struct {
	Profile        *domain.Profile           `json:"profile"`
	Shows          []domain.Show             `json:"shows"`
	Movies         []domain.Movie            `json:"movies"`
	NextWatch      []domain.NextWatchEpisode `json:"nextWatch"`
	RecentMovies   []int                     `json:"recentMovies"`
	UpcomingMovies []int                     `json:"upcomingMovies"`
	LastUpdated    *time.Time                `json:"lastUpdated"`
}

func (s Snapshot) persisted() persistedSnapshot {
	return persistedSnapshot{
		Profile:        s.Profile,
		Shows:          s.Shows,
		Movies:         s.Movies,
		NextWatch:      s.NextWatch,
		RecentMovies:   s.RecentMovies,
		UpcomingMovies: s.UpcomingMovies,
		LastUpdated:    s.LastUpdated,
	}
}

func (p persistedSnapshot) snapshot() Snapshot {
	s := Snapshot{
		Profile:        p.Profile,
		Shows:          p.Shows,
		Movies:         p.Movies,
		NextWatch:      p.NextWatch,
		RecentMovies:   p.RecentMovies,
		UpcomingMovies: p.UpcomingMovies,
		LastUpdated:    p.LastUpdated,
	}
	s.derive()
	return s
}

// derive recomputes the four genre/service sets from the primary collections.
func (s *Snapshot) derive() {
	s.ShowGenres = deriveSet(s.Shows, func(sh domain.Show) []string { return sh.Genres })
	s.ShowStreamingServices = deriveSet(s.Shows, func(sh domain.Show) []string { return sh.StreamingServices })
	s.MovieGenres = deriveSet(s.Movies, func(m domain.Movie) []string { return m.Genres })
	s.MovieStreamingServices = deriveSet(s.Movies, func(m domain.Movie) []string { return m.StreamingServices })
}

// deriveSet collects the distinct, non-blank values of a multi-valued field
// across a collection, sorted.
func deriveSet[T any](items []T, values func(T) []string) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, v := range values(item) {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			seen[v] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	set := make([]string, 0, len(seen))
	for v := range seen {
		set = append(set, v)
	}
	sort.Strings(set)
	return set
}

// clone returns a deep copy so readers never alias container state.
func (s Snapshot) clone() Snapshot {
	dup := s
	if s.Profile != nil {
		p := *s.Profile
		dup.Profile = &p
	}
	if s.LastUpdated != nil {
		ts := *s.LastUpdated
		dup.LastUpdated = &ts
	}
	dup.Shows = cloneShows(s.Shows)
	dup.Movies = cloneMovies(s.Movies)
	dup.NextWatch = slices.Clone(s.NextWatch)
	dup.RecentMovies = slices.Clone(s.RecentMovies)
	dup.UpcomingMovies = slices.Clone(s.UpcomingMovies)
	dup.ShowGenres = slices.Clone(s.ShowGenres)
	dup.ShowStreamingServices = slices.Clone(s.ShowStreamingServices)
	dup.MovieGenres = slices.Clone(s.MovieGenres)
	dup.MovieStreamingServices = slices.Clone(s.MovieStreamingServices)
	return dup
}

func cloneShows(shows []domain.Show) []domain.Show {
	if shows == nil {
		return nil
	}
	dup := make([]domain.Show, len(shows))
	for i, sh := range shows {
		sh.Genres = slices.Clone(sh.Genres)
		sh.StreamingServices = slices.Clone(sh.StreamingServices)
		dup[i] = sh
	}
	return dup
}

func cloneMovies(movies []domain.Movie) []domain.Movie {
	if movies == nil {
		return nil
	}
	dup := make([]domain.Movie, len(movies))
	for i, m := range movies {
		m.Genres = slices.Clone(m.Genres)
		m.StreamingServices = slices.Clone(m.StreamingServices)
		dup[i] = m
	}
	return dup
}
