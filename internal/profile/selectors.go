package profile

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/showtrack/internal/domain"
)

// WatchCounts aggregates a collection by watch status
type WatchCounts struct {
	Watched    int
	Watching   int
	NotWatched int
	UpToDate   int
	Unaired    int
}

// Total returns the number of records counted
func (w WatchCounts) Total() int {
	return w.Watched + w.Watching + w.NotWatched + w.UpToDate + w.Unaired
}

func (w *WatchCounts) add(status domain.WatchStatus) {
	switch status {
	case domain.WatchStatusWatched:
		w.Watched++
	case domain.WatchStatusWatching:
		w.Watching++
	case domain.WatchStatusNotWatched:
		w.NotWatched++
	case domain.WatchStatusUpToDate:
		w.UpToDate++
	case domain.WatchStatusUnaired:
		w.Unaired++
	}
}

// ShowWatchCounts counts the live show collection. Never cached.
func (c *Container) ShowWatchCounts() WatchCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var counts WatchCounts
	for _, sh := range c.state.Shows {
		counts.add(sh.WatchStatus)
	}
	return counts
}

// MovieWatchCounts counts the live movie collection. Never cached.
func (c *Container) MovieWatchCounts() WatchCounts {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var counts WatchCounts
	for _, m := range c.state.Movies {
		counts.add(m.WatchStatus)
	}
	return counts
}

// ServiceGroup is the content available on one streaming service
type ServiceGroup struct {
	Shows      []domain.Show
	Movies     []domain.Movie
	TotalCount int
}

// ContentByStreamingService groups shows and movies by streaming service.
// A record listed on several services appears in each group.
func (c *Container) ContentByStreamingService() map[string]ServiceGroup {
	snap := c.Snapshot()
	groups := make(map[string]ServiceGroup)

	for _, sh := range snap.Shows {
		for _, svc := range distinct(sh.StreamingServices) {
			g := groups[svc]
			g.Shows = append(g.Shows, sh)
			g.TotalCount++
			groups[svc] = g
		}
	}
	for _, m := range snap.Movies {
		for _, svc := range distinct(m.StreamingServices) {
			g := groups[svc]
			g.Movies = append(g.Movies, m)
			g.TotalCount++
			groups[svc] = g
		}
	}
	return groups
}

// RecentMovieRecords resolves RecentMovies into records, skipping ids with
// no matching movie.
func (c *Container) RecentMovieRecords() []domain.Movie {
	snap := c.Snapshot()
	return resolveMovies(snap.Movies, snap.RecentMovies)
}

// UpcomingMovieRecords resolves UpcomingMovies into records.
func (c *Container) UpcomingMovieRecords() []domain.Movie {
	snap := c.Snapshot()
	return resolveMovies(snap.Movies, snap.UpcomingMovies)
}

func resolveMovies(movies []domain.Movie, ids []int) []domain.Movie {
	byID := make(map[int]domain.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	out := make([]domain.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// SearchResult is one title match from Search
type SearchResult struct {
	Kind     domain.ContentKind
	ID       int
	Title    string
	Distance int // lower is closer
}

// Search fuzzy-matches query against show and movie titles, best first.
func (c *Container) Search(query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	snap := c.Snapshot()

	type entry struct {
		kind domain.ContentKind
		id   int
	}
	titles := make([]string, 0, len(snap.Shows)+len(snap.Movies))
	entries := make([]entry, 0, cap(titles))
	for _, sh := range snap.Shows {
		titles = append(titles, sh.Title)
		entries = append(entries, entry{domain.KindShow, sh.ID})
	}
	for _, m := range snap.Movies {
		titles = append(titles, m.Title)
		entries = append(entries, entry{domain.KindMovie, m.ID})
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	results := make([]SearchResult, len(ranks))
	for i, r := range ranks {
		e := entries[r.OriginalIndex]
		results[i] = SearchResult{Kind: e.kind, ID: e.id, Title: r.Target, Distance: r.Distance}
	}
	return results
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
