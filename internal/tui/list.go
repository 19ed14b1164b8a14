package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/showtrack/internal/domain"
	"github.com/mmcdole/showtrack/internal/profile"
	"github.com/mmcdole/showtrack/internal/tui/styles"
)

// Tab is one of the top-level views
type Tab int

const (
	TabNext Tab = iota
	TabShows
	TabMovies
	TabServices
)

var tabs = []Tab{TabNext, TabShows, TabMovies, TabServices}

func (t Tab) String() string {
	switch t {
	case TabNext:
		return "Up Next"
	case TabShows:
		return "Shows"
	case TabMovies:
		return "Movies"
	case TabServices:
		return "Services"
	default:
		return ""
	}
}

// row is one line in the list. Rows without a kind are not actionable.
type row struct {
	kind   domain.ContentKind
	id     int
	title  string
	detail string
	status domain.WatchStatus
}

func buildRows(tab Tab, snap profile.Snapshot, groups map[string]profile.ServiceGroup) []row {
	var rows []row
	switch tab {
	case TabNext:
		for _, ep := range snap.NextWatch {
			detail := ep.EpisodeCode()
			if ep.EpisodeTitle != "" {
				detail += " · " + ep.EpisodeTitle
			}
			rows = append(rows, row{kind: domain.KindShow, id: ep.ShowID, title: ep.ShowTitle, detail: detail})
		}
	case TabShows:
		for _, sh := range snap.Shows {
			rows = append(rows, row{
				kind:   domain.KindShow,
				id:     sh.ID,
				title:  sh.Title,
				detail: strings.Join(sh.StreamingServices, ", "),
				status: sh.WatchStatus,
			})
		}
	case TabMovies:
		for _, m := range snap.Movies {
			rows = append(rows, row{
				kind:   domain.KindMovie,
				id:     m.ID,
				title:  m.Title,
				detail: strings.Join(m.StreamingServices, ", "),
				status: m.WatchStatus,
			})
		}
	case TabServices:
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			g := groups[name]
			rows = append(rows, row{
				title:  name,
				detail: fmt.Sprintf("%d titles · %d shows · %d movies", g.TotalCount, len(g.Shows), len(g.Movies)),
			})
		}
	}
	return rows
}

// list is a cursor over rows with an optional fuzzy filter
type list struct {
	rows     []row
	filtered []int // indexes into rows
	cursor   int
	query    string
}

// SetRows replaces the rows, keeping the cursor on the same record when
// it is still present.
func (l *list) SetRows(rows []row) {
	prev, hadPrev := l.Selected()
	l.rows = rows
	l.applyFilter()
	if !hadPrev {
		return
	}
	for i, idx := range l.filtered {
		r := l.rows[idx]
		if r.kind == prev.kind && r.id == prev.id && r.title == prev.title {
			l.cursor = i
			return
		}
	}
}

// SetFilter narrows the rows to fuzzy title matches
func (l *list) SetFilter(query string) {
	l.query = query
	l.cursor = 0
	l.applyFilter()
}

func (l *list) applyFilter() {
	if l.query == "" {
		l.filtered = make([]int, len(l.rows))
		for i := range l.rows {
			l.filtered[i] = i
		}
	} else {
		lowerTitles := make([]string, len(l.rows))
		for i, r := range l.rows {
			lowerTitles[i] = strings.ToLower(r.title)
		}
		matches := fuzzy.Find(strings.ToLower(l.query), lowerTitles)
		l.filtered = make([]int, len(matches))
		for i, match := range matches {
			l.filtered[i] = match.Index
		}
	}
	l.clamp()
}

func (l *list) Move(delta int) {
	l.cursor += delta
	l.clamp()
}

func (l *list) clamp() {
	if l.cursor >= len(l.filtered) {
		l.cursor = len(l.filtered) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// Selected returns the row under the cursor
func (l *list) Selected() (row, bool) {
	if len(l.filtered) == 0 {
		return row{}, false
	}
	return l.rows[l.filtered[l.cursor]], true
}

func (l *list) Len() int { return len(l.filtered) }

// View renders at most height rows, scrolled to keep the cursor visible
func (l *list) View(width, height int) string {
	if len(l.filtered) == 0 {
		if l.query != "" {
			return styles.DimStyle.Render("  no matches")
		}
		return styles.DimStyle.Render("  nothing here yet")
	}
	if height < 1 {
		height = 1
	}
	start := 0
	if l.cursor >= height {
		start = l.cursor - height + 1
	}
	end := min(start+height, len(l.filtered))

	var b strings.Builder
	for i := start; i < end; i++ {
		r := l.rows[l.filtered[i]]
		avail := width - 4
		title := styles.Truncate(r.title, avail)
		line := statusIndicator(r.status) + " " + title
		if rest := avail - lipgloss.Width(title) - 2; r.detail != "" && rest > 3 {
			line += "  " + styles.DimStyle.Render(styles.Truncate(r.detail, rest))
		}
		if i == l.cursor {
			b.WriteString(styles.SelectedItemStyle.Width(width).Render(line))
		} else {
			b.WriteString(styles.NormalItemStyle.Render(line))
		}
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func statusIndicator(status domain.WatchStatus) string {
	switch status {
	case domain.WatchStatusWatched, domain.WatchStatusUpToDate:
		return styles.WatchedStyle.Render(styles.WatchedChar)
	case domain.WatchStatusWatching:
		return styles.WatchingStyle.Render(styles.WatchingChar)
	case domain.WatchStatusNotWatched:
		return styles.UnwatchedStyle.Render(styles.UnwatchedChar)
	case domain.WatchStatusUnaired:
		return styles.DimStyle.Render(styles.UnairedChar)
	default:
		return " "
	}
}
