// Package styles holds the showtrack palette and the lipgloss styles the
// view renders with.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	Teal    = lipgloss.Color("#2DD4BF")
	Ink     = lipgloss.Color("#0F172A")
	Slate   = lipgloss.Color("#334155")
	Muted   = lipgloss.Color("#64748B")
	Soft    = lipgloss.Color("#CBD5E1")
	Paper   = lipgloss.Color("#F8FAFC")
	Amber   = lipgloss.Color("#F59E0B")
	Lime    = lipgloss.Color("#84CC16")
	Crimson = lipgloss.Color("#F43F5E")
	Sky     = lipgloss.Color("#38BDF8")
)

var (
	TitleStyle    = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(Soft)
	DimStyle      = lipgloss.NewStyle().Foreground(Muted)
	AccentStyle   = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(Crimson)
	SuccessStyle  = lipgloss.NewStyle().Foreground(Lime)
	InfoStyle     = lipgloss.NewStyle().Foreground(Sky)
	SpinnerStyle  = lipgloss.NewStyle().Foreground(Teal)

	FilterPromptStyle = lipgloss.NewStyle().Foreground(Teal).Bold(true)
)

// Tabs sit on one line: the active tab is inverted, the rest are muted.
var (
	ActiveTabStyle   = lipgloss.NewStyle().Foreground(Ink).Background(Teal).Bold(true).Padding(0, 2)
	InactiveTabStyle = lipgloss.NewStyle().Foreground(Muted).Padding(0, 2)
)

var (
	SelectedItemStyle = lipgloss.NewStyle().Foreground(Paper).Background(Slate).PaddingLeft(1)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(Soft).PaddingLeft(1)
)

// Watch status glyphs
const (
	UnwatchedChar = "•"
	WatchingChar  = "▸"
	WatchedChar   = "✔"
	UnairedChar   = "·"
)

var (
	UnwatchedStyle = lipgloss.NewStyle().Foreground(Soft)
	WatchingStyle  = lipgloss.NewStyle().Foreground(Amber)
	WatchedStyle   = lipgloss.NewStyle().Foreground(Lime)
)

// Truncate shortens s to width cells, ending in an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
