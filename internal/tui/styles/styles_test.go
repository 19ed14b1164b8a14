package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Severance", 20, "Severance"},
		{"Severance", 9, "Severance"},
		{"Severance", 6, "Sever…"},
		{"Severance", 1, "…"},
		{"Severance", 0, ""},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.width)
		assert.Equal(t, tt.want, got, "Truncate(%q, %d)", tt.in, tt.width)
		assert.LessOrEqual(t, lipgloss.Width(got), max(tt.width, 0))
	}
}

func TestTruncate_KeepsStyledTextWithinWidth(t *testing.T) {
	styled := AccentStyle.Render("The Bear")

	got := Truncate(styled, 5)

	assert.LessOrEqual(t, lipgloss.Width(got), 5)
}
