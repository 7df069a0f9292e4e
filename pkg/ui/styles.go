package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

// panelStyle returns the border style for a pane.
func panelStyle(t Theme, focused bool) lipgloss.Style {
	c := t.Border
	if focused {
		c = t.Primary
	}
	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// TEXT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// truncate cuts s to at most width terminal cells, ending in "…" when cut.
// Wide runes (CJK file names) count as two cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// cellWidth returns the display width of unstyled s.
func cellWidth(s string) int {
	return runewidth.StringWidth(s)
}

// formatSize renders a byte count the way ls -h does.
func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// highlightMatch styles every occurrence of kw inside title. fold selects
// case-insensitive matching.
func highlightMatch(title, kw string, fold bool, base, hit lipgloss.Style) string {
	if kw == "" {
		return base.Render(title)
	}
	hay, needle := title, kw
	if fold {
		hay, needle = strings.ToLower(title), strings.ToLower(kw)
	}
	// Lowercasing can change byte lengths for some scripts; fall back to plain.
	if len(hay) != len(title) {
		return base.Render(title)
	}

	var sb strings.Builder
	for {
		i := strings.Index(hay, needle)
		if i < 0 || needle == "" {
			sb.WriteString(base.Render(title))
			break
		}
		if i > 0 {
			sb.WriteString(base.Render(title[:i]))
		}
		sb.WriteString(hit.Render(title[i : i+len(needle)]))
		title, hay = title[i+len(needle):], hay[i+len(needle):]
		if title == "" {
			break
		}
	}
	return sb.String()
}
