package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# lv

Browse a tree of log files. The left pane is the log tree, the right pane
the selected file's content.

## Tree

| Key | Action |
|-----|--------|
| ↑ ↓ / k j | move |
| pgup pgdn | page |
| g G | top, bottom |
| enter | open file, toggle directory |
| → l | expand |
| ← h | collapse, or jump to parent |

## Search

| Key | Action |
|-----|--------|
| / | edit the keyword |
| enter | apply now |
| esc | clear the keyword |

Matching directories open automatically and stay open after the keyword
is cleared.

## Actions

| Key | Action |
|-----|--------|
| d | delete file or directory (asks first) |
| s | download file into the download directory |
| y | copy the entry path |
| r | reload the tree |
| tab | switch between tree and content |
| ? | toggle this help |
| q | quit |
`

// renderHelp renders the help text for width. Falls back to the raw
// markdown if glamour cannot build a renderer.
func renderHelp(width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
