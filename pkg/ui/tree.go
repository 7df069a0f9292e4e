// tree.go - Log tree pane: windowed rendering of the filtered tree
package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
	"github.com/vanderheijden86/logview/pkg/viewer"
)

// Empty state messages.
const (
	emptyNoLogs    = "No logs"
	emptyNoMatches = "No matches"
)

// TreePane renders viewer.State.Visible as an indented tree with a cursor.
// The cursor is UI-only; selection lives in the viewer state and changes
// only on enter.
type TreePane struct {
	theme Theme

	rows []viewer.Row
	last []bool // row is the last of its siblings

	cursor         int
	viewportOffset int
	width, height  int

	keyword     string
	fold        bool
	selectedKey string
	emptyMsg    string
}

// NewTreePane creates an empty pane.
func NewTreePane(theme Theme) TreePane {
	return TreePane{theme: theme, emptyMsg: emptyNoLogs, fold: true}
}

// SetSize sets the pane's inner dimensions.
func (t *TreePane) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureCursorVisible()
}

// Sync rebuilds the rows from s and keeps the cursor on the same key when it
// is still visible.
func (t *TreePane) Sync(s viewer.State, policy tree.MatchPolicy) {
	key := t.CursorKey()

	t.rows = s.Visible()
	t.last = lastSiblings(t.rows)
	t.keyword = s.Keyword()
	t.fold = policy == tree.CaseInsensitive
	t.selectedKey = s.SelectedKey()

	switch {
	case s.Empty():
		t.emptyMsg = emptyNoLogs
	case len(t.rows) == 0:
		t.emptyMsg = emptyNoMatches
	}

	if key == "" || !t.SelectKey(key) {
		t.clampCursor()
	}
	t.ensureCursorVisible()
}

// lastSiblings marks, for pre-order rows, which row is the last child of its
// parent. Rows of an expanded directory are all visible, so visible siblings
// are all siblings.
func lastSiblings(rows []viewer.Row) []bool {
	last := make([]bool, len(rows))
	// seen[d] is true once a later row at depth d has been found before any
	// shallower row closed the sibling group.
	var seen []bool
	for i := len(rows) - 1; i >= 0; i-- {
		d := rows[i].Depth
		for len(seen) <= d {
			seen = append(seen, false)
		}
		last[i] = !seen[d]
		seen[d] = true
		for j := d + 1; j < len(seen); j++ {
			seen[j] = false
		}
	}
	return last
}

// EmptyMessage returns what View shows when there are no rows.
func (t *TreePane) EmptyMessage() string { return t.emptyMsg }

// Len returns the number of visible rows.
func (t *TreePane) Len() int { return len(t.rows) }

// Cursor returns the cursor row index.
func (t *TreePane) Cursor() int { return t.cursor }

// CursorNode returns the node under the cursor, or nil.
func (t *TreePane) CursorNode() *model.TreeNode {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].Node
	}
	return nil
}

// CursorKey returns the key under the cursor, or "".
func (t *TreePane) CursorKey() string {
	if n := t.CursorNode(); n != nil {
		return n.Key
	}
	return ""
}

// CursorExpanded reports whether the cursor is on an open directory.
func (t *TreePane) CursorExpanded() bool {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].Expanded
	}
	return false
}

// SelectKey moves the cursor to key. Returns false if key is not visible.
func (t *TreePane) SelectKey(key string) bool {
	for i, r := range t.rows {
		if r.Node.Key == key {
			t.cursor = i
			t.ensureCursorVisible()
			return true
		}
	}
	return false
}

// MoveDown moves the cursor down one row.
func (t *TreePane) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (t *TreePane) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// PageDown moves the cursor a page down.
func (t *TreePane) PageDown() {
	t.cursor += t.visibleCount()
	t.clampCursor()
	t.ensureCursorVisible()
}

// PageUp moves the cursor a page up.
func (t *TreePane) PageUp() {
	t.cursor -= t.visibleCount()
	t.clampCursor()
	t.ensureCursorVisible()
}

// JumpToTop moves the cursor to the first row.
func (t *TreePane) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreePane) JumpToBottom() {
	t.cursor = len(t.rows) - 1
	t.clampCursor()
	t.ensureCursorVisible()
}

// JumpToParent moves the cursor to the parent directory of the cursor row.
func (t *TreePane) JumpToParent() bool {
	n := t.CursorNode()
	if n == nil || n.Parent == "" {
		return false
	}
	return t.SelectKey(n.Parent)
}

func (t *TreePane) clampCursor() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// visibleCount is the number of rows that fit, leaving one line for the
// position indicator when scrolling is needed.
func (t *TreePane) visibleCount() int {
	n := t.height
	if n <= 0 {
		n = 20
	}
	if len(t.rows) > n {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ensureCursorVisible scrolls just enough to keep the cursor on screen.
func (t *TreePane) ensureCursorVisible() {
	if len(t.rows) == 0 {
		t.viewportOffset = 0
		return
	}
	n := t.visibleCount()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+n {
		t.viewportOffset = t.cursor - n + 1
	}
	maxOffset := len(t.rows) - n
	if maxOffset < 0 {
		maxOffset = 0
	}
	if t.viewportOffset > maxOffset {
		t.viewportOffset = maxOffset
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}

func (t *TreePane) visibleRange() (start, end int) {
	start = t.viewportOffset
	end = start + t.visibleCount()
	if end > len(t.rows) {
		end = len(t.rows)
	}
	return start, end
}

// View renders the visible window of rows.
func (t TreePane) View() string {
	if len(t.rows) == 0 {
		return t.theme.MutedText.Render(t.emptyMsg)
	}

	width := t.width
	if width <= 0 {
		width = 40
	}

	// open[d] is true while the ancestor at depth d has siblings below it.
	open := make([]bool, 0, 8)
	var sb strings.Builder
	start, end := t.visibleRange()
	for i := 0; i < end; i++ {
		r := t.rows[i]
		open = append(open[:r.Depth], !t.last[i])
		if i < start {
			continue
		}
		line := t.renderRow(i, open[:r.Depth], width)
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}

	if len(t.rows) > t.visibleCount() {
		sb.WriteString("\n")
		sb.WriteString(t.theme.MutedText.Render(fmt.Sprintf(" %d-%d of %d", start+1, end, len(t.rows))))
	}
	return sb.String()
}

// renderRow renders "[branches][indicator] title  size".
func (t TreePane) renderRow(i int, ancestorsOpen []bool, width int) string {
	r := t.rows[i]
	n := r.Node

	var prefix strings.Builder
	if r.Depth > 0 {
		for _, o := range ancestorsOpen[1:] {
			if o {
				prefix.WriteString("│  ")
			} else {
				prefix.WriteString("   ")
			}
		}
		if t.last[i] {
			prefix.WriteString("└─ ")
		} else {
			prefix.WriteString("├─ ")
		}
	}

	indicator := "  "
	if n.IsDir() {
		indicator = "▸ "
		if r.Expanded {
			indicator = "▾ "
		}
	}

	size := ""
	if n.IsFile() {
		size = formatSize(n.Size)
	}

	// 1 cell for the cursor bar
	avail := width - 1 - cellWidth(prefix.String()) - cellWidth(indicator) - cellWidth(size) - 1
	title := truncate(n.Title, avail)

	base := t.theme.FileText
	if n.IsDir() {
		base = t.theme.DirText
	}
	styledTitle := highlightMatch(title, t.keyword, t.fold, base, t.theme.MatchText)

	gap := width - 1 - cellWidth(prefix.String()) - cellWidth(indicator) - cellWidth(title) - cellWidth(size)
	if gap < 1 {
		gap = 1
	}

	line := t.theme.MutedText.Render(prefix.String()) +
		t.theme.MutedText.Render(indicator) +
		styledTitle +
		strings.Repeat(" ", gap) +
		t.theme.MutedText.Render(size)

	if n.Key == t.selectedKey {
		line = t.theme.Selected.Render(line)
	}
	if i == t.cursor {
		return t.theme.Cursor.Render(line)
	}
	return " " + line
}
