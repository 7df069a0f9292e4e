package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vanderheijden86/logview/pkg/debug"
	"github.com/vanderheijden86/logview/pkg/metrics"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
	"github.com/vanderheijden86/logview/pkg/viewer"
	"github.com/vanderheijden86/logview/pkg/watcher"
)

// focus represents which UI element has keyboard focus
type focus int

const (
	focusTree focus = iota
	focusContent
	focusSearch
)

// Options configures the browser.
type Options struct {
	// Source names the log source in the header and keys persisted state.
	Source string
	// Filter options; Policy also drives match highlighting.
	Policy    tree.MatchPolicy
	MatchProp tree.MatchProp
	KeepTree  bool
	// DebounceDelay is the quiet period before a typed keyword is applied.
	DebounceDelay time.Duration
	DownloadDir   string
	// StateDir holds tree-state.json files. Empty disables persistence.
	StateDir   string
	SplitRatio float64
	// Watcher, when set, triggers a reload whenever the log root changes.
	Watcher *watcher.Watcher
	Logger  *zap.Logger
}

func (o Options) filterOptions() []tree.Option {
	opts := []tree.Option{tree.WithPolicy(o.Policy), tree.WithKeepMatchedSubtree(o.KeepTree)}
	if o.MatchProp != "" {
		opts = append(opts, tree.WithMatchProp(o.MatchProp))
	}
	return opts
}

// Model is the main Bubble Tea model for lv
type Model struct {
	coll  viewer.Collaborator
	opts  Options
	state viewer.State
	log   *zap.Logger

	theme   Theme
	keys    KeyMap
	tree    TreePane
	content viewport.Model
	search  textinput.Model
	spinner spinner.Model

	debouncer *viewer.KeywordDebouncer
	confirm   *deleteConfirm

	focus         focus
	showHelp      bool
	help          viewport.Model
	treeLoading   bool
	restored      bool // persisted expansion applied
	width, height int

	statusMsg     string
	statusIsError bool
	statusSeq     int
}

// NewModel creates the browser for c.
func NewModel(c viewer.Collaborator, opts Options) Model {
	if opts.SplitRatio < 0.2 || opts.SplitRatio > 0.8 {
		opts.SplitRatio = 0.35
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	theme := DefaultTheme(lipgloss.DefaultRenderer())

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "filter by name"
	search.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.PrimaryBold

	m := Model{
		coll:        c,
		opts:        opts,
		state:       viewer.New(opts.filterOptions()...),
		log:         log,
		theme:       theme,
		keys:        DefaultKeyMap(),
		tree:        NewTreePane(theme),
		content:     viewport.New(80, 20),
		search:      search,
		spinner:     sp,
		debouncer:   viewer.NewKeywordDebouncer(opts.DebounceDelay),
		help:        viewport.New(80, 20),
		treeLoading: true,
		width:       120,
		height:      40,
	}
	m.layout()
	m.refreshContent(false)
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		listLogsCmd(m.coll),
		waitKeywordCmd(m.debouncer),
		m.spinner.Tick,
	}
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

// State returns the viewer state (for tests).
func (m Model) State() viewer.State { return m.state }

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) { return m.statusMsg, m.statusIsError }

// Close releases the debouncer. Call after the program exits.
func (m Model) Close() {
	m.debouncer.Stop()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// huh.Form needs to receive ALL message types, not just keys, for its
	// internal navigation to work.
	if m.confirm != nil {
		cmds = append(cmds, m.confirm.Update(msg))
		if m.confirm.done() {
			node, ok := m.confirm.node, m.confirm.confirmed()
			m.confirm = nil
			if ok {
				m.setStatus(fmt.Sprintf("Deleting %s...", node.Key), false)
				cmds = append(cmds, deleteCmd(m.coll, node))
			}
			return m, tea.Batch(cmds...)
		}
		if _, isKey := msg.(tea.KeyMsg); isKey {
			return m, tea.Batch(cmds...)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.state.Content().Kind == viewer.ContentLoading {
			m.refreshContent(false)
		}

	case TreeLoadedMsg:
		m.treeLoading = false
		if msg.Err != nil {
			metrics.TransportErrs.Inc()
			m.log.Warn("list logs failed", zap.Error(msg.Err))
			cmds = append(cmds, m.setStatus(msg.Err.Error(), true))
			break
		}
		metrics.TreeReloads.Inc()
		m.state = m.state.ListLoaded(msg.Nodes)
		if !m.restored {
			m.restored = true
			saved := LoadTreeState(m.opts.StateDir, m.opts.Source)
			m.state = m.state.ExpandToggled(saved.Union(m.state.ExpandedKeys()))
		}
		m.syncTree()
		m.refreshContent(false)

	case ContentLoadedMsg:
		var err error
		if msg.Err != nil {
			m.state, err = m.state.ContentFailed(msg.Req, msg.Err)
		} else {
			m.state, err = m.state.ContentLoaded(msg.Req, msg.Text)
		}
		if errors.Is(err, viewer.ErrStaleResponse) {
			debug.Log("discarded stale content for %s (seq %d)", msg.Req.Key, msg.Req.Seq)
			break
		}
		if msg.Err != nil {
			metrics.TransportErrs.Inc()
			cmds = append(cmds, m.setStatus(msg.Err.Error(), true))
		}
		m.refreshContent(true)

	case DeletedMsg:
		if msg.Err != nil {
			metrics.TransportErrs.Inc()
			m.log.Warn("delete failed", zap.String("key", msg.Node.Key), zap.Error(msg.Err))
			cmds = append(cmds, m.setStatus(msg.Err.Error(), true))
			break
		}
		m.state = m.state.Deleted(msg.Node)
		m.log.Info("deleted", zap.String("key", msg.Node.Key), zap.String("type", string(msg.Node.Type)))
		m.syncTree()
		m.refreshContent(false)
		cmds = append(cmds, m.setStatus("Deleted "+msg.Node.Key, false))

	case DownloadedMsg:
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus(msg.Err.Error(), true))
			break
		}
		cmds = append(cmds, m.setStatus("Saved "+msg.Path, false))

	case KeywordMsg:
		m.applyKeyword(msg.Keyword)
		cmds = append(cmds, waitKeywordCmd(m.debouncer))

	case FileChangedMsg:
		debug.Log("log root changed, reloading")
		cmds = append(cmds, listLogsCmd(m.coll))
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
			m.statusIsError = false
		}

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Clear), key.Matches(msg, m.keys.Quit):
			m.showHelp = false
			return m, nil
		}
		var cmd tea.Cmd
		m.help, cmd = m.help.Update(msg)
		return m, cmd
	}

	if m.focus == focusSearch {
		return m.handleSearchKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.SetContent(renderHelp(m.help.Width))
		m.help.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusTree {
			m.focus = focusContent
		} else {
			m.focus = focusTree
		}
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.focus = focusSearch
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Reload):
		m.treeLoading = true
		return m, listLogsCmd(m.coll)
	}

	if m.focus == focusContent {
		var cmd tea.Cmd
		m.content, cmd = m.content.Update(msg)
		return m, cmd
	}
	return m.handleTreeKeys(msg)
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.debouncer.Flush(m.search.Value())
		m.search.Blur()
		m.focus = focusTree
		return m, nil
	case tea.KeyEsc:
		m.search.Reset()
		m.debouncer.Flush("")
		m.search.Blur()
		m.focus = focusTree
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.debouncer.Submit(v)
	}
	return m, cmd
}

func (m Model) handleTreeKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.PageUp):
		m.tree.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.tree.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.tree.JumpToTop()
	case key.Matches(msg, m.keys.Bottom):
		m.tree.JumpToBottom()

	case key.Matches(msg, m.keys.Open):
		if n := m.tree.CursorNode(); n != nil {
			return m.open(*n)
		}

	case key.Matches(msg, m.keys.Expand):
		if n := m.tree.CursorNode(); n != nil && n.IsDir() && !m.tree.CursorExpanded() {
			m.toggle(n.Key)
		}

	case key.Matches(msg, m.keys.Collapse):
		if n := m.tree.CursorNode(); n != nil && n.IsDir() && m.tree.CursorExpanded() {
			m.toggle(n.Key)
		} else {
			m.tree.JumpToParent()
		}

	case key.Matches(msg, m.keys.Clear):
		if m.state.Keyword() != "" {
			m.search.Reset()
			m.debouncer.Flush("")
		}

	case key.Matches(msg, m.keys.Delete):
		if n := m.tree.CursorNode(); n != nil {
			m.confirm = newDeleteConfirm(*n)
			cmd := m.confirm.Init()
			return m, cmd
		}

	case key.Matches(msg, m.keys.Download):
		n := m.tree.CursorNode()
		if n == nil {
			return m, nil
		}
		if !n.IsFile() {
			cmd := m.setStatus(viewer.ErrNotDownloadable.Error(), true)
			return m, cmd
		}
		cmd := m.setStatus(fmt.Sprintf("Downloading %s...", n.Title), false)
		return m, tea.Batch(cmd, downloadCmd(m.coll, *n, m.opts.DownloadDir))

	case key.Matches(msg, m.keys.Copy):
		if n := m.tree.CursorNode(); n != nil {
			cmd := m.copyPath(*n)
			return m, cmd
		}
	}
	return m, nil
}

// open selects node. Directories toggle as well; files start a content load.
func (m Model) open(n model.TreeNode) (Model, tea.Cmd) {
	if n.IsDir() {
		m.toggle(n.Key)
	}
	next, req := m.state.NodeSelected(n)
	m.state = next
	m.syncTree()
	m.refreshContent(false)
	if req == nil {
		return m, nil
	}
	return m, tea.Batch(loadContentCmd(m.coll, *req), m.spinner.Tick)
}

func (m *Model) toggle(key string) {
	m.state = m.state.Toggle(key)
	m.syncTree()
	SaveTreeState(m.opts.StateDir, m.opts.Source, m.state.ExpandedKeys())
}

func (m *Model) applyKeyword(kw string) {
	m.state = m.state.KeywordChanged(kw)
	m.syncTree()
	if kw != "" {
		SaveTreeState(m.opts.StateDir, m.opts.Source, m.state.ExpandedKeys())
	}
	debug.Log("keyword %q: %d rows", kw, m.tree.Len())
}

func (m *Model) copyPath(n model.TreeNode) tea.Cmd {
	if err := clipboard.WriteAll(n.Key); err != nil {
		return m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
	}
	return m.setStatus("Copied "+n.Key, false)
}

func (m *Model) setStatus(s string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.statusMsg = s
	m.statusIsError = isErr
	return clearStatusCmd(m.statusSeq)
}

func (m *Model) syncTree() {
	m.tree.Sync(m.state, m.opts.Policy)
}

// refreshContent re-renders the content pane. Freshly loaded logs scroll to
// the end, where the newest lines are.
func (m *Model) refreshContent(scrollToEnd bool) {
	c := m.state.Content()
	switch c.Kind {
	case viewer.ContentLoading:
		m.content.SetContent(m.spinner.View() + " " + viewer.LoadingText)
	case viewer.ContentLoaded:
		m.content.SetContent(strings.ReplaceAll(c.Text, "\t", "    "))
		if scrollToEnd {
			m.content.GotoBottom()
		}
	default:
		m.content.SetContent(m.theme.MutedText.Render(viewer.PlaceholderText))
		m.content.GotoTop()
	}
}

// layout sizes every component from width and height.
func (m *Model) layout() {
	bodyH := m.height - 3 // header, search, footer
	if bodyH < 3 {
		bodyH = 3
	}
	treeW := int(float64(m.width) * m.opts.SplitRatio)
	contentW := m.width - treeW

	// Panel borders take one cell on each side.
	m.tree.SetSize(max(treeW-2, 1), max(bodyH-2, 1))
	m.content.Width = max(contentW-2, 1)
	m.content.Height = max(bodyH-2, 1)
	m.help.Width = max(m.width-2, 1)
	m.help.Height = max(bodyH-2, 1)
	m.search.Width = max(m.width-4, 1)
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()
	header := m.renderHeader()
	search := m.search.View()
	if m.focus != focusSearch && m.state.Keyword() == "" {
		search = m.theme.MutedText.Render("/ to search")
	}

	var body string
	switch {
	case m.showHelp:
		body = panelStyle(m.theme, true).Render(m.help.View())
	default:
		left := panelStyle(m.theme, m.focus == focusTree).
			Width(m.tree.width).Height(m.tree.height).
			Render(m.tree.View())
		var right string
		if m.confirm != nil {
			right = panelStyle(m.theme, true).
				BorderForeground(m.theme.Danger).
				Width(m.content.Width).Height(m.content.Height).
				Render(m.confirm.View())
		} else {
			right = panelStyle(m.theme, m.focus == focusContent).
				Width(m.content.Width).Height(m.content.Height).
				Render(m.content.View())
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, search, body, m.renderFooter())
}

// renderHeader shows the source and the selected entry with its size.
func (m Model) renderHeader() string {
	title := m.theme.Header.Render("lv")
	src := m.theme.MutedText.Render(" " + m.opts.Source)

	var sel string
	if n := m.state.SelectedNode(); n != nil {
		sel = "  " + m.theme.PrimaryBold.Render(n.Key)
		if n.IsFile() {
			sel += m.theme.MutedText.Render(" (" + formatSize(n.Size) + ")")
		}
	}
	if m.treeLoading {
		sel += "  " + m.spinner.View()
	}
	line := title + src + sel
	return truncateStyled(line, m.width)
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		style := m.theme.OKText
		if m.statusIsError {
			style = m.theme.ErrorText
		}
		return truncateStyled(style.Render(m.statusMsg), m.width)
	}
	var parts []string
	for _, b := range m.keys.footer() {
		h := b.Help()
		parts = append(parts, m.theme.PrimaryBold.Render(h.Key)+" "+m.theme.MutedText.Render(h.Desc))
	}
	return truncateStyled(strings.Join(parts, "  "), m.width)
}

// truncateStyled clamps an already styled line to width cells.
func truncateStyled(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
