// Package viewer holds the viewer state machine: the raw log tree, the
// filtered view of it, selection, expansion and the content pane, plus the
// Session driver that runs collaborator calls through it.
//
// State is a value. Every transition takes the current State and returns the
// next one; maps and slices reachable from a State are never written after
// the State has been returned, so older values stay valid.
package viewer

import (
	"time"

	"github.com/vanderheijden86/logview/pkg/debug"
	"github.com/vanderheijden86/logview/pkg/metrics"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
)

// State is the viewer's complete UI state.
type State struct {
	opts []tree.Option

	raw      []model.TreeNode
	index    *tree.Index
	keyword  string
	filtered tree.FilterResult

	selectedKey string
	selected    *model.TreeNode // points into raw
	expanded    model.KeySet
	content     Content
	seq         uint64
}

// New returns an empty State. opts are passed to every tree.Filter call.
func New(opts ...tree.Option) State {
	s := State{
		opts:     opts,
		index:    tree.NewIndex(nil),
		expanded: model.KeySet{},
		content:  Placeholder(),
	}
	s.filtered = tree.Filter(nil, "", opts...)
	return s
}

// Tree returns the raw, unfiltered tree.
func (s State) Tree() []model.TreeNode { return s.raw }

// Keyword returns the active search keyword.
func (s State) Keyword() string { return s.keyword }

// Filtered returns the render-ready tree for the current keyword.
func (s State) Filtered() []model.TreeNode { return s.filtered.TreeData }

// SearchKeys returns the directories the current keyword force-expands.
func (s State) SearchKeys() model.KeySet { return s.filtered.Keys }

// SelectedKey returns the key of the selected node, or "".
func (s State) SelectedKey() string { return s.selectedKey }

// SelectedNode returns the selected node, or nil when nothing is selected or
// the selected key is not in the current tree.
func (s State) SelectedNode() *model.TreeNode { return s.selected }

// ExpandedKeys returns the expanded directory keys. Treat it as read-only.
func (s State) ExpandedKeys() model.KeySet { return s.expanded }

// IsExpanded reports whether the directory key is open.
func (s State) IsExpanded(key string) bool { return s.expanded.Has(key) }

// Content returns the content pane state.
func (s State) Content() Content { return s.content }

// Lookup finds a node of the raw tree by key.
func (s State) Lookup(key string) (*model.TreeNode, bool) { return s.index.Lookup(key) }

// Empty reports whether the raw tree has no entries.
func (s State) Empty() bool { return len(s.raw) == 0 }

// slowFilter is the filter duration above which a trace line is written.
const slowFilter = 50 * time.Millisecond

func (s State) refilter() State {
	stop := metrics.TimerWithCallback(metrics.TreeFilter, func(d time.Duration) {
		if d > slowFilter {
			debug.Log("slow filter: %q over %d nodes took %v", s.keyword, tree.Count(s.raw), d)
		}
	})
	s.filtered = tree.Filter(s.raw, s.keyword, s.opts...)
	stop()
	return s
}

// ListLoaded replaces the raw tree and re-filters it with the current
// keyword. Selection, expansion and content are kept; the selected node is
// looked up again in the new tree.
func (s State) ListLoaded(nodes []model.TreeNode) State {
	s.raw = nodes
	s.index = tree.NewIndex(nodes)
	s.selected = nil
	if s.selectedKey != "" {
		if n, ok := s.index.Lookup(s.selectedKey); ok {
			s.selected = n
		}
	}
	return s.refilter()
}

// KeywordChanged re-filters with kw and opens every directory the search
// needs. Expansion only grows here; keys opened by earlier searches stay
// open after the keyword is cleared.
func (s State) KeywordChanged(kw string) State {
	s.keyword = kw
	s = s.refilter()
	if s.filtered.Keys.Len() > 0 {
		s.expanded = s.expanded.Union(s.filtered.Keys)
	}
	return s
}

// NodeSelected selects node. It is a no-op when node is empty or already
// selected. Selecting a directory shows the placeholder; selecting a file
// switches to loading and returns the request the caller must run.
func (s State) NodeSelected(node model.TreeNode) (State, *ContentRequest) {
	if node.IsZero() || node.Key == s.selectedKey {
		return s, nil
	}

	s.selectedKey = node.Key
	s.selected = nil
	if n, ok := s.index.Lookup(node.Key); ok {
		s.selected = n
	}
	s.seq++

	if !node.IsFile() {
		s.content = Placeholder()
		return s, nil
	}
	s.content = Loading()
	return s, &ContentRequest{
		Key:      node.Key,
		Filename: node.Title,
		Path:     node.Parent,
		Seq:      s.seq,
	}
}

func (s State) current(req ContentRequest) bool {
	return req.Key == s.selectedKey && req.Seq == s.seq && s.content.Kind == ContentLoading
}

// ContentLoaded applies fetched text if req is still the latest request for
// the current selection. Otherwise the state is returned unchanged together
// with ErrStaleResponse.
func (s State) ContentLoaded(req ContentRequest, text string) (State, error) {
	if !s.current(req) {
		metrics.StaleResponses.Inc()
		return s, ErrStaleResponse
	}
	s.content = Loaded(text)
	return s, nil
}

// ContentFailed ends a load that failed, reverting to the placeholder. Stale
// failures are discarded like stale successes.
func (s State) ContentFailed(req ContentRequest, _ error) (State, error) {
	if !s.current(req) {
		metrics.StaleResponses.Inc()
		return s, ErrStaleResponse
	}
	s.content = Placeholder()
	return s, nil
}

// Deleted removes node from the raw tree after the collaborator confirmed
// the deletion. If the selection was the node or lay beneath it, selection
// and content reset to the placeholder and any load in flight becomes stale.
// The reset also happens when a reload already dropped the node. Expanded
// keys are left alone.
func (s State) Deleted(node model.TreeNode) State {
	stop := metrics.Timer(metrics.TreeMutate)
	raw, removed, ok := tree.Extract(s.raw, tree.KeyEquals(node.Key))
	stop()
	if !ok {
		if s.selectedKey != "" && (s.selectedKey == node.Key || s.selected == nil) {
			s = s.clearSelection()
		}
		return s
	}
	metrics.NodesDeleted.Inc()

	s.raw = raw
	s.index = tree.NewIndex(raw)
	if s.selectedKey != "" && tree.SubtreeKeys(removed).Has(s.selectedKey) {
		s = s.clearSelection()
	} else if s.selectedKey != "" {
		s.selected, _ = s.index.Lookup(s.selectedKey)
	}
	return s.refilter()
}

func (s State) clearSelection() State {
	s.selectedKey = ""
	s.selected = nil
	s.content = Placeholder()
	s.seq++
	return s
}

// ExpandToggled replaces the expanded set with keys, the user's explicit
// choice.
func (s State) ExpandToggled(keys model.KeySet) State {
	s.expanded = keys.Clone()
	return s
}

// Toggle opens or closes a single directory.
func (s State) Toggle(key string) State {
	keys := s.expanded.Clone()
	if keys.Has(key) {
		delete(keys, key)
	} else {
		keys.Add(key)
	}
	return s.ExpandToggled(keys)
}

// Row is one visible line of the filtered tree.
type Row struct {
	Node     *model.TreeNode // points into the filtered tree
	Depth    int
	Expanded bool
}

// Visible flattens the filtered tree into rows, descending only into
// expanded directories.
func (s State) Visible() []Row {
	var rows []Row
	tree.Walk(s.filtered.TreeData, func(n *model.TreeNode, depth int) bool {
		open := n.IsDir() && s.expanded.Has(n.Key)
		rows = append(rows, Row{Node: n, Depth: depth, Expanded: open})
		return open
	})
	return rows
}

// Reveal expands every ancestor of key in the raw tree so the node shows up
// once it passes the filter.
func (s State) Reveal(key string) State {
	anc := s.index.Ancestors(key)
	if len(anc) == 0 {
		return s
	}
	return s.ExpandToggled(s.expanded.Union(model.NewKeySet(anc...)))
}
