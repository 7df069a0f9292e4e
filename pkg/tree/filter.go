package tree

import (
	"strings"

	"github.com/vanderheijden86/logview/pkg/model"
)

// MatchPolicy selects how the keyword is compared with the matched field.
type MatchPolicy int

const (
	CaseInsensitive MatchPolicy = iota // default
	CaseSensitive
)

// String returns the config-file spelling of the policy.
func (p MatchPolicy) String() string {
	if p == CaseSensitive {
		return "case-sensitive"
	}
	return "case-insensitive"
}

// ParseMatchPolicy accepts the config-file spelling. Unknown values fall back
// to CaseInsensitive.
func ParseMatchPolicy(s string) MatchPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "case-sensitive", "sensitive", "exact":
		return CaseSensitive
	default:
		return CaseInsensitive
	}
}

// MatchProp names the TreeNode field the keyword is matched against.
type MatchProp string

const (
	MatchTitle MatchProp = "title" // default: the display name
	MatchKey   MatchProp = "key"
)

// Options configures Filter.
type Options struct {
	MatchProp MatchProp
	Policy    MatchPolicy
	// KeepMatchedSubtree keeps every descendant of a matching directory, even
	// descendants that do not match. Off by default: only matches and the
	// directories leading to them are retained.
	KeepMatchedSubtree bool
}

// Option mutates Options.
type Option func(*Options)

// WithMatchProp selects the matched field.
func WithMatchProp(p MatchProp) Option {
	return func(o *Options) { o.MatchProp = p }
}

// WithPolicy selects case handling.
func WithPolicy(p MatchPolicy) Option {
	return func(o *Options) { o.Policy = p }
}

// WithKeepMatchedSubtree toggles whole-subtree retention under matching
// directories.
func WithKeepMatchedSubtree(keep bool) Option {
	return func(o *Options) { o.KeepMatchedSubtree = keep }
}

// DefaultOptions matches titles case-insensitively.
func DefaultOptions() Options {
	return Options{MatchProp: MatchTitle, Policy: CaseInsensitive}
}

// FilterResult is the render-ready output of Filter.
type FilterResult struct {
	// TreeData is the filtered, order-preserving tree.
	TreeData []model.TreeNode
	// Keys holds the directories that must be expanded for every match to be
	// visible.
	Keys model.KeySet
}

// Filter returns the part of nodes whose MatchProp contains keyword, together
// with every directory on the path to a match, and the set of directory keys
// to force-expand.
//
// An empty keyword returns nodes itself and an empty key set without walking
// the tree. Zero matches yields an empty (non-nil) TreeData. Retained
// directories are shallow copies with a new Children slice; files are copied
// by value. The input is never modified.
func Filter(nodes []model.TreeNode, keyword string, opts ...Option) FilterResult {
	if keyword == "" {
		return FilterResult{TreeData: nodes, Keys: model.KeySet{}}
	}

	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f := filterer{opts: o, keys: model.KeySet{}}
	if o.Policy == CaseSensitive {
		f.needle = keyword
	} else {
		f.needle = strings.ToLower(keyword)
	}

	data := f.filterList(nodes, false)
	if data == nil {
		data = []model.TreeNode{}
	}
	return FilterResult{TreeData: data, Keys: f.keys}
}

type filterer struct {
	opts   Options
	needle string
	keys   model.KeySet
}

func (f *filterer) matches(n *model.TreeNode) bool {
	var hay string
	switch f.opts.MatchProp {
	case MatchKey:
		hay = n.Key
	default:
		hay = n.Title
	}
	if f.opts.Policy == CaseInsensitive {
		hay = strings.ToLower(hay)
	}
	return strings.Contains(hay, f.needle)
}

// filterList returns the retained nodes of list in their original order, or
// nil when nothing is retained. keepAll is set beneath a matching directory
// when KeepMatchedSubtree is on.
func (f *filterer) filterList(list []model.TreeNode, keepAll bool) []model.TreeNode {
	var out []model.TreeNode
	for i := range list {
		n := &list[i]
		self := keepAll || f.matches(n)

		var kids []model.TreeNode
		if len(n.Children) > 0 {
			kids = f.filterList(n.Children, self && f.opts.KeepMatchedSubtree)
		}

		if !self && len(kids) == 0 {
			continue
		}

		kept := *n
		kept.Children = kids
		if len(kids) > 0 {
			// Retained for a descendant: must open for the match to show.
			f.keys.Add(n.Key)
		}
		out = append(out, kept)
	}
	return out
}
