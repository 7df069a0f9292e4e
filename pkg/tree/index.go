// Package tree holds the pure algorithms over log trees: indexing, keyword
// filtering with forced-expansion keys, and single-shot removal by predicate.
//
// Nothing here performs I/O or keeps state between calls. Inputs are treated
// as immutable; results share untouched subtrees with their inputs.
package tree

import "github.com/vanderheijden86/logview/pkg/model"

// Index is a read-only lookup structure over a tree. Parent relations are
// derived from the Children structure, never from TreeNode.Parent, so a
// malformed Parent field cannot create a cycle here.
type Index struct {
	nodes   map[string]*model.TreeNode
	parents map[string]string // child key -> containing directory key ("" for roots)
	depths  map[string]int
	order   []string // pre-order
}

// NewIndex indexes nodes. The returned pointers alias the input slices, so the
// tree must not be modified in place while the index is in use.
func NewIndex(nodes []model.TreeNode) *Index {
	ix := &Index{
		nodes:   make(map[string]*model.TreeNode),
		parents: make(map[string]string),
		depths:  make(map[string]int),
	}
	var add func(list []model.TreeNode, parent string, depth int)
	add = func(list []model.TreeNode, parent string, depth int) {
		for i := range list {
			n := &list[i]
			ix.nodes[n.Key] = n
			ix.parents[n.Key] = parent
			ix.depths[n.Key] = depth
			ix.order = append(ix.order, n.Key)
			add(n.Children, n.Key, depth+1)
		}
	}
	add(nodes, "", 0)
	return ix
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.order) }

// Has reports whether key is present.
func (ix *Index) Has(key string) bool {
	_, ok := ix.nodes[key]
	return ok
}

// Lookup returns the node with the given key.
func (ix *Index) Lookup(key string) (*model.TreeNode, bool) {
	n, ok := ix.nodes[key]
	return n, ok
}

// Parent returns the key of the directory containing key, or "" for a
// top-level node. ok is false when key is unknown.
func (ix *Index) Parent(key string) (parent string, ok bool) {
	parent, ok = ix.parents[key]
	return parent, ok
}

// Depth returns the nesting level of key (0 for top-level nodes), or -1.
func (ix *Index) Depth(key string) int {
	d, ok := ix.depths[key]
	if !ok {
		return -1
	}
	return d
}

// Ancestors returns the keys of every directory above key, outermost first.
// Top-level and unknown keys have no ancestors.
func (ix *Index) Ancestors(key string) []string {
	var path []string
	parent, ok := ix.parents[key]
	for ok && parent != "" {
		path = append(path, parent)
		parent, ok = ix.parents[parent]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// IsAncestor reports whether ancestor lies strictly above key.
func (ix *Index) IsAncestor(ancestor, key string) bool {
	parent, ok := ix.parents[key]
	for ok && parent != "" {
		if parent == ancestor {
			return true
		}
		parent, ok = ix.parents[parent]
	}
	return false
}

// Keys returns every key in depth-first pre-order.
func (ix *Index) Keys() []string {
	out := make([]string, len(ix.order))
	copy(out, ix.order)
	return out
}

// Walk visits nodes depth-first in pre-order. Returning false from fn skips
// the node's children; the walk continues with its next sibling.
func Walk(nodes []model.TreeNode, fn func(n *model.TreeNode, depth int) bool) {
	var visit func(list []model.TreeNode, depth int)
	visit = func(list []model.TreeNode, depth int) {
		for i := range list {
			if fn(&list[i], depth) {
				visit(list[i].Children, depth+1)
			}
		}
	}
	visit(nodes, 0)
}

// Count returns the total number of nodes in the tree.
func Count(nodes []model.TreeNode) int {
	total := 0
	for i := range nodes {
		total += 1 + Count(nodes[i].Children)
	}
	return total
}

// Find returns the first node in pre-order satisfying pred.
func Find(nodes []model.TreeNode, pred Predicate) (*model.TreeNode, bool) {
	for i := range nodes {
		if pred(&nodes[i]) {
			return &nodes[i], true
		}
		if n, ok := Find(nodes[i].Children, pred); ok {
			return n, true
		}
	}
	return nil, false
}
