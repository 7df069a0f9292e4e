package tree

import "github.com/vanderheijden86/logview/pkg/model"

// Predicate selects a node.
type Predicate func(n *model.TreeNode) bool

// KeyEquals matches the node whose key is exactly key.
func KeyEquals(key string) Predicate {
	return func(n *model.TreeNode) bool { return n.Key == key }
}

// RemoveFirstMatch returns a tree without the first node, in depth-first
// pre-order, that satisfies pred. The node's whole subtree goes with it.
//
// Only the slices on the path from the top level down to the removed node are
// copied; every other subtree is shared with the input, and the input is not
// modified. When nothing matches the input slice itself is returned. Callers
// must replace their stored tree with the result.
func RemoveFirstMatch(nodes []model.TreeNode, pred Predicate) []model.TreeNode {
	out, _, _ := Extract(nodes, pred)
	return out
}

// Extract is RemoveFirstMatch that also reports the removed node.
func Extract(nodes []model.TreeNode, pred Predicate) (out []model.TreeNode, removed model.TreeNode, ok bool) {
	for i := range nodes {
		n := &nodes[i]
		if pred(n) {
			out = make([]model.TreeNode, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			return out, *n, true
		}
		if len(n.Children) == 0 {
			continue
		}
		if kids, rm, found := Extract(n.Children, pred); found {
			out = make([]model.TreeNode, len(nodes))
			copy(out, nodes)
			out[i].Children = kids
			return out, rm, true
		}
	}
	return nodes, model.TreeNode{}, false
}

// SubtreeKeys returns the key of n and of every node beneath it.
func SubtreeKeys(n model.TreeNode) model.KeySet {
	keys := model.NewKeySet(n.Key)
	Walk(n.Children, func(c *model.TreeNode, _ int) bool {
		keys.Add(c.Key)
		return true
	})
	return keys
}
