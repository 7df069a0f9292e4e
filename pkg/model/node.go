// Package model defines the log tree data types shared by every layer of
// logview: the filesystem store, the REST server and client, the filter
// engine and the viewer state machine.
package model

import (
	"errors"
	"fmt"
)

// NodeType distinguishes log files from the directories that contain them.
type NodeType string

const (
	NodeFile      NodeType = "file"
	NodeDirectory NodeType = "directory"
)

// IsValid reports whether t is one of the known node types.
func (t NodeType) IsValid() bool {
	return t == NodeFile || t == NodeDirectory
}

// ParseNodeType converts a wire value into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// TreeNode is one file or directory entry of a log tree.
//
// Key is unique across the whole tree. Parent holds the key of the containing
// directory and is empty for top-level nodes; it is a lookup reference only,
// the structural link is the Children slice. Size is meaningful for files,
// Children for directories, and the order of Children is display order.
type TreeNode struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Type     NodeType   `json:"type"`
	Parent   string     `json:"parent,omitempty"`
	Size     int64      `json:"size,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n TreeNode) IsDir() bool { return n.Type == NodeDirectory }

// IsFile reports whether the node is a file.
func (n TreeNode) IsFile() bool { return n.Type == NodeFile }

// IsZero reports whether the node is the empty candidate (no key).
func (n TreeNode) IsZero() bool { return n.Key == "" }

// Validation errors.
var (
	ErrEmptyKey      = errors.New("node key is empty")
	ErrFileChildren  = errors.New("file node has children")
	ErrDuplicateKey  = errors.New("duplicate node key")
	ErrParentMissing = errors.New("node parent does not match containing directory")
)

// Validate checks a single node (not its descendants).
func (n TreeNode) Validate() error {
	if n.Key == "" {
		return ErrEmptyKey
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("node %q: unknown type %q", n.Key, n.Type)
	}
	if n.IsFile() && len(n.Children) > 0 {
		return fmt.Errorf("node %q: %w", n.Key, ErrFileChildren)
	}
	return nil
}

// ValidateTree checks the tree invariants: every node valid, keys unique,
// and every Parent naming the directory that actually contains the node.
// The filter engine and mutator do not call this; it exists for sources that
// want to reject malformed input at the boundary.
func ValidateTree(nodes []TreeNode) error {
	seen := make(map[string]bool)
	var walk func(list []TreeNode, parent string) error
	walk = func(list []TreeNode, parent string) error {
		for i := range list {
			n := &list[i]
			if err := n.Validate(); err != nil {
				return err
			}
			if seen[n.Key] {
				return fmt.Errorf("%w: %q", ErrDuplicateKey, n.Key)
			}
			seen[n.Key] = true
			if n.Parent != parent {
				return fmt.Errorf("node %q: %w (parent %q, contained in %q)", n.Key, ErrParentMissing, n.Parent, parent)
			}
			if err := walk(n.Children, n.Key); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(nodes, "")
}
