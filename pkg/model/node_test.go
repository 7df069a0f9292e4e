package model

import (
	"errors"
	"testing"
)

func sampleTree() []TreeNode {
	return []TreeNode{
		{Key: "a", Title: "access.log", Type: NodeFile, Size: 12},
		{Key: "b", Title: "errors", Type: NodeDirectory, Children: []TreeNode{
			{Key: "b1", Title: "fatal.log", Type: NodeFile, Parent: "b"},
		}},
	}
}

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		in      string
		want    NodeType
		wantErr bool
	}{
		{"file", NodeFile, false},
		{"directory", NodeDirectory, false},
		{"folder", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseNodeType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNodeType(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseNodeType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateTree_OK(t *testing.T) {
	if err := ValidateTree(sampleTree()); err != nil {
		t.Fatalf("expected valid tree, got %v", err)
	}
}

func TestValidateTree_FileWithChildren(t *testing.T) {
	tree := []TreeNode{{Key: "x", Title: "x.log", Type: NodeFile, Children: []TreeNode{{Key: "y", Type: NodeFile, Parent: "x"}}}}
	err := ValidateTree(tree)
	if !errors.Is(err, ErrFileChildren) {
		t.Errorf("expected ErrFileChildren, got %v", err)
	}
}

func TestValidateTree_DuplicateKey(t *testing.T) {
	tree := sampleTree()
	tree[1].Children = append(tree[1].Children, TreeNode{Key: "a", Title: "dup", Type: NodeFile, Parent: "b"})
	if err := ValidateTree(tree); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestValidateTree_WrongParent(t *testing.T) {
	tree := sampleTree()
	tree[1].Children[0].Parent = "nope"
	if err := ValidateTree(tree); !errors.Is(err, ErrParentMissing) {
		t.Errorf("expected ErrParentMissing, got %v", err)
	}
}

func TestKeySetUnionDoesNotMutate(t *testing.T) {
	a := NewKeySet("x", "y")
	b := NewKeySet("y", "z")
	u := a.Union(b)

	if u.Len() != 3 {
		t.Errorf("expected 3 keys, got %d", u.Len())
	}
	if a.Len() != 2 || b.Len() != 2 {
		t.Error("Union must not modify its inputs")
	}
	if got := u.Sorted(); got[0] != "x" || got[2] != "z" {
		t.Errorf("unexpected sorted keys %v", got)
	}
}

func TestKeySetEqual(t *testing.T) {
	if !NewKeySet("a", "b").Equal(NewKeySet("b", "a")) {
		t.Error("expected equal sets")
	}
	if NewKeySet("a").Equal(NewKeySet("b")) {
		t.Error("expected different sets")
	}
	var empty KeySet
	if !empty.Equal(NewKeySet()) {
		t.Error("nil and empty sets should compare equal")
	}
}
