package viewer

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/logview/pkg/metrics"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
)

func sampleTree() []model.TreeNode {
	return []model.TreeNode{
		{Key: "a", Title: "access.log", Type: model.NodeFile, Size: 10},
		{Key: "b", Title: "errors", Type: model.NodeDirectory, Children: []model.TreeNode{
			{Key: "b1", Title: "fatal.log", Type: model.NodeFile, Parent: "b", Size: 3},
		}},
	}
}

func loaded() State {
	return New().ListLoaded(sampleTree())
}

func TestNewStateIsEmpty(t *testing.T) {
	s := New()
	if !s.Empty() || s.SelectedKey() != "" || s.Content().Kind != ContentPlaceholder {
		t.Error("new state should be empty with placeholder content")
	}
	if len(s.Visible()) != 0 {
		t.Error("empty state should have no rows")
	}
}

func TestListLoadedKeepsSelection(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[0])
	s, _ = s.ContentLoaded(*req, "hello")

	reloaded := append(sampleTree(), model.TreeNode{Key: "c", Title: "c.log", Type: model.NodeFile})
	s = s.ListLoaded(reloaded)

	if s.SelectedKey() != "a" {
		t.Errorf("selection changed to %q", s.SelectedKey())
	}
	if s.SelectedNode() == nil || s.SelectedNode() != &s.Tree()[0] {
		t.Error("selected node should point into the new tree")
	}
	if s.Content().Text != "hello" {
		t.Error("content should survive a reload")
	}
	if len(s.Filtered()) != 3 {
		t.Errorf("filtered tree has %d entries", len(s.Filtered()))
	}
}

func TestListLoadedRefiltersWithKeyword(t *testing.T) {
	s := loaded().KeywordChanged("fatal")
	if len(s.Filtered()) != 1 {
		t.Fatalf("expected one retained top-level entry, got %d", len(s.Filtered()))
	}
	s = s.ListLoaded([]model.TreeNode{{Key: "x", Title: "x.log", Type: model.NodeFile}})
	if len(s.Filtered()) != 0 {
		t.Error("new tree should be filtered with the current keyword")
	}
}

func TestListLoadedSelectionGone(t *testing.T) {
	s, _ := loaded().NodeSelected(sampleTree()[1].Children[0])
	s = s.ListLoaded(sampleTree()[:1])
	if s.SelectedNode() != nil {
		t.Error("selected node should be cleared when its key is gone")
	}
	if s.SelectedKey() != "b1" {
		t.Error("selected key should be kept")
	}
}

func TestKeywordChangedUnionsExpansion(t *testing.T) {
	s := loaded().ExpandToggled(model.NewKeySet("manual"))
	s = s.KeywordChanged("log")

	if !s.ExpandedKeys().Equal(model.NewKeySet("manual", "b")) {
		t.Errorf("expanded = %v", s.ExpandedKeys().Sorted())
	}
	if !s.SearchKeys().Equal(model.NewKeySet("b")) {
		t.Errorf("search keys = %v", s.SearchKeys().Sorted())
	}

	// Clearing the search leaves auto-expanded directories open.
	s = s.KeywordChanged("")
	if !s.IsExpanded("b") {
		t.Error("expansion should be sticky after clearing the keyword")
	}
	if len(s.Filtered()) != 2 {
		t.Error("empty keyword should show the whole tree")
	}
}

func TestKeywordChangedDoesNotMutatePreviousState(t *testing.T) {
	before := loaded()
	_ = before.KeywordChanged("fatal")
	if before.ExpandedKeys().Len() != 0 {
		t.Error("transition modified the previous state's expanded keys")
	}
}

func TestKeywordZeroMatches(t *testing.T) {
	s := loaded().KeywordChanged("zzz")
	if len(s.Filtered()) != 0 || s.SearchKeys().Len() != 0 {
		t.Error("expected an empty result")
	}
	if s.ExpandedKeys().Len() != 0 {
		t.Error("no keys should be opened")
	}
}

func TestNodeSelectedFile(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[1].Children[0])
	if req == nil {
		t.Fatal("expected a content request")
	}
	if req.Filename != "fatal.log" || req.Path != "b" || req.Key != "b1" {
		t.Errorf("unexpected request %+v", req)
	}
	if s.Content().Kind != ContentLoading || s.Content().Display() != LoadingText {
		t.Error("expected loading content")
	}
	s, err := s.ContentLoaded(*req, "boom")
	if err != nil {
		t.Fatal(err)
	}
	if s.Content().Display() != "boom" {
		t.Errorf("content = %q", s.Content().Display())
	}
}

func TestNodeSelectedDirectory(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[1])
	if req != nil {
		t.Error("directories have no content to fetch")
	}
	if s.SelectedKey() != "b" || s.Content().Kind != ContentPlaceholder {
		t.Errorf("unexpected state %q %v", s.SelectedKey(), s.Content().Kind)
	}
}

func TestNodeSelectedNoOps(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[0])
	s, _ = s.ContentLoaded(*req, "text")

	again, req2 := s.NodeSelected(sampleTree()[0])
	if req2 != nil || again.Content().Text != "text" {
		t.Error("re-selecting the same key must be a no-op")
	}
	empty, req3 := s.NodeSelected(model.TreeNode{})
	if req3 != nil || empty.SelectedKey() != "a" {
		t.Error("empty candidate must be ignored")
	}
}

func TestStaleContentDiscarded(t *testing.T) {
	s := loaded()
	s, slow := s.NodeSelected(sampleTree()[0])
	s, fast := s.NodeSelected(sampleTree()[1].Children[0])

	s, err := s.ContentLoaded(*fast, "fatal content")
	if err != nil {
		t.Fatal(err)
	}
	s, err = s.ContentLoaded(*slow, "access content")
	if !errors.Is(err, ErrStaleResponse) {
		t.Errorf("expected ErrStaleResponse, got %v", err)
	}
	if s.Content().Text != "fatal content" {
		t.Errorf("stale response overwrote content: %q", s.Content().Text)
	}
}

func TestStaleSameKeyDifferentSeq(t *testing.T) {
	s := loaded()
	s, first := s.NodeSelected(sampleTree()[0])
	s, _ = s.NodeSelected(sampleTree()[1])
	s, second := s.NodeSelected(sampleTree()[0])

	if first.Seq == second.Seq {
		t.Fatal("sequence should advance per selection")
	}
	if _, err := s.ContentLoaded(*first, "old"); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("old request for the same key should be stale, got %v", err)
	}
}

func TestContentFailedRevertsToPlaceholder(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[0])
	s, err := s.ContentFailed(*req, errors.New("down"))
	if err != nil {
		t.Fatal(err)
	}
	if s.Content().Kind != ContentPlaceholder || s.Content().Display() != PlaceholderText {
		t.Error("failed load should end in placeholder")
	}
	if s.SelectedKey() != "a" {
		t.Error("failure must not drop the selection")
	}
}

func TestDeletedDirectoryResetsNestedSelection(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[1].Children[0])
	s = s.Deleted(sampleTree()[1])

	if len(s.Tree()) != 1 || s.Tree()[0].Key != "a" {
		t.Fatalf("tree after delete = %+v", s.Tree())
	}
	if s.SelectedKey() != "" || s.SelectedNode() != nil {
		t.Error("selection inside the deleted directory should reset")
	}
	if s.Content().Kind != ContentPlaceholder {
		t.Error("content should reset to placeholder")
	}
	if _, err := s.ContentLoaded(*req, "late"); !errors.Is(err, ErrStaleResponse) {
		t.Error("a load in flight for the deleted node must be stale")
	}
}

func TestDeletedOtherNodeKeepsSelection(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[0])
	s, _ = s.ContentLoaded(*req, "kept")
	s = s.Deleted(sampleTree()[1].Children[0])

	if s.SelectedKey() != "a" || s.SelectedNode() == nil || s.Content().Text != "kept" {
		t.Error("deleting an unrelated node must not touch selection")
	}
	if len(s.Tree()[1].Children) != 0 {
		t.Error("child should be gone")
	}
}

func TestDeletedUnknownNode(t *testing.T) {
	s, req := loaded().NodeSelected(sampleTree()[0])
	s, _ = s.ContentLoaded(*req, "text")
	after := s.Deleted(model.TreeNode{Key: "zz"})
	if len(after.Tree()) != 2 {
		t.Error("unknown key must leave the tree alone")
	}
	if after.SelectedKey() != "a" || after.Content().Display() != "text" {
		t.Error("deleting an unrelated missing key must keep the selection")
	}
}

func TestDeletedAfterReloadClearsSelection(t *testing.T) {
	tr := sampleTree()
	s, req := New().ListLoaded(tr).NodeSelected(tr[0])
	s, err := s.ContentLoaded(*req, "old text")
	if err != nil {
		t.Fatal(err)
	}

	// A reload already dropped a before the delete confirmation arrived.
	s = s.ListLoaded(tr[1:])
	s = s.Deleted(tr[0])

	if s.SelectedKey() != "" || s.SelectedNode() != nil {
		t.Errorf("selection should be cleared, got %q", s.SelectedKey())
	}
	if s.Content().Kind != ContentPlaceholder {
		t.Errorf("content should be the placeholder, got %q", s.Content().Display())
	}
	if _, err := s.ContentLoaded(*req, "late"); !errors.Is(err, ErrStaleResponse) {
		t.Error("a load for the deleted file must be stale")
	}
}

func TestKeywordChangedRecordsOneFilter(t *testing.T) {
	if !metrics.Enabled() {
		t.Skip("metrics disabled")
	}
	s := loaded()
	before := metrics.TreeFilter.Count()
	s.KeywordChanged("fatal")
	if got := metrics.TreeFilter.Count() - before; got != 1 {
		t.Errorf("tree_filter recorded %d times, want 1", got)
	}
}

func TestDeletedRefilters(t *testing.T) {
	s := loaded().KeywordChanged("log")
	s = s.Deleted(sampleTree()[1].Children[0])
	if len(s.Filtered()) != 1 {
		t.Errorf("errors directory has no matches left, filtered = %d", len(s.Filtered()))
	}
}

func TestExpandToggledReplaces(t *testing.T) {
	s := loaded().KeywordChanged("fatal")
	s = s.ExpandToggled(model.NewKeySet())
	if s.IsExpanded("b") {
		t.Error("user collapse must win over auto-expansion")
	}
	s = s.Toggle("b")
	if !s.IsExpanded("b") {
		t.Error("toggle should open b")
	}
	s = s.Toggle("b")
	if s.IsExpanded("b") {
		t.Error("toggle should close b")
	}
}

func TestVisibleRespectsExpansion(t *testing.T) {
	s := loaded()
	if rows := s.Visible(); len(rows) != 2 {
		t.Fatalf("collapsed tree should show 2 rows, got %d", len(rows))
	}
	s = s.Toggle("b")
	rows := s.Visible()
	if len(rows) != 3 || rows[2].Node.Key != "b1" || rows[2].Depth != 1 || !rows[1].Expanded {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestRevealOpensAncestors(t *testing.T) {
	s := loaded().Reveal("b1")
	if !s.IsExpanded("b") {
		t.Error("Reveal should open b")
	}
}

func TestFilterOptionsApplied(t *testing.T) {
	s := New(tree.WithPolicy(tree.CaseSensitive)).ListLoaded(sampleTree())
	if len(s.KeywordChanged("LOG").Filtered()) != 0 {
		t.Error("case-sensitive option should be honoured")
	}
}
