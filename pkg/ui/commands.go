package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/viewer"
	"github.com/vanderheijden86/logview/pkg/watcher"
)

// requestTimeout bounds each collaborator call started from the UI.
const requestTimeout = 30 * time.Second

// TreeLoadedMsg carries the result of a ListLogs call.
type TreeLoadedMsg struct {
	Nodes []model.TreeNode
	Err   error
}

// ContentLoadedMsg carries the result of one content request.
type ContentLoadedMsg struct {
	Req  viewer.ContentRequest
	Text string
	Err  error
}

// DeletedMsg reports a finished deletion.
type DeletedMsg struct {
	Node model.TreeNode
	Err  error
}

// DownloadedMsg reports a finished download.
type DownloadedMsg struct {
	Node model.TreeNode
	Path string
	Err  error
}

// KeywordMsg delivers a debounced search keyword.
type KeywordMsg struct {
	Keyword string
}

// FileChangedMsg is sent when the watched log root changes on disk
type FileChangedMsg struct{}

// clearStatusMsg clears the status line if it still shows message seq.
type clearStatusMsg struct{ seq int }

func listLogsCmd(c viewer.Collaborator) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		nodes, err := c.ListLogs(ctx)
		return TreeLoadedMsg{Nodes: nodes, Err: viewer.Transport("list logs", err)}
	}
}

func loadContentCmd(c viewer.Collaborator, req viewer.ContentRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		text, err := c.GetLogContent(ctx, req.Filename, req.Path)
		return ContentLoadedMsg{Req: req, Text: text, Err: viewer.Transport("get log content", err)}
	}
}

func deleteCmd(c viewer.Collaborator, node model.TreeNode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := c.DeleteLog(ctx, node.Title, node.Parent, node.Type)
		return DeletedMsg{Node: node, Err: viewer.Transport("delete log", err)}
	}
}

// downloadCmd has no timeout: large files may legitimately take long.
func downloadCmd(c viewer.Collaborator, node model.TreeNode, dir string) tea.Cmd {
	return func() tea.Msg {
		path, err := viewer.Download(context.Background(), c, node, dir)
		return DownloadedMsg{Node: node, Path: path, Err: err}
	}
}

// waitKeywordCmd waits for the next debounced keyword.
func waitKeywordCmd(d *viewer.KeywordDebouncer) tea.Cmd {
	return func() tea.Msg {
		kw, ok := <-d.C()
		if !ok {
			return nil
		}
		return KeywordMsg{Keyword: kw}
	}
}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changed(); !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}
