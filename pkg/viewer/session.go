package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vanderheijden86/logview/pkg/metrics"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/tree"
)

// Session owns one State and drives it with blocking collaborator calls. The
// CLI subcommands use it directly; the TUI runs the same transitions from its
// update loop instead. A Session is not safe for concurrent use.
type Session struct {
	coll  Collaborator
	log   *zap.Logger
	state State
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFilterOptions sets the options every filter call uses.
func WithFilterOptions(opts ...tree.Option) SessionOption {
	return func(s *Session) {
		s.state = New(opts...)
	}
}

// NewSession returns a Session over c with an empty tree.
func NewSession(c Collaborator, opts ...SessionOption) *Session {
	s := &Session{coll: c, log: zap.NewNop(), state: New()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Refresh lists the tree and loads it. On failure the previous tree stays.
func (s *Session) Refresh(ctx context.Context) error {
	defer metrics.Timer(metrics.ListLogs)()

	nodes, err := s.coll.ListLogs(ctx)
	if err != nil {
		metrics.TransportErrs.Inc()
		s.log.Warn("list logs failed", zap.Error(err))
		return Transport("list logs", err)
	}
	metrics.TreeReloads.Inc()
	s.state = s.state.ListLoaded(nodes)
	s.log.Debug("tree loaded", zap.Int("nodes", tree.Count(nodes)))
	return nil
}

// Search applies a keyword. Callers rate-limit with KeywordDebouncer.
func (s *Session) Search(keyword string) {
	s.state = s.state.KeywordChanged(keyword)
}

// Toggle opens or closes a directory.
func (s *Session) Toggle(key string) {
	s.state = s.state.Toggle(key)
}

// Select selects node and, for files, fetches its content.
func (s *Session) Select(ctx context.Context, node model.TreeNode) error {
	next, req := s.state.NodeSelected(node)
	s.state = next
	if req == nil {
		return nil
	}

	stop := metrics.Timer(metrics.LoadContent)
	text, err := s.coll.GetLogContent(ctx, req.Filename, req.Path)
	stop()
	if err != nil {
		metrics.TransportErrs.Inc()
		s.state, _ = s.state.ContentFailed(*req, err)
		s.log.Warn("load content failed", zap.String("key", req.Key), zap.Error(err))
		return Transport("get log content", err)
	}
	s.state, err = s.state.ContentLoaded(*req, text)
	return err
}

// Delete removes node at the source and then from the tree. If the
// collaborator fails the state is untouched.
func (s *Session) Delete(ctx context.Context, node model.TreeNode) error {
	defer metrics.Timer(metrics.DeleteLog)()

	if err := s.coll.DeleteLog(ctx, node.Title, node.Parent, node.Type); err != nil {
		metrics.TransportErrs.Inc()
		s.log.Warn("delete failed", zap.String("key", node.Key), zap.Error(err))
		return Transport("delete log", err)
	}
	s.state = s.state.Deleted(node)
	s.log.Info("deleted", zap.String("key", node.Key), zap.String("type", string(node.Type)))
	return nil
}

// Download saves a file node into dir under its original name and returns
// the written path. State is never changed.
func (s *Session) Download(ctx context.Context, node model.TreeNode, dir string) (string, error) {
	return Download(ctx, s.coll, node, dir)
}

// Download fetches a file node from c and writes it to dir/<title>. The file
// is written to a temporary name first so a failed transfer leaves nothing
// half-written under the final name.
func Download(ctx context.Context, c Collaborator, node model.TreeNode, dir string) (string, error) {
	if !node.IsFile() {
		return "", ErrNotDownloadable
	}
	defer metrics.Timer(metrics.DownloadLog)()

	body, err := c.DownloadLog(ctx, node.Title, node.Parent)
	if err != nil {
		metrics.TransportErrs.Inc()
		return "", Transport("download log", err)
	}
	defer body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(dir, filepath.Base(node.Title))
	tmp, err := os.CreateTemp(dir, ".lv-download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return "", Transport("download log", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("save download: %w", err)
	}
	return dest, nil
}
