// Package logstore serves a log tree straight from a local directory. It is
// the Collaborator behind both `lv browse <dir>` and `lv serve`.
//
// Entries are addressed the way the REST contract addresses them: a file or
// directory name plus the slash-separated path of its parent relative to the
// root. Every resolved path is checked to stay inside the root.
package logstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/vanderheijden86/logview/pkg/model"
)

// DefaultMaxContentBytes caps how much of a file GetLogContent returns.
const DefaultMaxContentBytes int64 = 4 << 20

// TruncatedMarker starts content that was cut to its tail.
const TruncatedMarker = "... (truncated, showing the last part of the file)\n"

var (
	ErrNotFound     = errors.New("log entry not found")
	ErrOutsideRoot  = errors.New("path escapes the log root")
	ErrNotFile      = errors.New("entry is not a regular file")
	ErrNotDirectory = errors.New("entry is not a directory")
	ErrRoot         = errors.New("the log root itself cannot be deleted")
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxContentBytes caps GetLogContent. Larger files are returned as their
// last n bytes, starting at a line boundary, behind TruncatedMarker. n <= 0
// disables the cap.
func WithMaxContentBytes(n int64) Option {
	return func(s *Store) { s.maxContent = n }
}

// WithHidden includes dot-files and dot-directories in listings.
func WithHidden(show bool) Option {
	return func(s *Store) { s.showHidden = show }
}

// Store is a directory of logs.
type Store struct {
	root       string
	realRoot   string
	log        *zap.Logger
	maxContent int64
	showHidden bool
}

// New opens the directory at root.
func New(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open log root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open log root %s: %w", abs, ErrNotDirectory)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve log root: %w", err)
	}

	s := &Store{
		root:       abs,
		realRoot:   resolved,
		log:        zap.NewNop(),
		maxContent: DefaultMaxContentBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) visible(name string) bool {
	return s.showHidden || !strings.HasPrefix(name, ".")
}

// ListLogs walks the root. Directories come before files, each group sorted
// by name. Symlinks to directories are not followed; symlinks to files are
// listed with the target's size.
func (s *Store) ListLogs(ctx context.Context) ([]model.TreeNode, error) {
	nodes, err := s.list(ctx, s.root, "")
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []model.TreeNode{}
	}
	return nodes, nil
}

func (s *Store) list(ctx context.Context, dir, rel string) ([]model.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if rel == "" {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		s.log.Warn("skipping unreadable directory", zap.String("path", rel), zap.Error(err))
		return nil, nil
	}

	var dirs, files []model.TreeNode
	for _, e := range entries {
		name := e.Name()
		if !s.visible(name) {
			continue
		}
		key := path.Join(rel, name)
		full := filepath.Join(dir, name)

		if e.IsDir() {
			kids, err := s.list(ctx, full, key)
			if err != nil {
				return nil, err
			}
			dirs = append(dirs, model.TreeNode{
				Key: key, Title: name, Type: model.NodeDirectory, Parent: rel, Children: kids,
			})
			continue
		}

		info, err := os.Stat(full) // follows file symlinks
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, model.TreeNode{
			Key: key, Title: name, Type: model.NodeFile, Parent: rel, Size: info.Size(),
		})
	}

	byTitle := func(list []model.TreeNode) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Title < list[j].Title })
	}
	byTitle(dirs)
	byTitle(files)
	return append(dirs, files...), nil
}

// Resolve maps a (filename, parent path) pair to an absolute path inside the
// root. An empty filename addresses the directory path itself.
func (s *Store) Resolve(filename, parent string) (string, error) {
	if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, filename)
	}
	rel := filepath.Join(filepath.FromSlash(parent), filename)
	if rel == "." {
		return s.root, nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, path.Join(parent, filename))
	}
	full := filepath.Join(s.root, rel)

	// A symlink inside the root may still point outside it.
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, filepath.ToSlash(rel))
		}
		return "", err
	}
	if resolved != s.realRoot && !strings.HasPrefix(resolved, s.realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, filepath.ToSlash(rel))
	}
	return full, nil
}

func (s *Store) openFile(filename, parent string) (*os.File, fs.FileInfo, error) {
	full, err := s.Resolve(filename, parent)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path.Join(parent, filename))
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFile, path.Join(parent, filename))
	}
	return f, info, nil
}

// GetLogContent reads a file as text, keeping only its tail when it is
// larger than the configured cap.
func (s *Store) GetLogContent(ctx context.Context, filename, parent string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f, info, err := s.openFile(filename, parent)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if s.maxContent <= 0 || info.Size() <= s.maxContent {
		data, err := io.ReadAll(f)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	if _, err := f.Seek(info.Size()-s.maxContent, io.SeekStart); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(f, s.maxContent))
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 && i+1 < len(data) {
		data = data[i+1:]
	}
	s.log.Debug("content truncated",
		zap.String("file", path.Join(parent, filename)),
		zap.Int64("size", info.Size()),
		zap.Int64("kept", int64(len(data))))
	return TruncatedMarker + string(data), nil
}

// DownloadLog opens a file for streaming. The caller closes the reader.
func (s *Store) DownloadLog(ctx context.Context, filename, parent string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, _, err := s.openFile(filename, parent)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Stat returns file information for an entry, used for download headers.
func (s *Store) Stat(filename, parent string) (fs.FileInfo, error) {
	full, err := s.Resolve(filename, parent)
	if err != nil {
		return nil, err
	}
	return os.Stat(full)
}

// DeleteLog removes a file, or a directory with everything beneath it. typ
// must agree with what is on disk.
func (s *Store) DeleteLog(ctx context.Context, filename, parent string, typ model.NodeType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !typ.IsValid() {
		return fmt.Errorf("delete %s: unknown type %q", path.Join(parent, filename), typ)
	}
	full, err := s.Resolve(filename, parent)
	if err != nil {
		return err
	}
	if full == s.root {
		return ErrRoot
	}
	info, err := os.Lstat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path.Join(parent, filename))
		}
		return err
	}

	rel := path.Join(parent, filename)
	switch typ {
	case model.NodeDirectory:
		if !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotDirectory, rel)
		}
		err = os.RemoveAll(full)
	default:
		if info.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotFile, rel)
		}
		err = os.Remove(full)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", rel, err)
	}
	s.log.Info("deleted log entry", zap.String("path", rel), zap.String("type", string(typ)))
	return nil
}
