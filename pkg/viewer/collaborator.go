package viewer

import (
	"context"
	"io"

	"github.com/vanderheijden86/logview/pkg/model"
)

// Collaborator is the log source the viewer drives. filename is a node's
// Title and path its Parent, the pair the REST contract identifies an entry
// by. Implementations return errors the caller wraps with Transport.
type Collaborator interface {
	ListLogs(ctx context.Context) ([]model.TreeNode, error)
	GetLogContent(ctx context.Context, filename, path string) (string, error)
	DownloadLog(ctx context.Context, filename, path string) (io.ReadCloser, error)
	DeleteLog(ctx context.Context, filename, path string, typ model.NodeType) error
}

// ContentRequest identifies one content load. Seq increases with every
// selection so a slow response for an earlier selection of the same file can
// be told apart from the current one.
type ContentRequest struct {
	Key      string
	Filename string
	Path     string
	Seq      uint64
}
