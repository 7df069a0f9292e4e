// Package api holds the wire types of the logview REST contract, shared by
// the server and the HTTP client.
package api

import "github.com/vanderheijden86/logview/pkg/model"

// Routes.
const (
	PathLogs     = "/api/logs"
	PathDetail   = "/api/logs/detail"
	PathDownload = "/api/logs/download"
	PathAudit    = "/api/logs/audit"
	PathMetrics  = "/api/metrics"
)

// Query parameters of PathDetail and PathAudit.
const (
	ParamFile  = "file"
	ParamPath  = "path"
	ParamLimit = "limit"
)

// Envelope wraps every JSON response. Code mirrors the HTTP status.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// DownloadRequest is the body of POST PathDownload.
type DownloadRequest struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// DeleteRequest is the body of DELETE PathLogs.
type DeleteRequest struct {
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	Type     model.NodeType `json:"type"`
}
