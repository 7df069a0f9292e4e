// Package client implements the viewer's log source against a remote
// `lv serve` instance.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/vanderheijden86/logview/pkg/api"
	"github.com/vanderheijden86/logview/pkg/audit"
	"github.com/vanderheijden86/logview/pkg/metrics"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/viewer"
)

// DefaultTimeout applies to every request except downloads, which stream.
const DefaultTimeout = 2 * time.Minute

// ErrStatus is wrapped by errors built from non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// StatusError carries the server's status code and message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Client talks to a logview server.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

var _ viewer.Collaborator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client for the server at baseURL, e.g. "http://host:8089".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: DefaultTimeout},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body any) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), rdr)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// statusError reads an error envelope from resp.
func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	var env api.Envelope[json.RawMessage]
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&env); err == nil {
		se.Message = env.Message
	}
	return se
}

// call performs a JSON request and decodes the envelope's data into T.
func call[T any](ctx context.Context, c *Client, method, path string, q url.Values, body any) (T, error) {
	var zero T
	req, err := c.newRequest(ctx, method, path, q, body)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.HTTPRequest.Record(time.Since(start))
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode/100 != 2 {
		return zero, statusError(resp)
	}
	var env api.Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("decode %s response: %w", path, err)
	}
	return env.Data, nil
}

// ListLogs fetches the full log tree.
func (c *Client) ListLogs(ctx context.Context) ([]model.TreeNode, error) {
	nodes, err := call[[]model.TreeNode](ctx, c, http.MethodGet, api.PathLogs, nil, nil)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []model.TreeNode{}
	}
	return nodes, nil
}

// GetLogContent fetches one file's text.
func (c *Client) GetLogContent(ctx context.Context, filename, path string) (string, error) {
	q := url.Values{}
	q.Set(api.ParamFile, filename)
	q.Set(api.ParamPath, path)
	return call[string](ctx, c, http.MethodGet, api.PathDetail, q, nil)
}

// DownloadLog streams a file's raw bytes. The caller closes the body.
// Downloads are not bounded by the client timeout; use ctx instead.
func (c *Client) DownloadLog(ctx context.Context, filename, path string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodPost, api.PathDownload, nil, api.DownloadRequest{Filename: filename, Path: path})
	if err != nil {
		return nil, err
	}
	hc := *c.http
	hc.Timeout = 0
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp.Body, nil
}

// DeleteLog removes a file or a whole directory on the server.
func (c *Client) DeleteLog(ctx context.Context, filename, path string, typ model.NodeType) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, api.PathLogs, nil,
		api.DeleteRequest{Filename: filename, Path: path, Type: typ})
	return err
}

// Audit fetches up to limit journal records, newest first.
func (c *Client) Audit(ctx context.Context, limit int) ([]audit.Record, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{api.ParamLimit: {strconv.Itoa(limit)}}
	}
	return call[[]audit.Record](ctx, c, http.MethodGet, api.PathAudit, q, nil)
}

// Metrics fetches the server's metrics snapshot.
func (c *Client) Metrics(ctx context.Context) (metrics.Snapshot, error) {
	return call[metrics.Snapshot](ctx, c, http.MethodGet, api.PathMetrics, nil, nil)
}
