// Package server exposes a log source over the logview REST contract.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/logview/pkg/api"
	"github.com/vanderheijden86/logview/pkg/audit"
	"github.com/vanderheijden86/logview/pkg/metrics"
	"github.com/vanderheijden86/logview/pkg/model"
	"github.com/vanderheijden86/logview/pkg/viewer"
)

// Config holds configuration for the server.
type Config struct {
	// Source answers every log request.
	Source viewer.Collaborator
	// Journal, when set, records deletions and downloads.
	Journal *audit.Journal
	// Addr is the listen address, e.g. ":8089".
	Addr   string
	Logger *zap.Logger
	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
}

// Server is the REST server.
type Server struct {
	source   viewer.Collaborator
	journal  *audit.Journal
	addr     string
	log      *zap.Logger
	shutdown time.Duration
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{
		source:   cfg.Source,
		journal:  cfg.Journal,
		addr:     cfg.Addr,
		log:      log,
		shutdown: timeout,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		s.requestLogger,
		middleware.Recoverer,
		middleware.Compress(5, "application/json", "text/plain"),
	)

	r.Get(api.PathLogs, s.handleList)
	r.Delete(api.PathLogs, s.handleDelete)
	r.Get(api.PathDetail, s.handleDetail)
	r.Post(api.PathDownload, s.handleDownload)
	r.Get(api.PathAudit, s.handleAudit)
	r.Get(api.PathMetrics, s.handleMetrics)
	return r
}

// Serve listens on the configured address and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.log.Info("starting server", zap.String("addr", "http://"+ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()

		s.log.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			d := time.Since(start)
			metrics.HTTPRequest.Record(d)
			s.log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", d),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	stop := metrics.Timer(metrics.ListLogs)
	nodes, err := s.source.ListLogs(r.Context())
	stop()
	if err != nil {
		s.log.Error("list logs failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeData(w, nodes)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	file := q.Get(api.ParamFile)
	if file == "" {
		writeError(w, fmt.Errorf("%w: %s is required", errBadRequest, api.ParamFile))
		return
	}

	stop := metrics.Timer(metrics.LoadContent)
	text, err := s.source.GetLogContent(r.Context(), file, q.Get(api.ParamPath))
	stop()
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, text)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req api.DownloadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Filename == "" {
		writeError(w, fmt.Errorf("%w: filename is required", errBadRequest))
		return
	}

	stop := metrics.Timer(metrics.DownloadLog)
	defer stop()

	body, err := s.source.DownloadLog(r.Context(), req.Filename, req.Path)
	s.record(r, audit.Record{
		Action: audit.ActionDownload, Filename: req.Filename, Path: req.Path, Type: model.NodeFile,
	}, err)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": req.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.log.Warn("download interrupted", zap.String("file", req.Filename), zap.Error(err))
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Type.IsValid() {
		writeError(w, fmt.Errorf("%w: unknown type %q", errBadRequest, req.Type))
		return
	}

	stop := metrics.Timer(metrics.DeleteLog)
	err := s.source.DeleteLog(r.Context(), req.Filename, req.Path, req.Type)
	stop()
	s.record(r, audit.Record{
		Action: audit.ActionDelete, Filename: req.Filename, Path: req.Path, Type: req.Type,
	}, err)
	if err != nil {
		s.log.Warn("delete failed", zap.String("filename", req.Filename), zap.String("path", req.Path), zap.Error(err))
		writeError(w, err)
		return
	}
	metrics.NodesDeleted.Inc()
	writeData[any](w, nil)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeData(w, []audit.Record{})
		return
	}
	limit := audit.DefaultLimit
	if v := r.URL.Query().Get(api.ParamLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: invalid limit %q", errBadRequest, v))
			return
		}
		limit = n
	}
	recs, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error("read audit journal", zap.Error(err))
		writeError(w, err)
		return
	}
	writeData(w, recs)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeData(w, metrics.Take())
}

// record journals an operation. Journal failures are logged, never returned:
// the operation itself already happened.
func (s *Server) record(r *http.Request, rec audit.Record, opErr error) {
	if s.journal == nil {
		return
	}
	rec.Remote = r.RemoteAddr
	rec.OK = opErr == nil
	if opErr != nil {
		rec.Error = opErr.Error()
	}
	if _, err := s.journal.Record(context.WithoutCancel(r.Context()), rec); err != nil {
		s.log.Error("audit record failed", zap.Error(err))
	}
}
