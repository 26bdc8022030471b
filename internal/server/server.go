// Package server exposes a running session over HTTP: a JSON command API, the
// current frame as JSON or HTML, health probes and the metrics endpoint.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/render"
	"github.com/Sumatoshi-tech/bstviz/internal/session"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
)

// maxBodyBytes bounds a command request body.
const maxBodyBytes = 4 << 10

// Server timeout defaults.
const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// errNotRunning is reported by the readiness probe.
var errNotRunning = errors.New("session is not running")

// Config holds the listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on localhost:8080.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8080",
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		IdleTimeout:     defaultIdleTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// CommandRequest is the body of POST /api/command. Line takes precedence
// over Op and Key. Key is required for insert, delete and search.
type CommandRequest struct {
	Line string `json:"line,omitempty"`
	Op   string `json:"op,omitempty"`
	Key  *int   `json:"key,omitempty"`
}

// CommandResponse is the answer of POST /api/command.
type CommandResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Server serves one session.
type Server struct {
	cfg     Config
	sess    *session.Session
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics http.Handler
	view    render.Options
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = observability.Component(logger, "server")
	}
}

// WithTracer sets the tracer of the request middleware.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithMetricsHandler mounts the scrape handler on /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithViewOptions sets the defaults of the HTML views.
func WithViewOptions(o render.Options) Option {
	return func(s *Server) {
		s.view = o
	}
}

// New creates a server for sess.
func New(sess *session.Session, cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		sess:   sess,
		logger: slog.New(slog.DiscardHandler),
		tracer: noop.NewTracerProvider().Tracer(""),
		view:   render.DefaultOptions(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the routes. API and view routes are traced.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/command", s.handleCommand)
	api.HandleFunc("GET /api/state", s.handleState)
	api.HandleFunc("GET /view", s.handleView)
	api.HandleFunc("GET /view/storyboard", s.handleStoryboard)

	mux := http.NewServeMux()
	traced := observability.HTTPMiddleware(s.tracer, api)
	mux.Handle("/api/", traced)
	mux.Handle("/view", traced)
	mux.Handle("/view/", traced)
	mux.Handle("GET /healthz", observability.HealthHandler())
	mux.Handle("GET /readyz", observability.ReadyHandler(s.ready))

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return mux
}

func (s *Server) ready(context.Context) error {
	if !s.sess.Running() {
		return errNotRunning
	}

	return nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	return s.Serve(ctx, listener)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpSrv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- httpSrv.Serve(listener)
	}()

	s.logger.InfoContext(ctx, "server listening", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.InfoContext(ctx, "server stopped")

	return nil
}

func (s *Server) handleCommand(rw http.ResponseWriter, hr *http.Request) {
	ctx := hr.Context()

	var req CommandRequest

	dec := json.NewDecoder(http.MaxBytesReader(rw, hr.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		s.writeJSON(ctx, rw, http.StatusBadRequest, CommandResponse{Error: "invalid request body: " + err.Error()})

		return
	}

	cmd, err := req.command()
	if err != nil {
		result, rejectErr := s.sess.Reject(ctx, err)
		if rejectErr != nil {
			s.writeSessionError(ctx, rw, rejectErr)

			return
		}

		s.writeJSON(ctx, rw, http.StatusBadRequest, CommandResponse{Status: result.Status, Error: err.Error()})

		return
	}

	result, err := s.sess.Submit(ctx, cmd)
	if err != nil {
		s.writeSessionError(ctx, rw, err)

		return
	}

	s.writeJSON(ctx, rw, http.StatusOK, CommandResponse{Status: result.Status, OK: result.OK})
}

func (req CommandRequest) command() (command.Command, error) {
	if req.Line != "" {
		return command.Parse(req.Line)
	}

	op, err := command.ParseOp(req.Op)
	if err != nil {
		return command.Command{}, err
	}

	cmd := command.Command{Op: op}

	switch {
	case req.Key != nil:
		cmd.Key = *req.Key
	case op.NeedsKey():
		return command.Command{}, fmt.Errorf("%w: empty key", command.ErrInvalidInput)
	}

	if err := cmd.Validate(); err != nil {
		return command.Command{}, err
	}

	return cmd, nil
}

func (s *Server) handleState(rw http.ResponseWriter, hr *http.Request) {
	frame, err := s.sess.Snapshot(hr.Context())
	if err != nil {
		s.writeSessionError(hr.Context(), rw, err)

		return
	}

	s.writeJSON(hr.Context(), rw, http.StatusOK, frame)
}

func (s *Server) viewOptions(hr *http.Request) (render.Options, error) {
	o := s.view

	if name := hr.URL.Query().Get("theme"); name != "" {
		theme, err := render.ParseTheme(name)
		if err != nil {
			return o, err
		}

		o.Theme = theme
	}

	return o, nil
}

func (s *Server) handleView(rw http.ResponseWriter, hr *http.Request) {
	o, err := s.viewOptions(hr)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	frame, err := s.sess.Snapshot(hr.Context())
	if err != nil {
		s.writeSessionError(hr.Context(), rw, err)

		return
	}

	var buf bytes.Buffer

	if err := render.WriteHTML(&buf, frame, o); err != nil {
		s.logger.ErrorContext(hr.Context(), "render view", "error", err)
		http.Error(rw, "render failed", http.StatusInternalServerError)

		return
	}

	s.writeHTML(hr.Context(), rw, buf.Bytes())
}

func (s *Server) handleStoryboard(rw http.ResponseWriter, hr *http.Request) {
	rec := s.sess.Recorder()
	if rec == nil {
		http.Error(rw, "recording is disabled", http.StatusNotFound)

		return
	}

	o, err := s.viewOptions(hr)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)

		return
	}

	frames, err := rec.Frames()
	if err != nil {
		s.logger.ErrorContext(hr.Context(), "decode recording", "error", err)
		http.Error(rw, "recording is corrupt", http.StatusInternalServerError)

		return
	}

	var buf bytes.Buffer

	if err := render.WriteStoryboard(&buf, frames, o); err != nil {
		s.logger.ErrorContext(hr.Context(), "render storyboard", "error", err)
		http.Error(rw, "render failed", http.StatusInternalServerError)

		return
	}

	s.writeHTML(hr.Context(), rw, buf.Bytes())
}

func (s *Server) writeSessionError(ctx context.Context, rw http.ResponseWriter, err error) {
	s.logger.WarnContext(ctx, "session unavailable", "error", err)
	s.writeJSON(ctx, rw, http.StatusServiceUnavailable, CommandResponse{Error: err.Error()})
}

// writeJSON encodes the given value as JSON and writes it to the response writer.
func (s *Server) writeJSON(ctx context.Context, rw http.ResponseWriter, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	if err := json.NewEncoder(rw).Encode(value); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

func (s *Server) writeHTML(ctx context.Context, rw http.ResponseWriter, body []byte) {
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")

	if _, err := rw.Write(body); err != nil {
		s.logger.ErrorContext(ctx, "failed to write HTML response", "error", err)
	}
}
