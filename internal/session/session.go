// Package session runs a layout controller on a single owner goroutine. Other
// goroutines reach the controller only through requests that the owner
// executes between ticks.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
	"github.com/Sumatoshi-tech/bstviz/pkg/observability"
)

// Session errors.
var (
	ErrStopped        = errors.New("session: stopped")
	ErrAlreadyRunning = errors.New("session: already running")
)

// DefaultTickInterval drives the controller at 60 ticks per second.
const DefaultTickInterval = time.Second / 60

const spanCommand = "bstviz.session.command"

type request struct {
	fn   func(ctrl *layout.Controller)
	done chan struct{}
}

// Session owns a controller and ticks it until its context is cancelled.
type Session struct {
	ctrl     *layout.Controller
	requests chan request
	stopped  chan struct{}
	running  atomic.Bool
	started  atomic.Bool

	interval time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	red      *observability.REDMetrics
	recorder *recorder.Recorder

	sampleMu sync.Mutex
	sample   observability.TreeSample
}

// Option configures a Session.
type Option func(*Session)

// WithTickInterval sets the wall-clock period between ticks.
func WithTickInterval(interval time.Duration) Option {
	return func(s *Session) {
		s.interval = interval
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = observability.Component(logger, "session")
	}
}

// WithTracer sets the tracer used for command and tick spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Session) {
		s.tracer = tracer
	}
}

// WithMeter sets the meter for command RED metrics and tree gauges.
func WithMeter(meter metric.Meter) Option {
	return func(s *Session) {
		s.meter = meter
	}
}

// WithRecorder records a frame after every tick.
func WithRecorder(rec *recorder.Recorder) Option {
	return func(s *Session) {
		s.recorder = rec
	}
}

// New wraps ctrl. The caller must not touch ctrl afterwards.
func New(ctrl *layout.Controller, opts ...Option) (*Session, error) {
	s := &Session{
		ctrl:     ctrl,
		requests: make(chan request),
		stopped:  make(chan struct{}),
		interval: DefaultTickInterval,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   noop.NewTracerProvider().Tracer(""),
		meter:    metricnoop.NewMeterProvider().Meter(""),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.interval <= 0 {
		return nil, fmt.Errorf("session: tick interval %v must be positive", s.interval)
	}

	red, err := observability.NewREDMetrics(s.meter)
	if err != nil {
		return nil, fmt.Errorf("session metrics: %w", err)
	}

	s.red = red
	s.updateSample()

	return s, nil
}

// Running reports whether the owner goroutine is executing Run.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Recorder returns the frame recorder, or nil.
func (s *Session) Recorder() *recorder.Recorder {
	return s.recorder
}

// Sample returns the tree state measured after the last tick.
func (s *Session) Sample() observability.TreeSample {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	return s.sample
}

// Run ticks the controller and serves requests until ctx is cancelled. A
// session runs at most once; requests issued after Run returns fail with
// ErrStopped.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	reg, err := observability.RegisterTreeGauges(s.meter, s.Sample)
	if err != nil {
		close(s.stopped)

		return fmt.Errorf("session gauges: %w", err)
	}

	s.running.Store(true)

	defer func() {
		s.running.Store(false)
		close(s.stopped)

		if unregErr := reg.Unregister(); unregErr != nil {
			s.logger.WarnContext(ctx, "unregister tree gauges", "error", unregErr)
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "session started", "interval", s.interval, "size", s.Sample().Size)

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session stopped", "ticks", s.Sample().Ticks)

			return nil
		case req := <-s.requests:
			req.fn(s.ctrl)
			close(req.done)
		case now := <-ticker.C:
			s.tick(ctx, now.Sub(last).Seconds())
			last = now
		}
	}
}

func (s *Session) tick(ctx context.Context, dt float64) {
	_, span := s.tracer.Start(ctx, observability.SpanTick)
	defer span.End()

	before := s.ctrl.Status()
	if status := s.ctrl.Tick(dt); status != before {
		s.logger.DebugContext(ctx, "status changed", "status", status)
	}

	s.updateSample()

	if s.recorder != nil {
		s.recorder.Record(s.ctrl.Snapshot())
	}
}

func (s *Session) updateSample() {
	frame := s.ctrl.Snapshot()
	moving := 0

	for _, nv := range frame.Nodes {
		if nv.Repositioning {
			moving++
		}
	}

	s.sampleMu.Lock()
	s.sample = observability.TreeSample{
		Size:        frame.Stats.Size,
		Depth:       frame.Stats.Depth,
		Moving:      moving,
		Ticks:       frame.Tick,
		SearchState: frame.Search.State.String(),
	}
	s.sampleMu.Unlock()
}

// Do runs fn on the owner goroutine between two ticks and waits for it. fn
// must not retain ctrl.
func (s *Session) Do(ctx context.Context, fn func(ctrl *layout.Controller)) error {
	req := request{fn: fn, done: make(chan struct{})}

	select {
	case s.requests <- req:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit applies cmd on the owner goroutine and returns its immediate result.
func (s *Session) Submit(ctx context.Context, cmd command.Command) (command.Result, error) {
	op := string(cmd.Op)
	start := time.Now()

	untrack := s.red.TrackInflight(ctx, op)
	defer untrack()

	ctx, span := s.tracer.Start(ctx, spanCommand, trace.WithAttributes(
		attribute.String("command.op", op),
		attribute.String("command.key", strconv.Itoa(cmd.Key)),
	))
	defer span.End()

	var result command.Result

	err := s.Do(ctx, func(ctrl *layout.Controller) {
		result = cmd.Apply(ctrl)
	})

	status := observability.StatusOK

	switch {
	case err != nil:
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case !result.OK:
		status = observability.StatusError

		span.SetStatus(codes.Error, result.Status)
	}

	s.red.RecordRequest(ctx, op, status, time.Since(start))

	if err != nil {
		return command.Result{}, err
	}

	s.logger.InfoContext(ctx, "command applied", "command", cmd.String(), "status", result.Status, "ok", result.OK)

	return result, nil
}

// Reject shows a boundary error on the controller's status line.
func (s *Session) Reject(ctx context.Context, cause error) (command.Result, error) {
	var result command.Result

	err := s.Do(ctx, func(ctrl *layout.Controller) {
		result = command.Reject(ctrl, cause)
	})
	if err != nil {
		return command.Result{}, err
	}

	return result, nil
}

// Snapshot copies the render state on the owner goroutine.
func (s *Session) Snapshot(ctx context.Context) (layout.Frame, error) {
	var frame layout.Frame

	err := s.Do(ctx, func(ctrl *layout.Controller) {
		frame = ctrl.Snapshot()
	})
	if err != nil {
		return layout.Frame{}, err
	}

	return frame, nil
}
