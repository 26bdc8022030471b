package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/bstviz/internal/command"
	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

// ErrExpectationFailed is returned by Report.Err when any step mismatched.
var ErrExpectationFailed = errors.New("scenario expectations failed")

// DefaultSettleTicks bounds a settle step.
const DefaultSettleTicks = 10_000

// StepResult is the outcome of one step.
type StepResult struct {
	Index      int        `json:"index"`
	Do         string     `json:"do,omitempty"`
	Status     string     `json:"status"`
	Accepted   bool       `json:"accepted"`
	Ticks      int        `json:"ticks"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
}

// Report is the outcome of a whole run.
type Report struct {
	Name  string       `json:"name"`
	Steps []StepResult `json:"steps"`
	Ticks int          `json:"ticks"`
	Final layout.Frame `json:"final"`
}

// Failures counts the mismatched expectations.
func (r *Report) Failures() int {
	total := 0
	for _, step := range r.Steps {
		total += len(step.Mismatches)
	}

	return total
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return r.Failures() == 0
}

// Err returns ErrExpectationFailed with the first mismatch, or nil.
func (r *Report) Err() error {
	for _, step := range r.Steps {
		if len(step.Mismatches) > 0 {
			return fmt.Errorf("%w: %d mismatches, first at step %d: %s",
				ErrExpectationFailed, r.Failures(), step.Index, step.Mismatches[0])
		}
	}

	return nil
}

// Runner replays scenarios with a fixed tick length.
type Runner struct {
	params      layout.Params
	logger      *slog.Logger
	tracer      trace.Tracer
	recorder    *recorder.Recorder
	settleTicks int
	dt          float64
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for step progress.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for run and step spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithRecorder records a frame after every tick.
func WithRecorder(rec *recorder.Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithSettleTicks bounds the ticks of a settle step.
func WithSettleTicks(n int) Option {
	return func(r *Runner) {
		r.settleTicks = n
	}
}

// WithDT overrides the tick length of every scenario.
func WithDT(dt float64) Option {
	return func(r *Runner) {
		r.dt = dt
	}
}

// NewRunner creates a runner building controllers with params.
func NewRunner(params layout.Params, opts ...Option) *Runner {
	r := &Runner{
		params:      params,
		logger:      slog.New(slog.DiscardHandler),
		tracer:      noop.NewTracerProvider().Tracer(""),
		settleTicks: DefaultSettleTicks,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run replays the scenario on a new controller. It only fails when ctx is
// done; mismatches are collected in the report.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	ctx, span := r.tracer.Start(ctx, "bstviz.scenario.run",
		trace.WithAttributes(
			attribute.String("scenario.name", sc.Name),
			attribute.Int("scenario.steps", len(sc.Steps)),
		))
	defer span.End()

	dt := sc.DT
	if r.dt > 0 {
		dt = r.dt
	}

	if dt <= 0 {
		dt = DefaultDT
	}

	ctrl := layout.New(r.params)
	ctrl.Seed(sc.Seed...)
	r.record(ctrl)

	report := &Report{Name: sc.Name, Steps: make([]StepResult, 0, len(sc.Steps))}

	for idx, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "canceled")

			return report, fmt.Errorf("scenario %q step %d: %w", sc.Name, idx, err)
		}

		result := r.runStep(ctx, ctrl, idx, step, dt)
		report.Ticks += result.Ticks
		report.Steps = append(report.Steps, result)
	}

	report.Final = ctrl.Snapshot()

	span.SetAttributes(attribute.Int("scenario.failures", report.Failures()))

	if !report.Passed() {
		span.SetStatus(codes.Error, "expectations failed")
	}

	r.logger.InfoContext(ctx, "scenario finished",
		"name", sc.Name,
		"steps", len(report.Steps),
		"ticks", report.Ticks,
		"failures", report.Failures(),
	)

	return report, nil
}

func (r *Runner) runStep(ctx context.Context, ctrl *layout.Controller, idx int, step Step, dt float64) StepResult {
	_, span := r.tracer.Start(ctx, "bstviz.scenario.step",
		trace.WithAttributes(
			attribute.Int("scenario.step", idx),
			attribute.String("command.text", step.Do),
		))
	defer span.End()

	result := StepResult{Index: idx, Do: step.Do, Accepted: true, Status: ctrl.Status()}

	if step.Do != "" {
		cmd, err := command.Parse(step.Do)
		if err != nil {
			applied := command.Reject(ctrl, err)
			result.Status, result.Accepted = applied.Status, applied.OK
		} else {
			applied := cmd.Apply(ctrl)
			result.Status, result.Accepted = applied.Status, applied.OK
		}
	}

	for range step.Ticks {
		ctrl.Tick(dt)
		r.record(ctrl)
		result.Ticks++
	}

	if step.Settle {
		result.Ticks += r.settle(ctrl, dt)
	}

	if step.Expect != nil {
		result.Mismatches = check(ctrl, step.Expect)
	}

	r.logger.DebugContext(ctx, "scenario step",
		"step", idx,
		"do", step.Do,
		"status", ctrl.Status(),
		"ticks", result.Ticks,
		"mismatches", len(result.Mismatches),
	)

	if len(result.Mismatches) > 0 {
		span.SetStatus(codes.Error, result.Mismatches[0].String())
	}

	return result
}

// settle ticks at least once, until the controller is quiet.
func (r *Runner) settle(ctrl *layout.Controller, dt float64) int {
	ticks := 0

	for ticks < r.settleTicks {
		ctrl.Tick(dt)
		r.record(ctrl)
		ticks++

		if ctrl.Quiet() {
			break
		}
	}

	return ticks
}

func (r *Runner) record(ctrl *layout.Controller) {
	if r.recorder != nil {
		r.recorder.Record(ctrl.Snapshot())
	}
}

func check(ctrl *layout.Controller, want *Expect) []Mismatch {
	var out []Mismatch

	text := func(field string, want *string, got string) {
		if want != nil && *want != got {
			out = append(out, Mismatch{Field: field, Want: *want, Got: got, Diff: textDiff(*want, got)})
		}
	}

	number := func(field string, want *int, got int) {
		if want != nil && *want != got {
			out = append(out, Mismatch{Field: field, Want: strconv.Itoa(*want), Got: strconv.Itoa(got)})
		}
	}

	text("inorder", want.InOrder, ctrl.InOrder())
	text("preorder", want.PreOrder, ctrl.PreOrder())
	text("postorder", want.PostOrder, ctrl.PostOrder())
	text("status", want.Status, ctrl.Status())
	number("size", want.Size, ctrl.Size())
	number("depth", want.Depth, ctrl.Depth())

	stats := ctrl.Stats()
	if !stats.Empty {
		number("minimum", want.Minimum, stats.Minimum)
		number("maximum", want.Maximum, stats.Maximum)
	} else {
		if want.Minimum != nil {
			out = append(out, Mismatch{Field: "minimum", Want: strconv.Itoa(*want.Minimum), Got: "empty"})
		}

		if want.Maximum != nil {
			out = append(out, Mismatch{Field: "maximum", Want: strconv.Itoa(*want.Maximum), Got: "empty"})
		}
	}

	if want.Settled != nil && *want.Settled != ctrl.Settled() {
		out = append(out, Mismatch{
			Field: "settled",
			Want:  strconv.FormatBool(*want.Settled),
			Got:   strconv.FormatBool(ctrl.Settled()),
		})
	}

	if want.Search != nil && *want.Search != ctrl.SearchState().String() {
		out = append(out, Mismatch{Field: "search", Want: *want.Search, Got: ctrl.SearchState().String()})
	}

	if want.Check != nil && *want.Check {
		if err := ctrl.Check(); err != nil {
			out = append(out, Mismatch{Field: "check", Want: "valid tree", Got: err.Error()})
		}
	}

	return out
}
