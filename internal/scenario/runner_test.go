package scenario_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/bstviz/internal/recorder"
	"github.com/Sumatoshi-tech/bstviz/internal/scenario"
	"github.com/Sumatoshi-tech/bstviz/pkg/layout"
)

func loadBasic(t *testing.T) *scenario.Scenario {
	t.Helper()

	sc, err := scenario.Load("testdata/basic.yaml")
	require.NoError(t, err)

	return sc
}

func TestRunBasicPasses(t *testing.T) {
	t.Parallel()

	report, err := scenario.NewRunner(layout.DefaultParams()).Run(context.Background(), loadBasic(t))
	require.NoError(t, err)

	for _, step := range report.Steps {
		assert.Empty(t, step.Mismatches, "step %d (%s)", step.Index, step.Do)
	}

	require.NoError(t, report.Err())
	assert.True(t, report.Passed())
	assert.Equal(t, "basic", report.Name)
	assert.Empty(t, report.Final.Nodes)
	assert.Equal(t, layout.StatusCleared, report.Final.Status)

	assert.False(t, report.Steps[5].Accepted, "three-digit key is rejected")
	assert.True(t, report.Steps[0].Accepted)
	assert.Equal(t, 3, report.Steps[1].Ticks)
}

func TestRunExampleDemoPasses(t *testing.T) {
	t.Parallel()

	sc, err := scenario.Load("../../examples/demo.yaml")
	require.NoError(t, err)

	report, err := scenario.NewRunner(layout.DefaultParams()).Run(context.Background(), sc)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	root, ok := report.Final.Node(report.Final.Root)
	require.True(t, ok)
	assert.Equal(t, 55, root.Key)
}

func TestRunReportsMismatchWithDiff(t *testing.T) {
	t.Parallel()

	sc, err := scenario.Parse([]byte(`
name: wrong
seed: [2, 1, 3]
steps:
  - do: insert 4
    expect:
      inorder: "1 2 3 5"
      size: 3
`))
	require.NoError(t, err)

	report, err := scenario.NewRunner(layout.DefaultParams()).Run(context.Background(), sc)
	require.NoError(t, err)

	assert.False(t, report.Passed())
	assert.Equal(t, 2, report.Failures())
	require.ErrorIs(t, report.Err(), scenario.ErrExpectationFailed)

	mismatches := report.Steps[0].Mismatches
	require.Len(t, mismatches, 2)
	assert.Equal(t, "inorder", mismatches[0].Field)
	assert.Equal(t, "1 2 3 [-5-]{+4+}", mismatches[0].Diff)
	assert.Equal(t, "size", mismatches[1].Field)
	assert.Equal(t, "size: want 3, got 4", mismatches[1].String())
}

func TestRunEmptyTreeMinimumMismatch(t *testing.T) {
	t.Parallel()

	sc, err := scenario.Parse([]byte("name: empty\nsteps:\n  - expect:\n      minimum: 1\n"))
	require.NoError(t, err)

	report, err := scenario.NewRunner(layout.DefaultParams()).Run(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, report.Steps[0].Mismatches, 1)
	assert.Equal(t, "empty", report.Steps[0].Mismatches[0].Got)
}

func TestRunRecordsFrames(t *testing.T) {
	t.Parallel()

	rec, err := recorder.New(1000, 1)
	require.NoError(t, err)

	report, err := scenario.NewRunner(layout.DefaultParams(), scenario.WithRecorder(rec)).
		Run(context.Background(), loadBasic(t))
	require.NoError(t, err)

	// One frame after seeding plus one per tick.
	assert.Equal(t, report.Ticks+1, rec.Len())

	frames, err := rec.Frames()
	require.NoError(t, err)
	assert.Len(t, frames[0].Nodes, 7)
}

func TestRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := scenario.NewRunner(layout.DefaultParams()).Run(ctx, loadBasic(t))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Steps)
}

func TestRunSettleTicksBound(t *testing.T) {
	t.Parallel()

	sc, err := scenario.Parse([]byte("name: slow\nseed: [5, 1, 9]\nsteps:\n  - do: search 9\n    settle: true\n"))
	require.NoError(t, err)

	report, err := scenario.NewRunner(layout.DefaultParams(), scenario.WithSettleTicks(2)).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Ticks)
}

func TestRunEmitsSpansAndLogs(t *testing.T) {
	t.Parallel()

	spanRec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRec))

	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	runner := scenario.NewRunner(layout.DefaultParams(),
		scenario.WithTracer(tp.Tracer("test")),
		scenario.WithLogger(logger),
		scenario.WithDT(0.25),
	)

	_, err := runner.Run(context.Background(), loadBasic(t))
	require.NoError(t, err)

	spans := spanRec.Ended()
	require.NoError(t, tp.Shutdown(context.Background()))
	require.Len(t, spans, 8)
	assert.Equal(t, "bstviz.scenario.run", spans[len(spans)-1].Name())
	assert.Equal(t, "bstviz.scenario.step", spans[0].Name())

	assert.Contains(t, logs.String(), "scenario finished")
	assert.Contains(t, logs.String(), "do=\"insert 13\"")
}
