package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommandsTotal    = "bstviz.commands.total"
	metricCommandDuration  = "bstviz.command.duration.seconds"
	metricErrorsTotal      = "bstviz.errors.total"
	metricInflightCommands = "bstviz.inflight.commands"

	metricTreeSize   = "bstviz.tree.size"
	metricTreeDepth  = "bstviz.tree.depth"
	metricTreeMoving = "bstviz.tree.moving_nodes"
	metricTreeTicks  = "bstviz.tree.ticks"

	attrOp          = "op"
	attrStatus      = "status"
	attrSearchState = "search_state"

	statusError = "error"
	statusOK    = "ok"

	unitNode          = "{node}"
	unitCommand       = "{command}"
	unitTick          = "{tick}"
	unitErrorInstance = "{error}"
)

// Status values recorded by RecordRequest.
const (
	StatusOK    = statusOK
	StatusError = statusError
)

// commandBuckets covers sub-millisecond tree edits up to a slow host round trip.
var commandBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// REDMetrics holds the Rate, Error, Duration instruments for tree commands.
type REDMetrics struct {
	commandsTotal    metric.Int64Counter
	commandDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightCommands metric.Int64UpDownCounter
}

// NewREDMetrics creates RED instruments from the given meter.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	total, err := mt.Int64Counter(metricCommandsTotal,
		metric.WithDescription("Total number of tree commands"),
		metric.WithUnit(unitCommand),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandsTotal, err)
	}

	duration, err := mt.Float64Histogram(metricCommandDuration,
		metric.WithDescription("Tree command duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(commandBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCommandDuration, err)
	}

	errorsTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of rejected or failed commands"),
		metric.WithUnit(unitErrorInstance),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightCommands,
		metric.WithDescription("Number of commands waiting for the session"),
		metric.WithUnit(unitCommand),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightCommands, err)
	}

	return &REDMetrics{
		commandsTotal:    total,
		commandDuration:  duration,
		errorsTotal:      errorsTotal,
		inflightCommands: inflight,
	}, nil
}

// RecordRequest records a completed command.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.commandsTotal.Add(ctx, 1, attrs)
	rm.commandDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightCommands.Add(ctx, 1, attrs)

	return func() {
		rm.inflightCommands.Add(ctx, -1, attrs)
	}
}

// TreeSample is the tree state reported by the tree gauges.
type TreeSample struct {
	Size        int
	Depth       int
	Moving      int
	Ticks       uint64
	SearchState string
}

// RegisterTreeGauges registers observable gauges fed by sample on every
// collection. Unregister the returned registration when the source goes away.
func RegisterTreeGauges(mt metric.Meter, sample func() TreeSample) (metric.Registration, error) {
	size, err := mt.Int64ObservableGauge(metricTreeSize,
		metric.WithDescription("Number of nodes in the tree"), metric.WithUnit(unitNode))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeSize, err)
	}

	depth, err := mt.Int64ObservableGauge(metricTreeDepth,
		metric.WithDescription("Number of levels in the tree"), metric.WithUnit("{level}"))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeDepth, err)
	}

	moving, err := mt.Int64ObservableGauge(metricTreeMoving,
		metric.WithDescription("Nodes still travelling to their layout target"), metric.WithUnit(unitNode))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeMoving, err)
	}

	ticks, err := mt.Int64ObservableCounter(metricTreeTicks,
		metric.WithDescription("Animation ticks applied"), metric.WithUnit(unitTick))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTreeTicks, err)
	}

	reg, err := mt.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		s := sample()
		state := metric.WithAttributes(attribute.String(attrSearchState, s.SearchState))

		obs.ObserveInt64(size, int64(s.Size), state)
		obs.ObserveInt64(depth, int64(s.Depth), state)
		obs.ObserveInt64(moving, int64(s.Moving), state)
		obs.ObserveInt64(ticks, int64(s.Ticks)) //nolint:gosec // tick counts stay far below MaxInt64.

		return nil
	}, size, depth, moving, ticks)
	if err != nil {
		return nil, fmt.Errorf("register tree gauges: %w", err)
	}

	return reg, nil
}
