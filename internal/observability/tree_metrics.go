package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bpowers/mathquill/pkg/tree"
)

const (
	metricNodesCreated   = "mqtree.tree.nodes.created"
	metricNodesDisposed  = "mqtree.tree.nodes.disposed"
	metricSplices        = "mqtree.tree.splices.total"
	metricSpliceMembers  = "mqtree.tree.splice.members"
	metricViolations     = "mqtree.tree.violations.total"
	metricLiveNodes      = "mqtree.tree.nodes.live"
	attrKind             = "kind"
	attrViolationClass   = "class"
	violationClassOther  = "other"
	spliceMembersMaxSize = 1024
)

var spliceMemberBuckets = []float64{1, 2, 4, 8, 16, 64, 256, spliceMembersMaxSize}

// TreeMetrics records arena events as OTel metrics. It implements
// tree.Observer; install it with tree.WithObserver.
type TreeMetrics struct {
	ctx context.Context

	created       metric.Int64Counter
	disposed      metric.Int64Counter
	live          metric.Int64UpDownCounter
	splices       metric.Int64Counter
	spliceMembers metric.Float64Histogram
	violations    metric.Int64Counter
}

var _ tree.Observer = (*TreeMetrics)(nil)

// NewTreeMetrics creates the tree instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	builder := newMetricBuilder(mt)

	tm := &TreeMetrics{
		ctx:      context.Background(),
		created:  builder.counter(metricNodesCreated, "Nodes created", "{node}"),
		disposed: builder.counter(metricNodesDisposed, "Nodes disposed", "{node}"),
		live:     builder.upDownCounter(metricLiveNodes, "Nodes currently registered", "{node}"),
		splices:  builder.counter(metricSplices, "Completed adopt and disown splices", "{splice}"),
		spliceMembers: builder.histogram(metricSpliceMembers, "Fragment members moved per splice", "{node}",
			spliceMemberBuckets...),
		violations: builder.counter(metricViolations, "Rejected operations by failure class", "{violation}"),
	}

	if builder.err != nil {
		return nil, builder.err
	}

	return tm, nil
}

// WithContext returns a copy that records against ctx, so exemplars and
// baggage of the request are attached.
func (tm *TreeMetrics) WithContext(ctx context.Context) *TreeMetrics {
	clone := *tm
	clone.ctx = ctx

	return &clone
}

// NodeCreated counts a created node by kind.
func (tm *TreeMetrics) NodeCreated(_ tree.NodeID, kind tree.Kind) {
	tm.created.Add(tm.ctx, 1, metric.WithAttributes(attribute.String(attrKind, string(kind))))
	tm.live.Add(tm.ctx, 1)
}

// NodeDisposed counts a disposed node.
func (tm *TreeMetrics) NodeDisposed(tree.NodeID) {
	tm.disposed.Add(tm.ctx, 1)
	tm.live.Add(tm.ctx, -1)
}

// Spliced counts a completed splice and the size of its fragment.
func (tm *TreeMetrics) Spliced(op tree.Op, members int) {
	attrs := metric.WithAttributes(attribute.String(attrOp, string(op)))

	tm.splices.Add(tm.ctx, 1, attrs)
	tm.spliceMembers.Record(tm.ctx, float64(members), attrs)
}

// Violation counts a rejected operation by its error class.
func (tm *TreeMetrics) Violation(op tree.Op, err error) {
	class := tree.Class(err)
	if class == "" {
		class = violationClassOther
	}

	tm.violations.Add(tm.ctx, 1, metric.WithAttributes(
		attribute.String(attrOp, string(op)),
		attribute.String(attrViolationClass, class),
	))
}
