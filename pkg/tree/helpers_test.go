package tree_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/mathquill/pkg/tree"
)

// appendChildren creates one node per kind and adopts each at the right end
// of parent's child list.
func appendChildren(tb testing.TB, arena *tree.Arena, parent tree.NodeID, kinds ...tree.Kind) []tree.NodeID {
	tb.Helper()

	ids := make([]tree.NodeID, 0, len(kinds))

	for _, kind := range kinds {
		id := arena.Create(kind)

		frag, err := arena.Span(id, id)
		require.NoError(tb, err)
		require.NoError(tb, frag.Adopt(parent, arena.End(parent, tree.Right), tree.None))

		ids = append(ids, id)
	}

	return ids
}

func childrenOf(tb testing.TB, arena *tree.Arena, id tree.NodeID) []tree.NodeID {
	tb.Helper()

	frag, err := arena.Children(id)
	require.NoError(tb, err)

	return slices.Collect(frag.Each())
}

// records captures every node record so tests can compare whole-arena state
// before and after an operation.
func records(tb testing.TB, arena *tree.Arena, ids ...tree.NodeID) []tree.Node {
	tb.Helper()

	out := make([]tree.Node, 0, len(ids))

	for _, id := range ids {
		nd, err := arena.Lookup(id)
		require.NoError(tb, err)

		out = append(out, nd)
	}

	return out
}

type recordingObserver struct {
	created    []tree.NodeID
	disposed   []tree.NodeID
	splices    map[tree.Op]int
	violations []error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{splices: map[tree.Op]int{}}
}

func (o *recordingObserver) NodeCreated(id tree.NodeID, _ tree.Kind) {
	o.created = append(o.created, id)
}

func (o *recordingObserver) NodeDisposed(id tree.NodeID) {
	o.disposed = append(o.disposed, id)
}

func (o *recordingObserver) Spliced(op tree.Op, members int) {
	o.splices[op] += members
}

func (o *recordingObserver) Violation(_ tree.Op, err error) {
	o.violations = append(o.violations, err)
}

type recordingRenderable struct {
	placed  []tree.Point
	removed int
}

func (r *recordingRenderable) Placed(_ tree.NodeID, at tree.Point) {
	r.placed = append(r.placed, at)
}

func (r *recordingRenderable) Removed(tree.NodeID) {
	r.removed++
}
