package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/mathquill/pkg/script"
)

func TestRenderNested(t *testing.T) {
	t.Parallel()

	parsed := &script.Script{
		Name: "nested",
		Steps: []script.Step{
			{Op: script.OpCreate, Nodes: []string{"P", "A", "D", "E", "B"}},
			{Op: script.OpChain, Nodes: []string{"A", "D", "B"}},
			{Op: script.OpAdopt, First: "A", Last: "B", Parent: "P"},
			{Op: script.OpAdopt, First: "E", Last: "E", Parent: "D"},
		},
		Expect: "  P(A  D(E) B)  \n",
	}

	result, err := script.Run(context.Background(), parsed, script.Options{})
	require.NoError(t, err)
	assert.Equal(t, "P(A D(E) B)", result.Rendering)
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := script.RenderTable([]script.NodeRecord{
		{Name: "P", ID: 1, Kind: "block", First: "A", Last: "A"},
		{Name: "A", ID: 2, Kind: "symbol", Parent: "P"},
	})

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "block")
	assert.Contains(t, out, "TOTAL")
}

func TestDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, script.Diff("P(A)", "P(A)"))

	diff := script.Diff("P(A)\nQ", "P(A)\nR")
	assert.Equal(t, " P(A)\n-Q\n+R\n", diff)
}
