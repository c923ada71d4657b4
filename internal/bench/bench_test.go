package bench_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/mathquill/internal/bench"
)

func smallConfig() bench.Config {
	cfg := bench.DefaultConfig()
	cfg.Rounds = 5
	cfg.Nodes = 60
	cfg.Splices = 50

	return cfg
}

func TestRunKeepsTreeWellFormed(t *testing.T) {
	t.Parallel()

	for _, assertions := range []bool{false, true} {
		cfg := smallConfig()
		cfg.Assertions = assertions

		report, err := bench.Run(context.Background(), cfg)
		require.NoError(t, err)

		assert.Equal(t, cfg.Rounds, report.Rounds)
		assert.Equal(t, cfg.Rounds, report.Verifies)
		assert.Positive(t, report.Splices)
		assert.GreaterOrEqual(t, report.Moved, report.Splices)
		assert.Positive(t, report.Removes)
		assert.Positive(t, report.LiveNodes)
		assert.Zero(t, report.Hibernated)
	}
}

func TestRunIsReproducible(t *testing.T) {
	t.Parallel()

	first, err := bench.Run(context.Background(), smallConfig())
	require.NoError(t, err)

	second, err := bench.Run(context.Background(), smallConfig())
	require.NoError(t, err)

	assert.Equal(t, first.Splices, second.Splices)
	assert.Equal(t, first.Moved, second.Moved)
	assert.Equal(t, first.LiveNodes, second.LiveNodes)
}

func TestRunHibernatesAboveThreshold(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	cfg.HibernationThreshold = 1

	report, err := bench.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Rounds, report.Hibernated)
	assert.Positive(t, report.HibernatedBytes)
	assert.Equal(t, 2*cfg.Rounds, report.Verifies)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := bench.Run(ctx, smallConfig())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Rounds)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*bench.Config)
	}{
		{name: "rounds", mutate: func(c *bench.Config) { c.Rounds = 0 }},
		{name: "nodes", mutate: func(c *bench.Config) { c.Nodes = -1 }},
		{name: "splices", mutate: func(c *bench.Config) { c.Splices = -1 }},
		{name: "span", mutate: func(c *bench.Config) { c.MaxSpan = 0 }},
		{name: "threshold", mutate: func(c *bench.Config) { c.HibernationThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := smallConfig()
			tt.mutate(&cfg)

			_, err := bench.Run(context.Background(), cfg)
			require.ErrorIs(t, err, bench.ErrInvalidConfig)
		})
	}
}

func TestSplicesPerSecond(t *testing.T) {
	t.Parallel()

	assert.Zero(t, bench.Report{Splices: 10}.SplicesPerSecond())
	assert.InDelta(t, 5.0, bench.Report{Splices: 10, Elapsed: 2e9}.SplicesPerSecond(), 1e-9)
}
