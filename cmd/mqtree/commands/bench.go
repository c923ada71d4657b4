package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bpowers/mathquill/internal/bench"
	"github.com/bpowers/mathquill/internal/observability"
)

// NewBenchCommand creates the randomized splice stress command.
func NewBenchCommand(global *GlobalOptions) *cobra.Command {
	cfg := bench.DefaultConfig()

	var assertions bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Randomized splice stress test",
		Long: `Build a random tree, then run rounds of random disown/adopt splices,
subtree removals and insertions. The whole tree is verified after every
round. Arenas at or above the hibernation threshold are hibernated and
booted again between rounds.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup(cmd.Context(), global, observability.ModeCLI, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			cfg.Assertions = env.cfg.Tree.Assertions || assertions
			if !cmd.Flags().Changed("hibernation-threshold") {
				cfg.HibernationThreshold = env.cfg.Tree.HibernationThreshold
			}

			cfg.Logger = env.providers.Logger
			cfg.Observer = env.treeMetrics.WithContext(cmd.Context())

			report, err := bench.Run(cmd.Context(), cfg)
			if !global.Quiet {
				writeReport(cmd.OutOrStdout(), cfg, report)
			}

			return err
		},
	}

	cmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	cmd.Flags().IntVar(&cfg.Rounds, "rounds", cfg.Rounds, "number of verified rounds")
	cmd.Flags().IntVar(&cfg.Nodes, "nodes", cfg.Nodes, "nodes in the initial tree")
	cmd.Flags().IntVar(&cfg.Splices, "splices", cfg.Splices, "operations per round")
	cmd.Flags().IntVar(&cfg.MaxSpan, "max-span", cfg.MaxSpan, "maximum fragment length")
	cmd.Flags().IntVar(&cfg.HibernationThreshold, "hibernation-threshold", 0,
		"live nodes needed to hibernate between rounds, 0 disables (default from config)")
	cmd.Flags().BoolVar(&assertions, "assertions", false, "enable reachability and cycle checks")

	return cmd
}

func writeReport(out io.Writer, cfg bench.Config, report bench.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(fmt.Sprintf("mqtree bench (seed %d)", cfg.Seed))
	tw.AppendHeader(table.Row{"Metric", "Value"})

	tw.AppendRows([]table.Row{
		{"Rounds", humanize.Comma(int64(report.Rounds))},
		{"Splices", humanize.Comma(int64(report.Splices))},
		{"Nodes moved", humanize.Comma(int64(report.Moved))},
		{"Nodes created", humanize.Comma(int64(report.Creates))},
		{"Subtrees removed", humanize.Comma(int64(report.Removes))},
		{"Verifications", humanize.Comma(int64(report.Verifies))},
		{"Live nodes", humanize.Comma(int64(report.LiveNodes))},
		{"Elapsed", report.Elapsed.String()},
		{"Splices/s", humanize.CommafWithDigits(report.SplicesPerSecond(), 0)},
		{"Heap in use", humanize.IBytes(report.HeapAlloc)},
	})

	if report.Hibernated > 0 {
		tw.AppendSeparator()
		tw.AppendRows([]table.Row{
			{"Hibernations", humanize.Comma(int64(report.Hibernated))},
			{"Hibernated size", humanize.IBytes(uint64(report.HibernatedBytes))}, //nolint:gosec // size is never negative
			{"Hibernate+boot", report.HibernateTime.String()},
		})
	}

	tw.Render()
}
