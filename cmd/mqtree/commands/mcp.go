package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/mathquill/internal/mcp"
	"github.com/bpowers/mathquill/internal/observability"
	"github.com/bpowers/mathquill/pkg/script"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the script runner as tools that AI agents can
discover and invoke:
  - tree_run: run an edit script and return the resulting tree
  - tree_validate: check an edit script against the script schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Stdout carries the protocol; logs go to stderr only.
			env, err := setup(cmd.Context(), global, observability.ModeMCP, os.Stderr)
			if err != nil {
				return err
			}
			defer env.close()

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:      env.providers.Logger,
				Metrics:     env.red,
				TreeMetrics: env.treeMetrics,
				Tracer:      env.providers.Tracer,
				Scripts:     script.NewLoadCache(env.cfg.Server.ScriptCache),
				Assertions:  env.cfg.Tree.Assertions,
			})

			return srv.Run(cmd.Context())
		},
	}
}
