// Package commands implements CLI command handlers for mqtree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bpowers/mathquill/internal/config"
	"github.com/bpowers/mathquill/internal/observability"
	"github.com/bpowers/mathquill/pkg/version"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
}

// NewRootCommand builds the mqtree command tree.
func NewRootCommand() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "mqtree",
		Short: "mqtree - math editor tree core",
		Long: `mqtree drives the sibling-list tree core of a math editor.

Commands:
  run       Run an edit script and print the resulting tree
  validate  Check an edit script against the script schema
  serve     Serve the script runner over HTTP
  mcp       Serve the script runner over MCP stdio
  bench     Randomized splice stress test`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default is ./.mqtree.yaml or $HOME/.mqtree.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(NewRunCommand(opts))
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewMCPCommand(opts))
	rootCmd.AddCommand(NewBenchCommand(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mqtree %s\n", version.String())
		},
	}
}

// environment bundles the loaded configuration with the observability
// providers built from it.
type environment struct {
	cfg         *config.Config
	providers   observability.Providers
	treeMetrics *observability.TreeMetrics
	red         *observability.REDMetrics
}

func setup(ctx context.Context, opts *GlobalOptions, mode observability.AppMode, logOut io.Writer) (*environment, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.FromAppConfig(cfg, mode, version.Version)

	switch {
	case opts.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case opts.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.InitWithWriter(ctx, obsCfg, logOut)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	env := &environment{cfg: cfg, providers: providers}

	env.red, err = observability.NewREDMetrics(providers.Meter)
	if err != nil {
		env.close()

		return nil, err
	}

	env.treeMetrics, err = observability.NewTreeMetrics(providers.Meter)
	if err != nil {
		env.close()

		return nil, err
	}

	return env, nil
}

func (env *environment) close() {
	err := env.providers.Shutdown(context.Background())
	if err != nil {
		env.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}
