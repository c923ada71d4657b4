package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bpowers/mathquill/internal/observability"
	"github.com/bpowers/mathquill/pkg/script"
)

// Output formats.
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// stdinArg selects standard input instead of a file.
const stdinArg = "-"

// ErrUnsupportedFormat indicates an unknown --format value.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// RunCommand holds the flags of the run command.
type RunCommand struct {
	global     *GlobalOptions
	format     string
	assertions bool
	noColor    bool
}

// NewRunCommand creates the run command.
func NewRunCommand(global *GlobalOptions) *cobra.Command {
	rc := &RunCommand{global: global}

	cmd := &cobra.Command{
		Use:   "run <script|->",
		Short: "Run an edit script and print the resulting tree",
		Long: `Run an edit script (YAML or JSON) against a fresh arena.

The script is validated against the script schema first. The command fails
when a step fails unexpectedly or when the final tree differs from the
script's expect block; the difference is printed as a line diff.

Examples:
  mqtree run testdata/middle_insert.yaml
  mqtree run --format table --assertions script.yaml
  mqtree run - < script.json`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.format, "format", "f", FormatText, "output format: text, table or json")
	cmd.Flags().BoolVar(&rc.assertions, "assertions", false, "enable reachability and cycle checks")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "disable colored output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	if rc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	switch rc.format {
	case FormatText, FormatTable, FormatJSON:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, rc.format)
	}

	data, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	env, err := setup(cmd.Context(), rc.global, observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer env.close()

	parsed, err := script.Load(data)
	if err != nil {
		return err
	}

	result, runErr := script.Run(cmd.Context(), parsed, script.Options{
		Assertions: env.cfg.Tree.Assertions || rc.assertions,
		Logger:     env.providers.Logger,
		Observer:   env.treeMetrics.WithContext(cmd.Context()),
	})

	err = writeResult(cmd.OutOrStdout(), rc.format, result)
	if err != nil {
		return errors.Join(runErr, err)
	}

	if result != nil && result.Diff != "" {
		writeDiff(cmd.ErrOrStderr(), result.Diff)
	}

	return runErr
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == stdinArg {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return data, nil
}

func writeResult(out io.Writer, format string, result *script.Result) error {
	if result == nil {
		return nil
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		err := enc.Encode(result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}

		return nil
	case FormatTable:
		fmt.Fprintln(out, script.RenderTable(result.Nodes))
	default:
		fmt.Fprintln(out, result.Rendering)
	}

	for _, step := range result.Steps {
		if step.Error == "" {
			continue
		}

		fmt.Fprintf(out, "step %d (%s): %s [%s]\n", step.Index, step.Op, step.Error, step.Class)
	}

	return nil
}

func writeDiff(out io.Writer, diff string) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)

	fmt.Fprintln(out, "rendering differs (-want +got):")

	for line := range strings.SplitSeq(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "-"):
			red.Fprintln(out, line)
		case strings.HasPrefix(line, "+"):
			green.Fprintln(out, line)
		default:
			fmt.Fprintln(out, line)
		}
	}
}
