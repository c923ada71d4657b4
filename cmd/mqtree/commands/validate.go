package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bpowers/mathquill/pkg/script"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var colorize, nocolor bool

	cmd := &cobra.Command{
		Use:   "validate <script|->",
		Short: "Validate an edit script against the script schema",
		Long: `Validate an edit script (YAML or JSON) against the embedded script schema.

Examples:
  mqtree validate script.yaml
  mqtree validate - < script.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if nocolor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			} else if colorize {
				color.NoColor = false //nolint:reassign // intentional override of library global
			}

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			label := args[0]
			if label == stdinArg {
				label = "stdin"
			}

			return reportValidation(cmd.OutOrStdout(), label, script.Validate(data))
		},
	}

	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func reportValidation(out io.Writer, label string, err error) error {
	if err == nil {
		color.New(color.FgGreen).Fprintf(out, "script is valid (%s)\n", label)

		return nil
	}

	var verr *script.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	color.New(color.FgRed).Fprintf(out, "script validation failed (%s)\n", label)
	fmt.Fprintf(out, "\nErrors:\n")

	for _, issue := range verr.Issues {
		color.New(color.FgRed).Fprintf(out, "  - %s: %s\n", issue.Field, issue.Description)
	}

	return fmt.Errorf("%w: %d issue(s) in %s", script.ErrInvalidScript, len(verr.Issues), label)
}
