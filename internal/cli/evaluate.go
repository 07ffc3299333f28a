package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/buildcheck/internal/harness"
)

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "evaluate <site.yaml>",
		Short: "Evaluate a described site against the catalog",
		Long: `Evaluate a site described in a scenario file: its lot, structures, soil,
sewer service and environmental screens are taken from the file instead of
the configured sources.

The expect block is optional. When present, failed expectations are listed
and the command exits 1.

Examples:
  buildcheck evaluate ./site.yaml
  buildcheck evaluate ./site.yaml --full
  buildcheck evaluate ./site.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			site, err := harness.LoadSite(args[0])
			if err != nil {
				return outputCommandError(formatter, "E_SITE", err.Error())
			}
			a, err := newApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			result, err := harness.Run(cmd.Context(), site, a.catalog)
			if err != nil {
				return outputCommandError(formatter, "E_SITE", err.Error())
			}
			return outputEvaluation(formatter, site.Name, result, full)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "print the full report instead of the digest")
	cmd.Flags().String("catalog", "", "rule catalog directory (default built-in)")
	return cmd
}

func outputEvaluation(f *OutputFormatter, name string, result *harness.Result, full bool) error {
	var failure error
	if !result.Pass {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(result.Errors)))
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_EXPECTATION", Message: failure.Error(), Details: result.Errors}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
		return failure
	}

	if full {
		renderReport(f, result.Snapshot)
	} else {
		_, _ = f.Writer.Write(harness.Digest(name, result))
	}
	if failure != nil {
		fmt.Fprintln(f.Writer)
		fmt.Fprintln(f.Writer, "✗ Expectations failed")
		for _, e := range result.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	}
	return failure
}
