package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/buildcheck/internal/engine"
	"github.com/roach88/buildcheck/internal/ir"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	User    string
	Key     string
	Preview bool
}

// SnapshotOutput is the JSON payload of a purchased report.
type SnapshotOutput struct {
	Snapshot       ir.SnapshotResult `json:"snapshot"`
	IdempotencyKey string            `json:"idempotencyKey"`
	Replayed       bool              `json:"replayed"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot <address>",
		Short: "Generate the feasibility report for an address",
		Long: `Generate the feasibility report for an address.

A full report is recorded against --user under an idempotency key. Reusing
a key replays the stored report. --preview prints category statuses only
and records nothing.

Examples:
  buildcheck snapshot "1234 Main St, Kent WA" --user alice
  buildcheck snapshot "1234 Main St, Kent WA" --user alice --key order-17
  buildcheck snapshot "1234 Main St, Kent WA" --preview --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "user the report is recorded for")
	cmd.Flags().StringVar(&opts.Key, "key", "", "idempotency key (generated when empty)")
	cmd.Flags().BoolVar(&opts.Preview, "preview", false, "print category statuses only")
	addSourceFlags(cmd)

	return cmd
}

func runSnapshot(ctx context.Context, opts *SnapshotOptions, address string, cmd *cobra.Command) (err error) {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "snapshot", cerr)
		}
	}()

	svc, err := a.service(ctx)
	if err != nil {
		return err
	}

	if opts.Preview {
		preview, err := svc.Preview(ctx, address)
		if err != nil {
			return requestFailed(formatter, err)
		}
		if formatter.JSON() {
			return formatter.Success(preview)
		}
		renderPreview(formatter, preview)
		return nil
	}

	resp, err := svc.Purchase(ctx, engine.Request{
		Address:        address,
		UserID:         opts.User,
		IdempotencyKey: opts.Key,
	})
	if err != nil {
		return requestFailed(formatter, err)
	}
	formatter.VerboseLog("snapshot %s (key %s, replayed %t)", resp.Snapshot.ID, resp.IdempotencyKey, resp.Replayed)

	if formatter.JSON() {
		return formatter.Success(SnapshotOutput{
			Snapshot:       resp.Snapshot,
			IdempotencyKey: resp.IdempotencyKey,
			Replayed:       resp.Replayed,
		})
	}
	renderReport(formatter, resp.Snapshot)
	fmt.Fprintf(formatter.Writer, "\nIdempotency key: %s", resp.IdempotencyKey)
	if resp.Replayed {
		fmt.Fprint(formatter.Writer, " (replayed)")
	}
	fmt.Fprintln(formatter.Writer)
	return nil
}

// requestFailed reports a service error. Rejected requests carry their
// code; anything else is reported as E_INTERNAL.
func requestFailed(f *OutputFormatter, err error) error {
	var re *engine.RequestError
	if errors.As(err, &re) {
		_ = f.Error(string(re.Code), re.Message, nil)
		return WrapExitError(ExitCommandError, "request rejected", err)
	}
	_ = f.Error("E_INTERNAL", err.Error(), nil)
	return WrapExitError(ExitCommandError, "request failed", err)
}
