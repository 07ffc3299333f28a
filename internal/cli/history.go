package cli

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/buildcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	User  string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded reports",
		Long: `List recorded reports, newest first.

With --user, lists that user's requests with their idempotency keys.
Without it, lists every stored report.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.User, "user", "", "list requests made by this user")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum rows")
	addSourceFlags(cmd)

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) (err error) {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Limit <= 0 {
		return outputCommandError(formatter, "E_USAGE", "--limit must be positive")
	}

	a, err := newApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "history", cerr)
		}
	}()

	if opts.User != "" {
		svc, err := a.service(ctx)
		if err != nil {
			return err
		}
		requests, err := svc.History(ctx, opts.User, opts.Limit)
		if err != nil {
			return requestFailed(formatter, err)
		}
		return outputRequests(formatter, requests)
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	summaries, err := st.History(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "reading history", err)
	}
	return outputSummaries(formatter, summaries)
}

func outputRequests(f *OutputFormatter, requests []store.Request) error {
	if requests == nil {
		requests = []store.Request{}
	}
	if f.JSON() {
		return f.Success(requests)
	}
	if len(requests) == 0 {
		fmt.Fprintln(f.Writer, "No requests recorded.")
		return nil
	}
	rows := make([]table.Row, len(requests))
	for i, r := range requests {
		rows[i] = table.Row{r.Seq, r.IdempotencyKey, r.AddressKey, r.SnapshotID}
	}
	f.Table(table.Row{"Seq", "Idempotency Key", "Address", "Snapshot"}, rows)
	return nil
}

func outputSummaries(f *OutputFormatter, summaries []store.Summary) error {
	if summaries == nil {
		summaries = []store.Summary{}
	}
	if f.JSON() {
		return f.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(f.Writer, "No reports stored.")
		return nil
	}
	rows := make([]table.Row, len(summaries))
	for i, s := range summaries {
		rows[i] = table.Row{s.Seq, s.OverallStatus, s.Address, s.CatalogVersion, s.ID}
	}
	f.Table(table.Row{"Seq", "Overall", "Address", "Catalog", "Snapshot"}, rows)
	return nil
}

// outputCommandError prints an error and returns it with exit code 2.
func outputCommandError(f *OutputFormatter, code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
