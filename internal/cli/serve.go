package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/buildcheck/internal/httpapi"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the snapshot HTTP API",
		Long: `Serve the snapshot HTTP API until interrupted.

Routes:
  POST /snapshot          full report (JSON body: address, userId, idempotencyKey)
  GET  /snapshot?address= preview
  GET  /healthz
  GET  /metrics           Prometheus metrics`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = WrapExitError(ExitCommandError, "serve", cerr)
				}
			}()

			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			srv := httpapi.New(svc, a.logger)
			a.logger.Info("catalog ready", "rules", a.catalog.Len(), "version", a.catalog.Version())
			if err := srv.Serve(ctx, a.cfg.Server.Addr, a.cfg.Server.ReadHeaderTimeout); err != nil {
				return WrapExitError(ExitCommandError, "serve", err)
			}
			return nil
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	addSourceFlags(cmd)
	return cmd
}
