package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/esg-laia-import/pkg/config"
)

func newSweepCmd() *cobra.Command {
	var daemon bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete archived uploads past UPLOAD_RETENTION_DAYS",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Observability.LogLevel)

			deps, err := InitDependencies(cmd.Context(), cfg, logger, depsOptions{offline: true})
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			if !daemon {
				purged, err := deps.Scheduler.RunNow(cmd.Context())
				logger.Info("upload retention sweep completed", slog.Int("purged", purged))
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := deps.Scheduler.Start(); err != nil {
				return err
			}
			<-ctx.Done()
			<-deps.Scheduler.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&daemon, "daemon", false, "Keep running and sweep on UPLOAD_SWEEP_SCHEDULE")
	return cmd
}
