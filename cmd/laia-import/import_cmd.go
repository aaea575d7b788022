package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/committer"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/esg-laia-import/internal/domain/import/service"
	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/session"
	"github.com/FACorreiaa/esg-laia-import/pkg/config"
)

type importOutput struct {
	Command    string                   `json:"command"`
	DurationMS int64                    `json:"duration_ms"`
	Report     *importservice.RunReport `json:"report"`
}

func newImportCmd() *cobra.Command {
	var (
		tenant      string
		scope       string
		scopeName   string
		dryRun      bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse, validate and commit a LAIA spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}
			scopeID := uuid.Nil
			if scope != "" {
				if scopeID, err = uuid.Parse(scope); err != nil {
					return fmt.Errorf("invalid --scope: %w", err)
				}
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Observability.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := InitDependencies(ctx, cfg, logger, depsOptions{})
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			start := time.Now()
			report, runErr := deps.ImportService.Run(ctx, importservice.RunInput{
				Target:   repository.Target{TenantID: tenantID, ScopeID: scopeID, ScopeName: scopeName},
				FileName: filepath.Base(args[0]),
				Data:     data,
				DryRun:   dryRun,
			}, session.WithProgress(progressLogger(logger)))

			if err := deps.WriteMetrics(metricsFile); err != nil {
				logger.Warn("failed to export metrics", slog.Any("error", err))
			}
			if err := writeJSON(cmd.OutOrStdout(), importOutput{
				Command:    "import",
				DurationMS: time.Since(start).Milliseconds(),
				Report:     report,
			}); err != nil {
				return err
			}

			if runErr != nil {
				return runErr
			}
			return reportErr(report)
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID (required)")
	cmd.Flags().StringVar(&scope, "scope", "", "Branch UUID the assessments belong to (default company-wide)")
	cmd.Flags().StringVar(&scopeName, "scope-name", "", "Branch display name")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate only, write nothing")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

// reportErr turns row failures into a non-zero exit status
func reportErr(report *importservice.RunReport) error {
	if report == nil || report.Result == nil {
		return nil
	}
	if report.Result.Cancelled {
		return context.Canceled
	}
	if !report.Result.Success {
		return fmt.Errorf("%d of %d rows failed", report.Result.Failed, report.Result.Imported+report.Result.Failed)
	}
	return nil
}

// progressLogger logs commit progress every 100 rows and on the last one
func progressLogger(logger *slog.Logger) func(committer.Progress) {
	return func(p committer.Progress) {
		if p.Current%100 != 0 && p.Current != p.Total {
			return
		}
		logger.Info(p.Message,
			slog.Int("current", p.Current),
			slog.Int("total", p.Total))
	}
}

func parseTenant(tenant string) (uuid.UUID, error) {
	id, err := uuid.Parse(tenant)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	return id, nil
}
