package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/esg-laia-import/internal/domain/import/service"
	"github.com/FACorreiaa/esg-laia-import/pkg/config"
)

type analysisOutput struct {
	Format      string `json:"format"`
	Delimiter   string `json:"delimiter,omitempty"`
	HeaderLine  int    `json:"header_line,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

type validateOutput struct {
	Command  string                   `json:"command"`
	Analysis analysisOutput           `json:"analysis"`
	Report   *importservice.RunReport `json:"report"`
}

func newValidateCmd() *cobra.Command {
	var (
		tenant  string
		sectors []string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a LAIA spreadsheet without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant == "" {
				tenant = uuid.NewString()
			}
			tenantID, err := parseTenant(tenant)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			fileName := filepath.Base(args[0])

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Observability.LogLevel)

			deps, err := InitDependencies(cmd.Context(), cfg, logger, depsOptions{
				offline: offline,
				sectors: sectors,
				tenant:  tenant,
			})
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			out := validateOutput{Command: "validate"}
			analysis, err := deps.ImportService.Analyze(fileName, data)
			if err != nil {
				return err
			}
			out.Analysis = analysisOutput{
				Format:      analysis.Format.String(),
				HeaderLine:  analysis.HeaderLine,
				Fingerprint: analysis.Fingerprint,
			}
			if analysis.Delimiter != 0 {
				out.Analysis.Delimiter = string(analysis.Delimiter)
			}

			out.Report, err = deps.ImportService.Run(cmd.Context(), importservice.RunInput{
				Target:   repository.Target{TenantID: tenantID},
				FileName: fileName,
				Data:     data,
				DryRun:   true,
			})
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
			if err != nil {
				return err
			}
			if n := out.Report.Validation.Stats.Invalid; n > 0 {
				return fmt.Errorf("%d invalid rows", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant UUID whose sectors are checked (default random)")
	cmd.Flags().StringSliceVar(&sectors, "sectors", nil, "Existing sector codes when running --offline")
	cmd.Flags().BoolVar(&offline, "offline", false, "Validate against --sectors instead of the database")
	return cmd
}
