package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/esg-laia-import/internal/domain/import/parser"
)

func newTemplateCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty LAIA workbook with the expected columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" || out == "-" {
				return parser.WriteTemplate(cmd.OutOrStdout())
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := parser.WriteTemplate(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "modelo-laia.xlsx", "Output path, - for stdout")
	return cmd
}
