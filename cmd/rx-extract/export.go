package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rx-extractor/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		output string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write extracted prescriptions to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			repo, err := a.jobRepo(cmd.Context())
			if err != nil {
				return err
			}
			b, err := export.NewService(repo, a.logger).ExportJobsXLSX(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "prescriptions.xlsx", "output file")
	cmd.Flags().IntVar(&limit, "limit", 0, "latest N jobs (0 = all)")
	return cmd
}
