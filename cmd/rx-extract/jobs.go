package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rx-extractor/internal/common"
)

func newJobsCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded extract jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.close()
			repo, err := a.jobRepo(cmd.Context())
			if err != nil {
				return err
			}
			jobs, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(jobs)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Status", "Review", "Invalid", "Started", "Source"})
			table.SetAutoWrapText(false)
			for _, j := range jobs {
				table.Append([]string{
					j.ID.String(),
					j.Status,
					strconv.FormatBool(j.NeedsReview),
					strconv.Itoa(len(j.InvalidMeds)),
					j.StartedAt.Local().Format("2006-01-02 15:04:05"),
					j.SourcePath,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of jobs (0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <job-id>",
		Short: "Print the stored result of one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%w: job id must be a UUID", common.ErrInvalidInput)
			}
			repo, err := a.jobRepo(cmd.Context())
			if err != nil {
				return err
			}
			job, err := repo.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(job)
		},
	})
	return cmd
}
