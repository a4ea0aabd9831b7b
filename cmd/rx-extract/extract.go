package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/ingest"
)

// extractOutput is printed once per input file.
type extractOutput struct {
	Source      string          `json:"source"`
	JobID       *uuid.UUID      `json:"job_id,omitempty"`
	NeedsReview bool            `json:"needs_review"`
	Warnings    []string        `json:"warnings,omitempty"`
	Result      json.RawMessage `json:"result"`
}

func newExtractCmd(a *app) *cobra.Command {
	var (
		format string
		dir    string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "extract [file.txt ...]",
		Short: "Extract prescriptions from OCR text files and print JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			ctx := cmd.Context()

			paths := append([]string(nil), args...)
			if dir != "" {
				files, stats, err := ingest.ListTextFiles(dir, true)
				if err != nil {
					return err
				}
				a.logger.Debug("directory scanned", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched)
				paths = append(paths, files...)
			}
			if len(paths) == 0 {
				return fmt.Errorf("%w: no input files", common.ErrInvalidInput)
			}

			proc, err := a.processor(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty {
				enc.SetIndent("", "  ")
			}
			failed := 0
			for _, p := range paths {
				out, err := proc.ProcessFile(ctx, p, format)
				if err != nil {
					if errors.Is(err, common.ErrUnsupportedFormat) {
						return err
					}
					a.logger.Error("extract failed", "path", p, "error", err)
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", p, err)
					failed++
					continue
				}
				rec := extractOutput{
					Source:      p,
					NeedsReview: out.NeedsReview,
					Warnings:    out.Warnings,
					Result:      out.JSON,
				}
				if out.JobID != uuid.Nil {
					id := out.JobID
					rec.JobID = &id
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(constants.Prescription), "document format")
	cmd.Flags().StringVar(&dir, "dir", "", "also process every .txt file under this directory")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")
	return cmd
}
