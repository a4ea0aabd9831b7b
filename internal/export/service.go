package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
	"github.com/joseph-ayodele/rx-extractor/internal/repository"
)

const sheet = "Prescriptions"

var headers = []string{
	"Job ID",
	"Source File",
	"Patient",
	"Doctor",
	"Date",
	"Medicine",
	"Dosage",
	"Composition",
	"Manufacturer",
	"Side Effects",
	"Recognized",
}

// Service produces XLSX bytes from stored extract jobs.
type Service struct {
	jobsRepo repository.ExtractJobRepository
	logger   *slog.Logger
}

func NewService(jobs repository.ExtractJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobsRepo: jobs, logger: logger}
}

// ExportJobsXLSX writes one row per extracted medicine across the latest
// limit jobs (0 = all). Jobs without medicines get a single row with empty
// medicine columns; failed jobs are skipped.
func (s *Service) ExportJobsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobsRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	exported := 0
	for _, job := range jobs {
		if job.Status != string(constants.JobStatusExtracted) || len(job.ExtractedJSON) == 0 {
			continue
		}
		var res entity.ValidatedResult
		if err := json.Unmarshal(job.ExtractedJSON, &res); err != nil {
			s.logger.Warn("skipping job with unreadable result", "job_id", job.ID, "error", err)
			continue
		}
		exported++

		invalid := make(map[string]struct{}, len(res.InvalidMeds))
		for _, n := range res.InvalidMeds {
			invalid[n] = struct{}{}
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		common := func() {
			write(1, job.ID.String())
			write(2, job.SourcePath)
			write(3, deref(res.PatientName))
			write(4, deref(res.DoctorName))
			write(5, deref(res.Date))
		}

		if len(res.Medicines) == 0 {
			common()
			row++
			continue
		}
		for _, m := range res.Medicines {
			common()
			write(6, m.Name)
			write(7, m.Dosage)
			write(8, m.Composition)
			write(9, m.Manufacturer)
			write(10, truncate(m.SideEffects, 140))
			_, bad := invalid[m.Name]
			write(11, yesNo(!bad))
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // job id
	_ = f.SetColWidth(sheet, "B", "B", 40) // path
	_ = f.SetColWidth(sheet, "C", "E", 20) // header fields
	_ = f.SetColWidth(sheet, "F", "G", 16) // medicine, dosage
	_ = f.SetColWidth(sheet, "H", "J", 32) // metadata

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"jobs", exported,
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
