package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
)

// SuccessOutcome is what a finished extraction writes back to its job.
type SuccessOutcome struct {
	OCRText       string
	ExtractedJSON []byte
	InvalidMeds   []string
	NeedsReview   bool
}

type ExtractJobRepository interface {
	Start(ctx context.Context, sourcePath, format string) (*entity.ExtractJob, error)
	FinishSuccess(ctx context.Context, jobID uuid.UUID, out SuccessOutcome) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	List(ctx context.Context, limit int) ([]*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *sql.DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractJobRepository(db *sql.DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (r *extractJobRepo) Start(ctx context.Context, sourcePath, format string) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Format:     format,
		Status:     string(constants.JobStatusRunning),
		StartedAt:  r.now(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extract_jobs (id, source_path, format, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID.String(), job.SourcePath, job.Format, job.Status, formatTime(job.StartedAt))
	if err != nil {
		r.log.Error("extract_job start failed", "source", sourcePath, "err", err)
		return nil, fmt.Errorf("%w: start job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "source", sourcePath, "format", format)
	return job, nil
}

func (r *extractJobRepo) FinishSuccess(ctx context.Context, jobID uuid.UUID, out SuccessOutcome) error {
	invalid, err := json.Marshal(nonNil(out.InvalidMeds))
	if err != nil {
		return fmt.Errorf("marshal invalid_meds: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE extract_jobs
		    SET status = ?, finished_at = ?, ocr_text = ?, extracted_json = ?, invalid_meds = ?, needs_review = ?, error_message = NULL
		  WHERE id = ?`,
		string(constants.JobStatusExtracted), formatTime(r.now()), out.OCRText, string(out.ExtractedJSON),
		string(invalid), boolToInt(out.NeedsReview), jobID.String())
	if err := checkUpdated(res, err, jobID); err != nil {
		r.log.Error("extract_job finish(OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (EXTRACTED)", "job_id", jobID, "needs_review", out.NeedsReview, "invalid_meds", len(out.InvalidMeds))
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE extract_jobs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		string(constants.JobStatusFailed), formatTime(r.now()), message, jobID.String())
	if err := checkUpdated(res, err, jobID); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

const selectJob = `SELECT id, source_path, format, status, started_at, finished_at, error_message,
	needs_review, ocr_text, extracted_json, invalid_meds FROM extract_jobs`

func (r *extractJobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	row := r.db.QueryRowContext(ctx, selectJob+` WHERE id = ?`, jobID.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return job, err
}

// List returns the most recent jobs first; limit <= 0 means no limit.
func (r *extractJobRepo) List(ctx context.Context, limit int) ([]*entity.ExtractJob, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, selectJob+` ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list jobs: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*entity.ExtractJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*entity.ExtractJob, error) {
	var (
		id, startedAt                        string
		finishedAt, errMsg, ocrText, extJSON sql.NullString
		invalid                              sql.NullString
		needsReview                          int
		job                                  entity.ExtractJob
	)
	err := s.Scan(&id, &job.SourcePath, &job.Format, &job.Status, &startedAt, &finishedAt,
		&errMsg, &needsReview, &ocrText, &extJSON, &invalid)
	if err != nil {
		return nil, err
	}
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	if job.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, err
		}
		job.FinishedAt = &t
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if ocrText.Valid {
		job.OCRText = &ocrText.String
	}
	if extJSON.Valid && extJSON.String != "" {
		job.ExtractedJSON = json.RawMessage(extJSON.String)
	}
	if invalid.Valid && invalid.String != "" {
		if err := json.Unmarshal([]byte(invalid.String), &job.InvalidMeds); err != nil {
			return nil, fmt.Errorf("parse invalid_meds: %w", err)
		}
	}
	job.NeedsReview = needsReview != 0
	return &job, nil
}

func checkUpdated(res sql.Result, err error, jobID uuid.UUID) error {
	if err != nil {
		return fmt.Errorf("%w: update job: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update job: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

// fixed width so that lexical order in sqlite is chronological
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
