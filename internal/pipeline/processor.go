// Package pipeline runs one document end to end: text in, validated
// prescription record out, with every run recorded as an extract job.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/catalog"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/core"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
	"github.com/joseph-ayodele/rx-extractor/internal/extract"
	"github.com/joseph-ayodele/rx-extractor/internal/repository"
	"github.com/joseph-ayodele/rx-extractor/internal/schema"
)

// Processor coordinates text extraction, field extraction, catalog
// validation and job bookkeeping.
type Processor struct {
	logger  *slog.Logger
	text    extract.TextExtractor
	core    *core.Processor
	catalog catalog.Lookup
	jobs    repository.ExtractJobRepository
}

// NewProcessor wires the stages. jobs may be nil, in which case nothing is
// persisted and returned job IDs are uuid.Nil.
func NewProcessor(
	logger *slog.Logger,
	text extract.TextExtractor,
	coreProc *core.Processor,
	lookup catalog.Lookup,
	jobs repository.ExtractJobRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, text: text, core: coreProc, catalog: lookup, jobs: jobs}
}

// Outcome is the result of processing one file.
type Outcome struct {
	JobID       uuid.UUID
	Result      entity.ValidatedResult
	JSON        []byte
	NeedsReview bool
	Warnings    []string
}

// ProcessFile runs the pipeline for the text file at path.
func (p *Processor) ProcessFile(ctx context.Context, path, format string) (Outcome, error) {
	start := time.Now()
	var out Outcome

	if f, ok := constants.CanonicalizeFormat(format); !ok || f != constants.Prescription {
		return out, common.NewAppError(common.CodeUnsupportedFormat,
			fmt.Sprintf("format %q", format), common.ErrUnsupportedFormat)
	}

	if p.jobs != nil {
		job, err := p.jobs.Start(ctx, path, format)
		if err != nil {
			p.logger.Error("failed to start job", "path", path, "error", err)
			return out, common.WrapError(err, "start job")
		}
		out.JobID = job.ID
		ctx = common.WithJobID(ctx, job.ID.String())
	}
	log := common.LoggerFrom(ctx, p.logger)

	txt, err := p.text.Extract(ctx, path)
	if err != nil {
		p.fail(ctx, log, out.JobID, err)
		return out, fmt.Errorf("extract text: %w", err)
	}
	out.Warnings = txt.Warnings
	log.Debug("processor text stage success", "path", path, "pages", txt.Pages, "bytes", len(txt.Text))

	res, err := p.core.Extract(format, txt.Text)
	if err != nil {
		p.fail(ctx, log, out.JobID, err)
		return out, err
	}

	out.Result = core.Validate(res, p.catalog)
	out.NeedsReview = NeedsReview(out.Result)
	out.JSON, err = schema.MarshalResult(out.Result)
	if err != nil {
		err = common.NewAppError(common.CodeSchema, "extraction result failed schema validation", err)
		p.fail(ctx, log, out.JobID, err)
		return out, err
	}

	if p.jobs != nil {
		err := p.jobs.FinishSuccess(ctx, out.JobID, repository.SuccessOutcome{
			OCRText:       txt.Text,
			ExtractedJSON: out.JSON,
			InvalidMeds:   out.Result.InvalidMeds,
			NeedsReview:   out.NeedsReview,
		})
		if err != nil {
			err = common.WrapError(err, "finish job")
			p.fail(ctx, log, out.JobID, err)
			return out, err
		}
	}

	log.Info("prescription extracted",
		"path", path,
		"medicines", len(out.Result.Medicines),
		"invalid_meds", len(out.Result.InvalidMeds),
		"needs_review", out.NeedsReview,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, jobID uuid.UUID, cause error) {
	log.Error("processor failed", "error", cause)
	if p.jobs == nil || jobID == uuid.Nil {
		return
	}
	// the caller's context may already be done; record the failure anyway
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.jobs.FinishFailure(fctx, jobID, cause.Error()); err != nil {
		log.Error("failed to record job failure", "error", err)
	}
}

// NeedsReview flags results a pharmacist should look at: unrecognized
// medicines, no medicines at all, or missing header fields.
func NeedsReview(r entity.ValidatedResult) bool {
	if len(r.InvalidMeds) > 0 || len(r.Medicines) == 0 {
		return true
	}
	return r.PatientName == nil || r.DoctorName == nil || r.Date == nil
}
