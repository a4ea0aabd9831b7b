package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/catalog"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/core"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
	"github.com/joseph-ayodele/rx-extractor/internal/extract"
	"github.com/joseph-ayodele/rx-extractor/internal/repository"
)

const rxText = `Dr Maria Lopez, MBBS
Name: Alice Doe Date: 2024-01-01
Address: 12 Baker Street
amoxicillin 500mg twice daily
xyzdrug 10mg
`

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.ReferenceRecord{
		{Name: "Amoxicillin", Composition: "Amoxicillin (500mg)", Manufacturer: "Cipla Ltd", SideEffects: "Nausea"},
	})
}

func writeText(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func newProcessor(t *testing.T) (*Processor, repository.ExtractJobRepository) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{Path: filepath.Join(t.TempDir(), "extract.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })

	jobs := repository.NewExtractJobRepository(db, nil)
	cat := testCatalog()
	p := NewProcessor(nil, extract.NewPlainTextExtractor(0, nil), core.NewProcessor(cat, nil), cat, jobs)
	return p, jobs
}

func TestProcessFile_Success(t *testing.T) {
	ctx := context.Background()
	p, jobs := newProcessor(t)
	path := writeText(t, t.TempDir(), "rx.txt", rxText)

	out, err := p.ProcessFile(ctx, path, "prescription")
	require.NoError(t, err)

	require.Len(t, out.Result.Medicines, 2)
	assert.Equal(t, "Amoxicillin", out.Result.Medicines[0].Name)
	assert.Equal(t, "Cipla Ltd", out.Result.Medicines[0].Manufacturer)
	assert.Equal(t, []string{"Xyzdrug"}, out.Result.InvalidMeds)
	assert.True(t, out.NeedsReview)

	job, err := jobs.GetByID(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusExtracted), job.Status)
	assert.Equal(t, path, job.SourcePath)
	assert.Equal(t, []string{"Xyzdrug"}, job.InvalidMeds)
	assert.JSONEq(t, string(out.JSON), string(job.ExtractedJSON))
	require.NotNil(t, job.OCRText)
	assert.Equal(t, rxText, *job.OCRText)
}

func TestProcessFile_UnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	p, jobs := newProcessor(t)
	path := writeText(t, t.TempDir(), "bill.txt", rxText)

	out, err := p.ProcessFile(ctx, path, "invoice")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.Equal(t, uuid.Nil, out.JobID)

	// rejected before any job row is written
	all, err := jobs.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestProcessFile_MissingFileRecordsFailure(t *testing.T) {
	ctx := context.Background()
	p, jobs := newProcessor(t)

	out, err := p.ProcessFile(ctx, filepath.Join(t.TempDir(), "gone.txt"), "prescription")
	require.Error(t, err)

	job, err := jobs.GetByID(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), job.Status)
}

func TestProcessFile_EmptyTextIsNotAnError(t *testing.T) {
	p, _ := newProcessor(t)
	path := writeText(t, t.TempDir(), "blank.txt", "")

	out, err := p.ProcessFile(context.Background(), path, "prescription")
	require.NoError(t, err)
	assert.Empty(t, out.Result.Medicines)
	assert.Nil(t, out.Result.PatientName)
	assert.True(t, out.NeedsReview)
	assert.Contains(t, out.Warnings, "empty text")
}

func TestProcessFile_WithoutStore(t *testing.T) {
	cat := testCatalog()
	p := NewProcessor(nil, extract.NewPlainTextExtractor(0, nil), core.NewProcessor(cat, nil), cat, nil)
	path := writeText(t, t.TempDir(), "rx.txt", "amoxicillin 500mg")

	out, err := p.ProcessFile(context.Background(), path, "rx")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, out.JobID)
	assert.Empty(t, out.Result.InvalidMeds)
}

type failingStart struct {
	repository.ExtractJobRepository
}

func (failingStart) Start(context.Context, string, string) (*entity.ExtractJob, error) {
	return nil, common.ErrDatabase
}

func TestProcessFile_StartFailure(t *testing.T) {
	cat := testCatalog()
	p := NewProcessor(nil, extract.NewPlainTextExtractor(0, nil), core.NewProcessor(cat, nil), cat, failingStart{})
	_, err := p.ProcessFile(context.Background(), "x.txt", "prescription")
	assert.True(t, errors.Is(err, common.ErrDatabase))
}

type failingFinish struct {
	repository.ExtractJobRepository
}

func (failingFinish) FinishSuccess(context.Context, uuid.UUID, repository.SuccessOutcome) error {
	return common.ErrDatabase
}

func TestProcessFile_FinishFailureMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	_, jobs := newProcessor(t)
	cat := testCatalog()
	p := NewProcessor(nil, extract.NewPlainTextExtractor(0, nil), core.NewProcessor(cat, nil), cat, failingFinish{jobs})
	path := writeText(t, t.TempDir(), "rx.txt", rxText)

	out, err := p.ProcessFile(ctx, path, "prescription")
	require.ErrorIs(t, err, common.ErrDatabase)
	require.NotEqual(t, uuid.Nil, out.JobID)

	job, err := jobs.GetByID(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(constants.JobStatusFailed), job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "finish job")
}

func TestNeedsReview(t *testing.T) {
	s := "x"
	complete := entity.ValidatedResult{ExtractionResult: entity.ExtractionResult{
		PatientName: &s, DoctorName: &s, Date: &s,
		Medicines: []entity.ResolvedMedicine{{Name: "Amoxicillin"}},
	}}
	assert.False(t, NeedsReview(complete))

	flagged := complete
	flagged.InvalidMeds = []string{"Foo"}
	assert.True(t, NeedsReview(flagged))

	noDoctor := complete
	noDoctor.DoctorName = nil
	assert.True(t, NeedsReview(noDoctor))
}
