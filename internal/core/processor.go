// Package core turns OCR text into a structured prescription record.
package core

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/catalog"
	"github.com/joseph-ayodele/rx-extractor/internal/common"
	"github.com/joseph-ayodele/rx-extractor/internal/core/fields"
	"github.com/joseph-ayodele/rx-extractor/internal/core/medicines"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
)

// Processor coordinates field extraction, medicine scanning and catalog
// resolution. It is stateless and safe for concurrent use as long as its
// catalog is not mutated.
type Processor struct {
	logger   *slog.Logger
	fields   *fields.Extractor
	scanner  *medicines.Scanner
	resolver *medicines.Resolver
}

type Option func(*Processor)

// WithFieldExtractor replaces the default prescription field rules.
func WithFieldExtractor(e *fields.Extractor) Option {
	return func(p *Processor) {
		if e != nil {
			p.fields = e
		}
	}
}

func NewProcessor(lookup catalog.Lookup, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		logger:   logger,
		fields:   fields.Default(),
		scanner:  medicines.MustNewScanner(medicines.DefaultTokenPattern),
		resolver: medicines.NewResolver(lookup),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Extract parses text as the given document format. Only prescriptions are
// supported; other formats fail with common.ErrUnsupportedFormat.
func (p *Processor) Extract(format string, text string) (entity.ExtractionResult, error) {
	f, ok := constants.CanonicalizeFormat(format)
	if !ok || f != constants.Prescription {
		return entity.ExtractionResult{}, common.NewAppError(common.CodeUnsupportedFormat,
			fmt.Sprintf("format %q (supported: %s)", format, strings.Join(constants.FormatsAsStringSlice(), ", ")),
			common.ErrUnsupportedFormat)
	}
	return p.Parse(text), nil
}

// Parse extracts a prescription record. Empty or non-UTF-8 text yields a
// result with every field absent and no medicines.
func (p *Processor) Parse(text string) entity.ExtractionResult {
	res := entity.ExtractionResult{Medicines: []entity.ResolvedMedicine{}}
	if text == "" || !utf8.ValidString(text) {
		p.logger.Debug("extract skipped: empty or undecodable text", "bytes", len(text))
		return res
	}

	res.PatientName = p.fields.Field(text, fields.PatientName)
	res.DoctorName = p.fields.Field(text, fields.DoctorName)
	res.Date = p.fields.Field(text, fields.Date)
	res.PatientAddress = p.fields.Field(text, fields.PatientAddress)

	tokens := p.scanner.Scan(text)
	res.Medicines = p.resolver.Resolve(tokens)

	p.logger.Debug("extract done",
		"bytes", len(text),
		"tokens", len(tokens),
		"has_patient", res.PatientName != nil,
		"has_doctor", res.DoctorName != nil,
	)
	return res
}

// UnmatchedNames re-checks each medicine name against lookup and returns, in
// order, those with no catalog match. It does not modify result.
func UnmatchedNames(result entity.ExtractionResult, lookup catalog.Lookup) []string {
	if lookup == nil {
		lookup = catalog.Empty()
	}
	out := make([]string, 0)
	for _, m := range result.Medicines {
		if _, ok := lookup.Lookup(m.Name); !ok {
			out = append(out, m.Name)
		}
	}
	return out
}

// Validate runs UnmatchedNames and bundles the result for callers.
func Validate(result entity.ExtractionResult, lookup catalog.Lookup) entity.ValidatedResult {
	return entity.ValidatedResult{
		ExtractionResult: result,
		InvalidMeds:      UnmatchedNames(result, lookup),
	}
}
