package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/rx-extractor/constants"
)

// pageSeparator is what tesseract writes between pages.
const pageSeparator = "\f"

var ErrTooLarge = errors.New("text file exceeds size limit")

// PlainTextExtractor reads OCR output that was already written to disk.
type PlainTextExtractor struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewPlainTextExtractor returns an extractor refusing files above maxBytes
// (0 means 4 MiB).
func NewPlainTextExtractor(maxBytes int64, logger *slog.Logger) *PlainTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}
	return &PlainTextExtractor{maxBytes: maxBytes, logger: logger}
}

func (e *PlainTextExtractor) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return TextExtractionResult{}, err
	}
	if !constants.IsTextExt(filepath.Ext(path)) {
		e.logger.Error("unsupported text extension", "path", path)
		return TextExtractionResult{}, fmt.Errorf("unsupported extension: %q", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("open text: %w", err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, e.maxBytes+1))
	if err != nil {
		return TextExtractionResult{}, fmt.Errorf("read text: %w", err)
	}
	if int64(len(b)) > e.maxBytes {
		return TextExtractionResult{}, fmt.Errorf("%w: %s", ErrTooLarge, path)
	}

	res := TextExtractionResult{
		Text:   string(b),
		Pages:  strings.Count(string(b), pageSeparator) + 1,
		Method: "plain-text",
	}
	if len(b) == 0 {
		res.Pages = 0
		res.Warnings = append(res.Warnings, "empty text")
	}
	if !utf8.Valid(b) {
		res.Warnings = append(res.Warnings, "text is not valid UTF-8")
	}
	res.Duration = time.Since(start)
	e.logger.Debug("text extracted", "path", path, "bytes", len(b), "pages", res.Pages, "warnings", len(res.Warnings))
	return res, nil
}
