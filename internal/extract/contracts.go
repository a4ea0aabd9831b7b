package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: document -> text. OCR engines plug in here; the
// extraction core only ever sees the resulting text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "plain-text"
	Duration time.Duration
	Warnings []string
}
