package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractJob represents an extract job for data transfer between layers.
type ExtractJob struct {
	ID            uuid.UUID       `json:"id"`
	SourcePath    string          `json:"source_path"`
	Format        string          `json:"format"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	NeedsReview   bool            `json:"needs_review"`
	OCRText       *string         `json:"ocr_text,omitempty"`
	ExtractedJSON json.RawMessage `json:"extracted_json,omitempty"`
	InvalidMeds   []string        `json:"invalid_meds,omitempty"`
}
