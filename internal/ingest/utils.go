package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/rx-extractor/constants"
)

// AllowedExt checks if a file extension is OCR text input.
func AllowedExt(ext string) bool {
	return constants.IsTextExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
