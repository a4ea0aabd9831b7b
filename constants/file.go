package constants

import "strings"

// TextExts holds the extensions accepted as OCR text input.
var TextExts = map[string]struct{}{
	"txt": {},
}

// CatalogExts holds the reference catalog formats the loader understands.
var CatalogExts = map[string]struct{}{
	"csv":  {},
	"xlsx": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsCatalogExt reports whether ext (with or without dot) is a catalog format.
func IsCatalogExt(ext string) bool {
	_, ok := CatalogExts[NormalizeExt(ext)]
	return ok
}

// IsTextExt reports whether ext (with or without dot) is OCR text input.
func IsTextExt(ext string) bool {
	_, ok := TextExts[NormalizeExt(ext)]
	return ok
}
