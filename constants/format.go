package constants

import (
	"strings"
)

// DocFormat is the document category a caller asks the extractor to handle.
type DocFormat string

const (
	Prescription DocFormat = "prescription"
)

// NotAvailable marks metadata the extractor could not determine.
const NotAvailable = "N/A"

var allFormats = []DocFormat{
	Prescription,
}

// FormatsAsStringSlice lists the canonical format names.
func FormatsAsStringSlice() []string {
	result := make([]string, len(allFormats))
	for i, f := range allFormats {
		result[i] = string(f)
	}
	return result
}

// CanonicalizeFormat maps user input (and a few synonyms) to a supported
// format. The input is returned unchanged with false when unsupported.
func CanonicalizeFormat(input string) (DocFormat, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DocFormat(input), false
	}

	synonyms := map[string]DocFormat{
		"rx":            Prescription,
		"prescriptions": Prescription,
	}
	if f, ok := synonyms[normalized]; ok {
		return f, true
	}

	for _, f := range allFormats {
		if normalized == string(f) {
			return f, true
		}
	}
	return DocFormat(input), false
}
