// Package fields extracts scalar prescription fields from OCR text using a
// declarative table of capture patterns.
package fields

import (
	"fmt"
	"regexp"
	"strings"
)

// Known field names.
const (
	PatientName    = "patient_name"
	DoctorName     = "doctor_name"
	Date           = "date"
	PatientAddress = "patient_address"
)

// Rule maps a field name to a pattern with exactly one capture group.
type Rule struct {
	Field           string
	Pattern         string
	CaseInsensitive bool
}

// DefaultRules is the prescription rule set. "." never crosses a line break,
// so every capture stays on the line where its label appears.
var DefaultRules = []Rule{
	{Field: PatientName, Pattern: `Name:(.*)Date`, CaseInsensitive: true},
	{Field: DoctorName, Pattern: `Dr (.*),`, CaseInsensitive: true},
	{Field: Date, Pattern: `Date:(.*)`, CaseInsensitive: true},
	{Field: PatientAddress, Pattern: `Address:(.*)`, CaseInsensitive: true},
}

// Extractor applies compiled rules. It holds no mutable state and is safe
// for concurrent use.
type Extractor struct {
	order []string
	res   map[string]*regexp.Regexp
}

var defaultExtractor = MustNewExtractor(DefaultRules)

// Default returns the extractor built from DefaultRules.
func Default() *Extractor {
	return defaultExtractor
}

// NewExtractor compiles rules. Each pattern must have exactly one capture
// group and each field may appear once.
func NewExtractor(rules []Rule) (*Extractor, error) {
	e := &Extractor{
		order: make([]string, 0, len(rules)),
		res:   make(map[string]*regexp.Regexp, len(rules)),
	}
	for _, r := range rules {
		if r.Field == "" {
			return nil, fmt.Errorf("rule with empty field name")
		}
		if _, dup := e.res[r.Field]; dup {
			return nil, fmt.Errorf("duplicate rule for field %q", r.Field)
		}
		pattern := r.Pattern
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Field, err)
		}
		if re.NumSubexp() != 1 {
			return nil, fmt.Errorf("rule %q: want 1 capture group, got %d", r.Field, re.NumSubexp())
		}
		e.order = append(e.order, r.Field)
		e.res[r.Field] = re
	}
	return e, nil
}

func MustNewExtractor(rules []Rule) *Extractor {
	e, err := NewExtractor(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Field returns the trimmed capture of the first match for name, or nil when
// the field is unknown or nothing matched.
func (e *Extractor) Field(text, name string) *string {
	re, ok := e.res[name]
	if !ok {
		return nil
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	v := strings.TrimSpace(m[1])
	return &v
}

// All runs every rule; the map only holds fields that matched.
func (e *Extractor) All(text string) map[string]string {
	out := make(map[string]string, len(e.order))
	for _, name := range e.order {
		if v := e.Field(text, name); v != nil {
			out[name] = *v
		}
	}
	return out
}
