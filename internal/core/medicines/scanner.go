// Package medicines finds medicine/dosage mentions in OCR text and reconciles
// them with the reference catalog.
package medicines

import (
	"fmt"
	"regexp"

	"github.com/joseph-ayodele/rx-extractor/internal/entity"
)

// TokenPattern describes a medicine mention: a pattern and the indexes of the
// groups holding the name and the dosage.
type TokenPattern struct {
	Pattern     string
	NameGroup   int
	DosageGroup int
}

// DefaultTokenPattern matches any word followed by an integer milligram dose
// ("500mg") or a decimal gram dose ("2.4 gram"). Whether the word really is a
// medicine is left to catalog reconciliation and human review.
//
// RE2's \w and \b are ASCII-only, so the name is bounded with Unicode letter
// and digit classes instead; "Paracétamol" and Cyrillic names stay whole.
var DefaultTokenPattern = TokenPattern{
	Pattern:     `(?i)(?:^|[^\p{L}\p{N}_])([\p{L}\p{N}_]+)\s+(\d+mg|\d+\.\d+\sgram)\b`,
	NameGroup:   1,
	DosageGroup: 2,
}

// Scanner extracts MedicineTokens; safe for concurrent use.
type Scanner struct {
	re          *regexp.Regexp
	nameGroup   int
	dosageGroup int
}

var defaultScanner = MustNewScanner(DefaultTokenPattern)

func NewScanner(p TokenPattern) (*Scanner, error) {
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile token pattern: %w", err)
	}
	n := re.NumSubexp()
	if p.NameGroup < 1 || p.NameGroup > n || p.DosageGroup < 1 || p.DosageGroup > n || p.NameGroup == p.DosageGroup {
		return nil, fmt.Errorf("token pattern groups name=%d dosage=%d invalid for %d groups", p.NameGroup, p.DosageGroup, n)
	}
	return &Scanner{re: re, nameGroup: p.NameGroup, dosageGroup: p.DosageGroup}, nil
}

func MustNewScanner(p TokenPattern) *Scanner {
	s, err := NewScanner(p)
	if err != nil {
		panic(err)
	}
	return s
}

// Scan returns every non-overlapping match in text order.
func (s *Scanner) Scan(text string) []entity.MedicineToken {
	matches := s.re.FindAllStringSubmatch(text, -1)
	tokens := make([]entity.MedicineToken, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, entity.MedicineToken{
			RawName: m[s.nameGroup],
			Dosage:  m[s.dosageGroup],
		})
	}
	return tokens
}

// Scan runs the default scanner.
func Scan(text string) []entity.MedicineToken {
	return defaultScanner.Scan(text)
}
