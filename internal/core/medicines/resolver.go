package medicines

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/rx-extractor/constants"
	"github.com/joseph-ayodele/rx-extractor/internal/catalog"
	"github.com/joseph-ayodele/rx-extractor/internal/entity"
)

// Resolver enriches tokens from a catalog. Unknown medicines are kept with
// constants.NotAvailable metadata.
type Resolver struct {
	lookup catalog.Lookup
}

func NewResolver(lookup catalog.Lookup) *Resolver {
	if lookup == nil {
		lookup = catalog.Empty()
	}
	return &Resolver{lookup: lookup}
}

// Resolve maps tokens one to one, in order.
func (r *Resolver) Resolve(tokens []entity.MedicineToken) []entity.ResolvedMedicine {
	out := make([]entity.ResolvedMedicine, 0, len(tokens))
	for _, tok := range tokens {
		med := entity.ResolvedMedicine{
			Name:         Capitalize(tok.RawName),
			Dosage:       tok.Dosage,
			Frequency:    constants.NotAvailable,
			Duration:     constants.NotAvailable,
			Composition:  constants.NotAvailable,
			Manufacturer: constants.NotAvailable,
			SideEffects:  constants.NotAvailable,
		}
		if rec, ok := r.lookup.Lookup(strings.ToLower(tok.RawName)); ok {
			med.Composition = rec.Composition
			med.Manufacturer = rec.Manufacturer
			med.SideEffects = rec.SideEffects
		}
		out = append(out, med)
	}
	return out
}

// Capitalize upper-cases the first character and leaves the rest as is.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
