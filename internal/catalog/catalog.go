// Package catalog holds the read-only medicine reference data used to enrich
// and validate extracted medicines.
package catalog

import "strings"

// ReferenceRecord is one known medicine.
type ReferenceRecord struct {
	Name         string `json:"name"`
	Composition  string `json:"composition"`
	Manufacturer string `json:"manufacturer"`
	SideEffects  string `json:"side_effects"`
}

// Lookup resolves a (possibly truncated) medicine name to a reference record.
// Implementations must be safe for concurrent use.
type Lookup interface {
	Lookup(name string) (ReferenceRecord, bool)
}

// Catalog is an in-memory, load-ordered table of ReferenceRecords. It is
// never mutated after construction.
type Catalog struct {
	records []ReferenceRecord
	keys    []string // lower-cased names, same index as records
}

var _ Lookup = (*Catalog)(nil)

// New builds a catalog from records, keeping their order.
func New(records []ReferenceRecord) *Catalog {
	c := &Catalog{
		records: make([]ReferenceRecord, len(records)),
		keys:    make([]string, len(records)),
	}
	copy(c.records, records)
	for i, r := range c.records {
		c.keys[i] = strings.ToLower(r.Name)
	}
	return c
}

// Empty returns a catalog with no rows; every lookup misses.
func Empty() *Catalog {
	return New(nil)
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Records returns a copy of the rows in load order.
func (c *Catalog) Records() []ReferenceRecord {
	if c == nil {
		return nil
	}
	out := make([]ReferenceRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Lookup returns the first row, in load order, whose name contains name
// (case-insensitive). An empty name never matches.
func (c *Catalog) Lookup(name string) (ReferenceRecord, bool) {
	if c == nil {
		return ReferenceRecord{}, false
	}
	q := strings.ToLower(name)
	if q == "" {
		return ReferenceRecord{}, false
	}
	for i, key := range c.keys {
		if strings.Contains(key, q) {
			return c.records[i], true
		}
	}
	return ReferenceRecord{}, false
}
