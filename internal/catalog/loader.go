package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/rx-extractor/constants"
)

// Column headers of the reference data. Headers are matched ignoring case,
// spaces and underscores, so "Side Effects" and "side_effects" both work.
const (
	ColName         = "Medicine Name"
	ColComposition  = "Composition"
	ColManufacturer = "Manufacturer"
	ColSideEffects  = "Side_effects"
)

var (
	ErrUnsupportedSource = errors.New("unsupported catalog source")
	ErrMissingColumn     = errors.New("catalog column missing")
)

// Load opens the reference data at path. Any failure is logged and an empty
// catalog is returned so extraction keeps running without enrichment.
func Load(path string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := Open(path)
	if err != nil {
		logger.Warn("catalog unavailable, continuing with empty catalog", "path", path, "error", err)
		return Empty()
	}
	logger.Info("catalog loaded", "path", path, "rows", c.Len())
	return c
}

// Open reads a .csv or .xlsx reference file.
func Open(path string) (*Catalog, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsCatalogExt(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, ext)
	}
	switch ext {
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		return ParseCSV(f)
	default:
		return openXLSX(path)
	}
}

// ParseCSV reads reference rows from CSV with a header row.
func ParseCSV(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return fromRows(rows)
}

func openXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	idx := map[string]int{}
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		key := headerKey(h)
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}

	cols := make([]int, 0, 4)
	for _, name := range []string{ColName, ColComposition, ColManufacturer, ColSideEffects} {
		i, ok := idx[headerKey(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		cols = append(cols, i)
	}

	records := make([]ReferenceRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// excelize drops trailing empty cells, csv may have short rows
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		records = append(records, ReferenceRecord{
			Name:         cell(cols[0]),
			Composition:  cell(cols[1]),
			Manufacturer: cell(cols[2]),
			SideEffects:  cell(cols[3]),
		})
	}
	return New(records), nil
}

func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", "")
	return strings.ReplaceAll(h, " ", "")
}
