// Package table loads per-region percentage tables and validates them.
// Loading fails on the first malformed value; nothing downstream ever sees
// a row that did not parse.
package table

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/intelligrit/choropleth/internal/model"
)

// Source describes one percentage table.
type Source struct {
	Path             string `toml:"path"`
	ProvinceColumn   string `toml:"province_column"`
	DistrictColumn   string `toml:"district_column"`
	PercentageColumn string `toml:"percentage_column"`
	// Sheet selects the worksheet of an .xlsx file. Empty means the first.
	Sheet string `toml:"sheet"`
	// Selector picks the table element of an HTML file. Empty means "table".
	Selector string `toml:"selector"`
}

// MalformedPercentageError reports a table value that is not a number in
// [0,100].
type MalformedPercentageError struct {
	Source string
	Record int
	Column string
	Value  string
	Reason string
}

func (e *MalformedPercentageError) Error() string {
	return fmt.Sprintf("%s: data row %d: column %q: malformed percentage %q: %s", e.Source, e.Record, e.Column, e.Value, e.Reason)
}

// Load reads src, picking a reader by file extension, and validates every
// row. District tables are detected by a configured district column.
func (r *Reader) Load(ctx context.Context, src Source) ([]model.Row, error) {
	var (
		header  []string
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(src.Path)); ext {
	case ".csv", ".tsv", ".txt", ".parquet", ".json", ".ndjson":
		header, records, err = r.readDuckDB(ctx, src.Path, ext)
	case ".xlsx", ".xlsm":
		header, records, err = readXLSX(src.Path, src.Sheet)
	case ".html", ".htm":
		header, records, err = readHTML(src.Path, src.Selector)
	default:
		return nil, fmt.Errorf("%s: unsupported table format %q", src.Path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Path, err)
	}

	return parseRecords(src, header, records)
}

// parseRecords converts raw records into rows. Record numbers are 1-based
// data rows: the header and blank rows are not counted, so they agree across
// readers that drop blank lines and readers that keep them.
func parseRecords(src Source, header []string, records [][]string) ([]model.Row, error) {
	provCol := columnIndex(header, src.ProvinceColumn)
	if provCol < 0 {
		return nil, fmt.Errorf("%s: province column %q not found in header %q", src.Path, src.ProvinceColumn, header)
	}
	pctCol := columnIndex(header, src.PercentageColumn)
	if pctCol < 0 {
		return nil, fmt.Errorf("%s: percentage column %q not found in header %q", src.Path, src.PercentageColumn, header)
	}
	distCol := -1
	if src.DistrictColumn != "" {
		if distCol = columnIndex(header, src.DistrictColumn); distCol < 0 {
			return nil, fmt.Errorf("%s: district column %q not found in header %q", src.Path, src.DistrictColumn, header)
		}
	}

	rows := make([]model.Row, 0, len(records))
	n := 0
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		n++

		row := model.Row{
			Province: strings.TrimSpace(cell(rec, provCol)),
			Source:   src.Path,
			Record:   n,
		}
		if row.Province == "" {
			return nil, fmt.Errorf("%s: data row %d: empty province name", src.Path, n)
		}
		if distCol >= 0 {
			row.District = strings.TrimSpace(cell(rec, distCol))
			if row.District == "" {
				return nil, fmt.Errorf("%s: data row %d: empty district name", src.Path, n)
			}
		}

		raw := cell(rec, pctCol)
		p, reason := ParsePercentage(raw)
		if reason != "" {
			return nil, &MalformedPercentageError{
				Source: src.Path,
				Record: n,
				Column: header[pctCol],
				Value:  raw,
				Reason: reason,
			}
		}
		row.Percentage = p
		rows = append(rows, row)
	}
	return rows, nil
}

// ParsePercentage parses a table value such as "82.5" or "82.5%". A
// non-empty reason means the value is rejected.
func ParsePercentage(s string) (float64, string) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, "empty value"
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, "not a number"
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, "not a finite number"
	}
	if p < 0 || p > 100 {
		return 0, "outside [0,100]"
	}
	return p, ""
}

func columnIndex(header []string, name string) int {
	name = strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
