package resolver

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/intelligrit/choropleth/internal/model"
	"github.com/intelligrit/choropleth/internal/normalize"
)

// DuplicatePolicy decides what happens when two table rows normalize to the
// same key.
type DuplicatePolicy string

const (
	// DuplicatesLast keeps the later row silently.
	DuplicatesLast DuplicatePolicy = "last"
	// DuplicatesWarn keeps the later row and logs a warning.
	DuplicatesWarn DuplicatePolicy = "warn"
	// DuplicatesError rejects the table.
	DuplicatesError DuplicatePolicy = "error"
)

// ParseDuplicatePolicy validates a configured policy. Empty means warn.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(s); p {
	case DuplicatesLast, DuplicatesWarn, DuplicatesError:
		return p, nil
	case "":
		return DuplicatesWarn, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q (want last, warn or error)", s)
}

// DuplicateKeyError reports two rows sharing a normalized key.
type DuplicateKeyError struct {
	Key    model.Key
	First  model.Row
	Second model.Row
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %s: %s row %d and %s row %d",
		formatKey(e.Key), e.First.Source, e.First.Record, e.Second.Source, e.Second.Record)
}

// Lookup maps normalized keys to percentages. It is never modified after
// Build returns, so it may be shared by concurrent readers.
type Lookup struct {
	level      model.Level
	values     map[model.Key]float64
	rows       int
	duplicates int
}

// Options control lookup construction.
type Options struct {
	Province   *normalize.Policy
	District   *normalize.Policy
	Duplicates DuplicatePolicy
	Logger     zerolog.Logger
}

// Build normalizes each row's names and indexes the percentages. District
// level lookups key on (province, district); province level lookups ignore
// the district column.
func Build(level model.Level, rows []model.Row, opts Options) (*Lookup, error) {
	lk := &Lookup{level: level, values: make(map[model.Key]float64, len(rows)), rows: len(rows)}
	seen := make(map[model.Key]model.Row, len(rows))

	for _, row := range rows {
		key := model.Key{Province: opts.Province.Normalize(row.Province)}
		if level == model.LevelDistrict {
			key.District = opts.District.Normalize(row.District)
		}

		if prev, ok := seen[key]; ok {
			lk.duplicates++
			switch opts.Duplicates {
			case DuplicatesError:
				return nil, &DuplicateKeyError{Key: key, First: prev, Second: row}
			case DuplicatesWarn, "":
				opts.Logger.Warn().
					Str("level", string(level)).
					Str("key", formatKey(key)).
					Str("first", fmt.Sprintf("%s row %d", prev.Source, prev.Record)).
					Str("second", fmt.Sprintf("%s row %d", row.Source, row.Record)).
					Float64("replaced", prev.Percentage).
					Float64("kept", row.Percentage).
					Msg("duplicate region key, later row wins")
			}
		}
		seen[key] = row
		lk.values[key] = row.Percentage
	}
	return lk, nil
}

// FromMap builds a lookup directly from normalized keys.
func FromMap(level model.Level, m map[model.Key]float64) *Lookup {
	lk := &Lookup{level: level, values: make(map[model.Key]float64, len(m)), rows: len(m)}
	for k, v := range m {
		lk.values[k] = v
	}
	return lk
}

// Get returns the percentage for a normalized key.
func (l *Lookup) Get(key model.Key) (float64, bool) {
	if l == nil {
		return 0, false
	}
	v, ok := l.values[key]
	return v, ok
}

// Level returns the level the lookup was built for.
func (l *Lookup) Level() model.Level { return l.level }

// Len returns the number of distinct keys.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.values)
}

// Rows returns the number of table rows the lookup was built from.
func (l *Lookup) Rows() int { return l.rows }

// Duplicates returns how many rows shared a key with an earlier row.
func (l *Lookup) Duplicates() int { return l.duplicates }

// Keys calls fn for every key in the lookup, in no particular order.
func (l *Lookup) Keys(fn func(model.Key)) {
	if l == nil {
		return
	}
	for k := range l.values {
		fn(k)
	}
}

func formatKey(k model.Key) string {
	if k.District == "" {
		return k.Province
	}
	return k.Province + "/" + k.District
}
