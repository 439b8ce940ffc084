package model

import "github.com/twpayne/go-geom"

// Level is an administrative level of the map.
type Level string

const (
	LevelProvince Level = "province"
	LevelDistrict Level = "district"
)

// Levels lists every supported level, coarsest first.
var Levels = []Level{LevelProvince, LevelDistrict}

// ParseLevel converts a query or flag value into a Level.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelProvince, LevelDistrict:
		return Level(s), true
	case "":
		return LevelProvince, true
	}
	return "", false
}

// RegionRecord is one boundary feature as authored in the geometry source.
// Names are raw; normalization happens at join time. The native names are the
// same regions in the local script, possibly several separated by "|".
type RegionRecord struct {
	Level          Level
	Province       string
	District       string
	NativeProvince string
	NativeDistrict string
	Geometry       geom.T
}

// Name returns the display name of the record at its own level.
func (r RegionRecord) Name() string {
	if r.Level == LevelDistrict {
		return r.District
	}
	return r.Province
}

// Key is the normalized join key. Province-level keys have an empty District.
type Key struct {
	Province string `json:"province"`
	District string `json:"district,omitempty"`
}

// Row is a validated percentage table entry. Record is its 1-based data row
// in Source, not counting the header or blank rows.
type Row struct {
	Province   string  `json:"province"`
	District   string  `json:"district,omitempty"`
	Percentage float64 `json:"percentage"`
	Source     string  `json:"source"`
	Record     int     `json:"record"`
}

// Filter selects which regions the rendering layer emits. Empty fields and
// the value All match everything.
type Filter struct {
	Province string
	District string
}

// All is the dropdown value that disables a filter.
const All = "All"

// Coverage summarizes how well geometry and table names join at one level.
type Coverage struct {
	Level         Level    `json:"level"`
	Regions       int      `json:"regions"`
	Matched       int      `json:"matched"`
	Unmatched     []string `json:"unmatched,omitempty"`
	OrphanedKeys  []string `json:"orphaned_keys,omitempty"`
	TableRows     int      `json:"table_rows"`
	DuplicateKeys int      `json:"duplicate_keys"`
}

// Inspection is the result of a click on the map.
type Inspection struct {
	Level      Level    `json:"level"`
	Found      bool     `json:"found"`
	Province   string   `json:"province,omitempty"`
	District   string   `json:"district,omitempty"`
	Label      string   `json:"label,omitempty"`
	Fill       string   `json:"fill,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
}
