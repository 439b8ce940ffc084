// Package geometry reads administrative boundaries from GeoJSON and answers
// which region contains a clicked point.
package geometry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/intelligrit/choropleth/internal/model"
)

// Fields names the feature properties holding region names. GADM files use
// NAME_1 for provinces and NAME_2 for districts, with the names in the local
// script in NL_NAME_1 and NL_NAME_2.
type Fields struct {
	Province       string `toml:"province_field"`
	District       string `toml:"district_field"`
	NativeProvince string `toml:"native_province_field"`
	NativeDistrict string `toml:"native_district_field"`
}

// DefaultFields are the GADM property names.
var DefaultFields = Fields{
	Province:       "NAME_1",
	District:       "NAME_2",
	NativeProvince: "NL_NAME_1",
	NativeDistrict: "NL_NAME_2",
}

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Load reads a GeoJSON FeatureCollection and returns one record per Polygon
// or MultiPolygon feature. Features with other geometry types, or without a
// name at the requested level, are skipped and logged at debug level.
func Load(path string, level model.Level, fields Fields, logger zerolog.Logger) ([]model.RegionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geometry: %w", err)
	}
	recs, err := Parse(data, level, fields, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Parse decodes GeoJSON bytes. See Load.
func Parse(data []byte, level model.Level, fields Fields, logger zerolog.Logger) ([]model.RegionRecord, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decoding GeoJSON: %w", err)
	}
	if !strings.EqualFold(fc.Type, "FeatureCollection") {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	recs := make([]model.RegionRecord, 0, len(fc.Features))
	for i, raw := range fc.Features {
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			logger.Debug().Int("feature", i).Str("type", fmt.Sprintf("%T", f.Geometry)).Msg("skipping non-polygon feature")
			continue
		}

		rec := model.RegionRecord{
			Level:          level,
			Province:       property(f.Properties, fields.Province),
			NativeProvince: native(f.Properties, fields.NativeProvince),
			Geometry:       f.Geometry,
		}
		if level == model.LevelDistrict {
			rec.District = property(f.Properties, fields.District)
			rec.NativeDistrict = native(f.Properties, fields.NativeDistrict)
		}
		if rec.Name() == "" {
			logger.Debug().Int("feature", i).Str("level", string(level)).Msg("skipping unnamed feature")
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func property(props map[string]interface{}, key string) string {
	if key == "" {
		return ""
	}
	switch v := props[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// native reads a local-script name. GADM writes "NA" where it has none.
func native(props map[string]interface{}, key string) string {
	v := strings.TrimSpace(property(props, key))
	if v == "NA" {
		return ""
	}
	return v
}
