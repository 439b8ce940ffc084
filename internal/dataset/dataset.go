// Package dataset ties boundaries, percentage tables and the resolver
// together. A Dataset is built once at startup and only read afterwards, so
// it can be shared by concurrent handlers.
package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/intelligrit/choropleth/internal/colormap"
	"github.com/intelligrit/choropleth/internal/config"
	"github.com/intelligrit/choropleth/internal/geometry"
	"github.com/intelligrit/choropleth/internal/model"
	"github.com/intelligrit/choropleth/internal/resolver"
	"github.com/intelligrit/choropleth/internal/table"
)

// Style holds the fixed presentation properties written on every feature.
type Style struct {
	NoData      string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
}

// Layer is the input for one administrative level.
type Layer struct {
	Level   model.Level
	Regions []model.RegionRecord
	Lookup  *resolver.Lookup
}

type layer struct {
	regions []model.RegionRecord
	lookup  *resolver.Lookup
	index   *geometry.Index
}

// Dataset is the loaded, read-only state behind the map.
type Dataset struct {
	Resolver *resolver.Resolver
	Style    Style

	levels map[model.Level]*layer
}

// New assembles a dataset from already loaded layers. cacheSize bounds the
// click-to-inspect cache of each level's index.
func New(res *resolver.Resolver, style Style, cacheSize int, layers ...Layer) (*Dataset, error) {
	ds := &Dataset{Resolver: res, Style: style, levels: make(map[model.Level]*layer, len(layers))}
	for _, l := range layers {
		if _, dup := ds.levels[l.Level]; dup {
			return nil, fmt.Errorf("level %s given twice", l.Level)
		}
		idx, err := geometry.NewIndex(l.Regions, cacheSize)
		if err != nil {
			return nil, fmt.Errorf("indexing %s geometry: %w", l.Level, err)
		}
		ds.levels[l.Level] = &layer{regions: l.Regions, lookup: l.Lookup, index: idx}
	}
	return ds, nil
}

// Load reads geometry and tables named in cfg. Relative paths are resolved
// against the data directory. The province level is required; the district
// level is loaded only when its geometry path is set. All geometry is read
// before any table so native-name aliases can extend the policies the tables
// are keyed with.
func Load(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dataset, error) {
	provPolicy, distPolicy, err := cfg.Policies()
	if err != nil {
		return nil, err
	}
	dups, err := resolver.ParseDuplicatePolicy(cfg.Normalize.Duplicates)
	if err != nil {
		return nil, err
	}

	specs := []struct {
		level    model.Level
		geometry string
		table    table.Source
	}{
		{model.LevelProvince, cfg.Geometry.Provinces, cfg.Tables.Provinces},
		{model.LevelDistrict, cfg.Geometry.Districts, cfg.Tables.Districts},
	}

	regions := make(map[model.Level][]model.RegionRecord, len(specs))
	for _, s := range specs {
		if s.geometry == "" {
			if s.level == model.LevelProvince {
				return nil, fmt.Errorf("province geometry path is not configured")
			}
			logger.Info().Str("level", string(s.level)).Msg("no geometry configured, level disabled")
			continue
		}
		recs, err := geometry.Load(cfg.Path(s.geometry), s.level, cfg.Geometry.Fields, logger)
		if err != nil {
			return nil, fmt.Errorf("loading %s geometry: %w", s.level, err)
		}
		regions[s.level] = recs
	}

	if cfg.Geometry.NativeAliases {
		all := append(append([]model.RegionRecord(nil), regions[model.LevelProvince]...), regions[model.LevelDistrict]...)
		provRules := nativeAliases(all, provPolicy, nativeProvince, province, logger)
		distRules := nativeAliases(regions[model.LevelDistrict], distPolicy, nativeDistrict, district, logger)
		if provPolicy, err = provPolicy.With(provRules...); err != nil {
			return nil, fmt.Errorf("province native aliases: %w", err)
		}
		if distPolicy, err = distPolicy.With(distRules...); err != nil {
			return nil, fmt.Errorf("district native aliases: %w", err)
		}
		logger.Debug().
			Int("province_aliases", len(provRules)).
			Int("district_aliases", len(distRules)).
			Msg("native name aliases")
	}

	reader, err := table.NewReader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	opts := resolver.Options{
		Province:   provPolicy,
		District:   distPolicy,
		Duplicates: dups,
		Logger:     logger,
	}

	var layers []Layer
	for _, s := range specs {
		recs, ok := regions[s.level]
		if !ok {
			continue
		}

		var rows []model.Row
		if s.table.Path != "" {
			src := s.table
			src.Path = cfg.Path(src.Path)
			rows, err = reader.Load(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("loading %s table: %w", s.level, err)
			}
		}
		lk, err := resolver.Build(s.level, rows, opts)
		if err != nil {
			return nil, fmt.Errorf("building %s lookup: %w", s.level, err)
		}

		logger.Info().
			Str("level", string(s.level)).
			Int("regions", len(recs)).
			Int("rows", len(rows)).
			Int("keys", lk.Len()).
			Msg("level loaded")
		layers = append(layers, Layer{Level: s.level, Regions: recs, Lookup: lk})
	}

	style := Style{
		NoData:      cfg.Render.NoData,
		Stroke:      cfg.Render.Stroke,
		StrokeWidth: cfg.Render.StrokeWidth,
		Opacity:     cfg.Render.Opacity,
	}
	return New(resolver.New(provPolicy, distPolicy), style, cfg.Server.CacheSize, layers...)
}

// Levels returns the loaded levels, coarsest first.
func (ds *Dataset) Levels() []model.Level {
	var out []model.Level
	for _, l := range model.Levels {
		if _, ok := ds.levels[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (ds *Dataset) layer(level model.Level) (*layer, error) {
	l, ok := ds.levels[level]
	if !ok {
		return nil, fmt.Errorf("level %q is not loaded", level)
	}
	return l, nil
}

// ObserveCache registers fn on every level's inspect cache. It must be called
// before the dataset is shared.
func (ds *Dataset) ObserveCache(fn func(level model.Level, hit bool)) {
	for level, l := range ds.levels {
		level := level
		l.index.OnCache = func(hit bool) { fn(level, hit) }
	}
}

// Provinces returns the distinct province names for the filter dropdown.
func (ds *Dataset) Provinces() []string {
	src := ds.levels[model.LevelProvince]
	if src == nil {
		src = ds.levels[model.LevelDistrict]
	}
	if src == nil {
		return nil
	}
	return distinct(src.regions, func(r model.RegionRecord) string { return r.Province })
}

// Districts returns the distinct district names within province. An empty
// province or All lists every district.
func (ds *Dataset) Districts(province string) []string {
	l := ds.levels[model.LevelDistrict]
	if l == nil {
		return nil
	}
	f := model.Filter{Province: province}
	var recs []model.RegionRecord
	for _, r := range l.regions {
		if ds.matches(r, f) {
			recs = append(recs, r)
		}
	}
	return distinct(recs, func(r model.RegionRecord) string { return r.District })
}

func distinct(recs []model.RegionRecord, name func(model.RegionRecord) string) []string {
	seen := make(map[string]bool, len(recs))
	out := []string{}
	for _, r := range recs {
		n := name(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// matches compares normalized names so "จังหวัด Chiang Mai" selects the
// region the boundary file calls "Chiang Mai".
func (ds *Dataset) matches(r model.RegionRecord, f model.Filter) bool {
	if active(f.Province) && ds.Resolver.Province.Normalize(r.Province) != ds.Resolver.Province.Normalize(f.Province) {
		return false
	}
	if r.Level == model.LevelDistrict && active(f.District) &&
		ds.Resolver.District.Normalize(r.District) != ds.Resolver.District.Normalize(f.District) {
		return false
	}
	return true
}

func active(v string) bool { return v != "" && v != model.All }

// Rendering is a styled feature collection and its resolution counts.
type Rendering struct {
	Level    model.Level
	Features *geojson.FeatureCollection
	Found    int
	NoData   int
}

// Render resolves every region of level that passes the filter and styles it
// with cm.
func (ds *Dataset) Render(level model.Level, f model.Filter, cm colormap.Colormap) (*Rendering, error) {
	l, err := ds.layer(level)
	if err != nil {
		return nil, err
	}

	out := &Rendering{Level: level, Features: &geojson.FeatureCollection{}}
	for _, rec := range l.regions {
		if !ds.matches(rec, f) {
			continue
		}
		res := ds.Resolver.ResolveRecord(rec, l.lookup, cm)
		if res.Found {
			out.Found++
		} else {
			out.NoData++
		}
		out.Features.Features = append(out.Features.Features, ds.feature(rec, res))
	}
	return out, nil
}

func (ds *Dataset) feature(rec model.RegionRecord, res resolver.Result) *geojson.Feature {
	props := map[string]interface{}{
		"name":         rec.Name(),
		"province":     rec.Province,
		"label":        res.Label,
		"found":        res.Found,
		"fill":         res.Color.Fill(ds.Style.NoData),
		"fill-opacity": ds.Style.Opacity,
		"stroke":       ds.Style.Stroke,
		"stroke-width": ds.Style.StrokeWidth,
	}
	if rec.Level == model.LevelDistrict {
		props["district"] = rec.District
	}
	if res.Found {
		props["percentage"] = res.Percentage
	}
	return &geojson.Feature{Geometry: rec.Geometry, Properties: props}
}

// Resolve resolves a single name, or a province and district pair at the
// district level, without touching geometry.
func (ds *Dataset) Resolve(level model.Level, province, district string, cm colormap.Colormap) (resolver.Result, error) {
	l, err := ds.layer(level)
	if err != nil {
		return resolver.Result{}, err
	}
	if level == model.LevelDistrict {
		return ds.Resolver.ResolveDistrict(province, district, l.lookup, cm), nil
	}
	return ds.Resolver.Resolve(province, l.lookup, cm), nil
}

// Inspect resolves the region under (lat, lon).
func (ds *Dataset) Inspect(level model.Level, lat, lon float64, cm colormap.Colormap) (model.Inspection, error) {
	l, err := ds.layer(level)
	if err != nil {
		return model.Inspection{}, err
	}

	in := model.Inspection{Level: level}
	rec, ok := l.index.Locate(lat, lon)
	if !ok {
		return in, nil
	}
	res := ds.Resolver.ResolveRecord(rec, l.lookup, cm)
	in.Found = true
	in.Province = rec.Province
	in.District = rec.District
	in.Label = res.Label
	in.Fill = res.Color.Fill(ds.Style.NoData)
	if res.Found {
		p := res.Percentage
		in.Percentage = &p
	}
	return in, nil
}

// Coverage reports, per loaded level, which regions found a percentage and
// which table keys match no region.
func (ds *Dataset) Coverage() []model.Coverage {
	var out []model.Coverage
	for _, level := range ds.Levels() {
		l := ds.levels[level]
		c := model.Coverage{
			Level:         level,
			Regions:       len(l.regions),
			TableRows:     l.lookup.Rows(),
			DuplicateKeys: l.lookup.Duplicates(),
		}

		present := make(map[model.Key]bool, len(l.regions))
		unmatched := make(map[string]bool)
		for _, rec := range l.regions {
			key := ds.key(rec)
			present[key] = true
			if _, ok := l.lookup.Get(key); ok {
				c.Matched++
			} else {
				unmatched[displayName(rec.Province, rec.District)] = true
			}
		}
		c.Unmatched = sortedKeys(unmatched)

		orphans := make(map[string]bool)
		l.lookup.Keys(func(k model.Key) {
			if !present[k] {
				orphans[displayName(k.Province, k.District)] = true
			}
		})
		c.OrphanedKeys = sortedKeys(orphans)

		out = append(out, c)
	}
	return out
}

func (ds *Dataset) key(rec model.RegionRecord) model.Key {
	k := model.Key{Province: ds.Resolver.Province.Normalize(rec.Province)}
	if rec.Level == model.LevelDistrict {
		k.District = ds.Resolver.District.Normalize(rec.District)
	}
	return k
}

func displayName(province, district string) string {
	if district == "" {
		return province
	}
	return province + "/" + district
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bounds returns the extent of every region at level, for fitting the map.
func (ds *Dataset) Bounds(level model.Level) (*geom.Bounds, error) {
	l, err := ds.layer(level)
	if err != nil {
		return nil, err
	}
	b := geom.NewBounds(geom.XY)
	for _, rec := range l.regions {
		b.Extend(rec.Geometry)
	}
	return b, nil
}
