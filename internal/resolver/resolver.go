// Package resolver turns raw region names into display labels and fill
// colors: normalize the name, look up its percentage, run it through a
// colormap.
package resolver

import (
	"math"
	"strconv"

	"github.com/intelligrit/choropleth/internal/colormap"
	"github.com/intelligrit/choropleth/internal/model"
	"github.com/intelligrit/choropleth/internal/normalize"
)

// Color is either a concrete display color or NoData.
type Color struct {
	hex string
}

// NoData is the result for regions without a percentage.
var NoData = Color{}

// IsNoData reports whether c is the NoData sentinel.
func (c Color) IsNoData() bool { return c.hex == "" }

// Hex returns the "#rrggbb" form, or "" for NoData.
func (c Color) Hex() string { return c.hex }

// Fill returns the color to paint, substituting noData for NoData.
func (c Color) Fill(noData string) string {
	if c.IsNoData() {
		return noData
	}
	return c.hex
}

func (c Color) String() string {
	if c.IsNoData() {
		return "NoData"
	}
	return c.hex
}

// Result is the outcome of resolving one region.
type Result struct {
	// Name is the normalized name at the region's own level.
	Name       string
	Key        model.Key
	Label      string
	Found      bool
	Percentage float64
	Color      Color
}

// Resolver holds the injected normalization policies. It has no other state;
// lookups and colormaps are passed per call.
type Resolver struct {
	Province *normalize.Policy
	District *normalize.Policy
}

// New returns a resolver using the given policies. A nil policy leaves names
// unchanged.
func New(province, district *normalize.Policy) *Resolver {
	return &Resolver{Province: province, District: district}
}

// Resolve resolves a province-level name.
func (r *Resolver) Resolve(rawName string, lk *Lookup, cm colormap.Colormap) Result {
	name := r.Province.Normalize(rawName)
	return resolve(name, model.Key{Province: name}, lk, cm)
}

// ResolveDistrict resolves a district within its province. A district miss
// is NoData even when the province itself has a percentage.
func (r *Resolver) ResolveDistrict(rawProvince, rawDistrict string, lk *Lookup, cm colormap.Colormap) Result {
	key := model.Key{
		Province: r.Province.Normalize(rawProvince),
		District: r.District.Normalize(rawDistrict),
	}
	return resolve(key.District, key, lk, cm)
}

// ResolveRecord dispatches on the record's level.
func (r *Resolver) ResolveRecord(rec model.RegionRecord, lk *Lookup, cm colormap.Colormap) Result {
	if rec.Level == model.LevelDistrict {
		return r.ResolveDistrict(rec.Province, rec.District, lk, cm)
	}
	return r.Resolve(rec.Province, lk, cm)
}

func resolve(name string, key model.Key, lk *Lookup, cm colormap.Colormap) Result {
	res := Result{Name: name, Key: key, Color: NoData}

	p, ok := lk.Get(key)
	if !ok {
		res.Label = name + ": N/A"
		return res
	}

	p = Clamp(p)
	res.Found = true
	res.Percentage = p
	res.Color = Colorize(p, cm)
	res.Label = name + ": " + FormatPercentage(p) + "%"
	return res
}

// Colorize maps a percentage to its display color. The percentage is clamped
// to [0,100] before evaluating the colormap at p/100.
func Colorize(p float64, cm colormap.Colormap) Color {
	return Color{hex: colormap.Hex(cm.At(Clamp(p) / 100))}
}

// Clamp limits p to [0,100]. NaN becomes 0.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// FormatPercentage renders p with the shortest exact decimal form.
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
