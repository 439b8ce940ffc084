package geometry

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mmcloughlin/geohash"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/intelligrit/choropleth/internal/model"
)

// cachePrecision is the geohash length of cache keys, a cell of roughly
// 5 m x 5 m.
const cachePrecision = 9

// Index finds the region containing a point: bounding box prefilter, then an
// exact point-in-ring test. Records are not modified after NewIndex.
type Index struct {
	recs   []model.RegionRecord
	bounds []*geom.Bounds
	cache  *lru.Cache[string, int]

	// OnCache, if set, is called with true on a cache hit and false on a miss.
	OnCache func(hit bool)
}

// NewIndex builds an index over recs. cacheSize <= 0 disables caching.
func NewIndex(recs []model.RegionRecord, cacheSize int) (*Index, error) {
	idx := &Index{recs: recs, bounds: make([]*geom.Bounds, len(recs))}
	for i, r := range recs {
		idx.bounds[i] = r.Geometry.Bounds()
	}
	if cacheSize > 0 {
		c, err := lru.New[string, int](cacheSize)
		if err != nil {
			return nil, err
		}
		idx.cache = c
	}
	return idx, nil
}

// Len returns the number of indexed records.
func (idx *Index) Len() int { return len(idx.recs) }

// Locate returns the first record whose geometry contains (lat, lon).
func (idx *Index) Locate(lat, lon float64) (model.RegionRecord, bool) {
	var key string
	if idx.cache != nil {
		key = geohash.EncodeWithPrecision(lat, lon, cachePrecision)
		if i, ok := idx.cache.Get(key); ok {
			idx.observe(true)
			if i < 0 {
				return model.RegionRecord{}, false
			}
			return idx.recs[i], true
		}
		idx.observe(false)
	}

	found := -1
	pt := geom.Coord{lon, lat}
	for i, r := range idx.recs {
		if !idx.bounds[i].OverlapsPoint(geom.XY, pt) {
			continue
		}
		if Contains(r.Geometry, pt) {
			found = i
			break
		}
	}

	if idx.cache != nil {
		idx.cache.Add(key, found)
	}
	if found < 0 {
		return model.RegionRecord{}, false
	}
	return idx.recs[found], true
}

func (idx *Index) observe(hit bool) {
	if idx.OnCache != nil {
		idx.OnCache(hit)
	}
}

// Contains reports whether a Polygon or MultiPolygon contains pt, given as
// (lon, lat). Points inside a hole are outside.
func Contains(g geom.T, pt geom.Coord) bool {
	switch g := g.(type) {
	case *geom.Polygon:
		return polygonContains(g, pt)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			if polygonContains(g.Polygon(i), pt) {
				return true
			}
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	layout := p.Layout()
	if !xy.IsPointInRing(layout, pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(layout, pt, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
