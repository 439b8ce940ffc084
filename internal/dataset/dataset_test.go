package dataset

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/intelligrit/choropleth/internal/colormap"
	"github.com/intelligrit/choropleth/internal/config"
	"github.com/intelligrit/choropleth/internal/geometry"
	"github.com/intelligrit/choropleth/internal/model"
	"github.com/intelligrit/choropleth/internal/normalize"
	"github.com/intelligrit/choropleth/internal/resolver"
)

const provincesJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME_1":"Chiang Mai"},
  "geometry":{"type":"Polygon","coordinates":[[[98,18],[99,18],[99,19],[98,19],[98,18]]]}},
 {"type":"Feature","properties":{"NAME_1":"Lamphun"},
  "geometry":{"type":"Polygon","coordinates":[[[99,18],[100,18],[100,19],[99,19],[99,18]]]}}
]}`

const districtsJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME_1":"Chiang Mai","NAME_2":"Mae Rim"},
  "geometry":{"type":"Polygon","coordinates":[[[98,18],[98.5,18],[98.5,19],[98,19],[98,18]]]}},
 {"type":"Feature","properties":{"NAME_1":"Chiang Mai","NAME_2":"Mae Taeng"},
  "geometry":{"type":"Polygon","coordinates":[[[98.5,18],[99,18],[99,19],[98.5,19],[98.5,18]]]}},
 {"type":"Feature","properties":{"NAME_1":"Lamphun","NAME_2":"Pa Sang"},
  "geometry":{"type":"Polygon","coordinates":[[[99,18],[100,18],[100,19],[99,19],[99,18]]]}}
]}`

var testStyle = Style{NoData: "#808080", Stroke: "#000000", StrokeWidth: 1, Opacity: 0.5}

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	prov, _ := normalize.Preset("thai-province")
	dist, _ := normalize.Preset("thai-district")

	pRecs, err := geometry.Parse([]byte(provincesJSON), model.LevelProvince, geometry.DefaultFields, zerolog.Nop())
	if err != nil {
		t.Fatalf("parsing provinces: %v", err)
	}
	dRecs, err := geometry.Parse([]byte(districtsJSON), model.LevelDistrict, geometry.DefaultFields, zerolog.Nop())
	if err != nil {
		t.Fatalf("parsing districts: %v", err)
	}

	opts := resolver.Options{Province: prov, District: dist, Logger: zerolog.Nop()}
	pLk, err := resolver.Build(model.LevelProvince, []model.Row{
		{Province: "จังหวัด Chiang Mai", Percentage: 82.5},
		{Province: "Phuket", Percentage: 40},
	}, opts)
	if err != nil {
		t.Fatalf("building province lookup: %v", err)
	}
	dLk, err := resolver.Build(model.LevelDistrict, []model.Row{
		{Province: "Chiang Mai", District: "อำเภอ Mae Rim", Percentage: 90},
	}, opts)
	if err != nil {
		t.Fatalf("building district lookup: %v", err)
	}

	ds, err := New(resolver.New(prov, dist), testStyle, 16,
		Layer{Level: model.LevelProvince, Regions: pRecs, Lookup: pLk},
		Layer{Level: model.LevelDistrict, Regions: dRecs, Lookup: dLk},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ds
}

func viridis(t *testing.T) colormap.Colormap {
	t.Helper()
	cm, err := colormap.Lookup("viridis")
	if err != nil {
		t.Fatalf("colormap: %v", err)
	}
	return cm
}

func TestRenderProvinces(t *testing.T) {
	ds := testDataset(t)
	out, err := ds.Render(model.LevelProvince, model.Filter{Province: model.All}, viridis(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Found != 1 || out.NoData != 1 {
		t.Errorf("expected 1 found and 1 no-data, got %d and %d", out.Found, out.NoData)
	}
	if len(out.Features.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(out.Features.Features))
	}

	cm := out.Features.Features[0].Properties
	if cm["label"] != "ChiangMai: 82.5%" || cm["found"] != true || cm["percentage"] != 82.5 {
		t.Errorf("unexpected Chiang Mai properties %v", cm)
	}
	if cm["fill"] != resolver.Colorize(82.5, viridis(t)).Hex() {
		t.Errorf("unexpected fill %v", cm["fill"])
	}

	lp := out.Features.Features[1].Properties
	if lp["label"] != "Lamphun: N/A" || lp["fill"] != "#808080" {
		t.Errorf("unexpected Lamphun properties %v", lp)
	}
	if _, ok := lp["percentage"]; ok {
		t.Error("no-data feature must not carry a percentage")
	}
}

func TestRenderFilter(t *testing.T) {
	ds := testDataset(t)

	out, err := ds.Render(model.LevelDistrict, model.Filter{Province: "จังหวัดเชียงใหม่ "}, viridis(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Features.Features) != 0 {
		t.Errorf("without native names a Thai-script filter matches nothing, got %d features", len(out.Features.Features))
	}

	out, err = ds.Render(model.LevelDistrict, model.Filter{Province: "Chiang Mai", District: "Mae Rim"}, viridis(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Features.Features) != 1 || out.Found != 1 {
		t.Fatalf("expected Mae Rim only, got %d features", len(out.Features.Features))
	}
	if got := out.Features.Features[0].Properties["label"]; got != "MaeRim: 90%" {
		t.Errorf("unexpected label %v", got)
	}

	out, err = ds.Render(model.LevelDistrict, model.Filter{Province: "ChiangMai", District: model.All}, viridis(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Features.Features) != 2 || out.Found != 1 || out.NoData != 1 {
		t.Errorf("expected both Chiang Mai districts, got %d (%d found)", len(out.Features.Features), out.Found)
	}
}

func TestRenderUnknownLevel(t *testing.T) {
	ds := testDataset(t)
	if _, err := ds.Render("subdistrict", model.Filter{}, viridis(t)); err == nil {
		t.Fatal("expected error for unloaded level")
	}
}

func TestRenderMarshalsGeoJSON(t *testing.T) {
	ds := testDataset(t)
	out, err := ds.Render(model.LevelProvince, model.Filter{}, viridis(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := json.Marshal(out.Features)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != "FeatureCollection" || len(decoded.Features) != 2 {
		t.Errorf("unexpected GeoJSON %s", data)
	}
}

func TestResolve(t *testing.T) {
	ds := testDataset(t)

	res, err := ds.Resolve(model.LevelProvince, "จังหวัด Chiang Mai", "", viridis(t))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Label != "ChiangMai: 82.5%" || res.Color.IsNoData() {
		t.Errorf("unexpected province result %+v", res)
	}

	res, err = ds.Resolve(model.LevelDistrict, "Lamphun", "Pa Sang", viridis(t))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Found || !res.Color.IsNoData() || res.Label != "PaSang: N/A" {
		t.Errorf("district miss must be NoData, got %+v", res)
	}
}

func TestDropdowns(t *testing.T) {
	ds := testDataset(t)
	if got := ds.Provinces(); len(got) != 2 || got[0] != "Chiang Mai" || got[1] != "Lamphun" {
		t.Errorf("unexpected provinces %q", got)
	}
	if got := ds.Districts("Chiang Mai"); len(got) != 2 || got[0] != "Mae Rim" {
		t.Errorf("unexpected districts %q", got)
	}
	if got := ds.Districts(model.All); len(got) != 3 {
		t.Errorf("expected all 3 districts, got %q", got)
	}
	if got := ds.Districts("Nowhere"); len(got) != 0 {
		t.Errorf("expected no districts, got %q", got)
	}
}

func TestInspect(t *testing.T) {
	ds := testDataset(t)
	var hits int
	ds.ObserveCache(func(_ model.Level, hit bool) {
		if hit {
			hits++
		}
	})

	in, err := ds.Inspect(model.LevelDistrict, 18.5, 98.2, viridis(t))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !in.Found || in.District != "Mae Rim" || in.Percentage == nil || *in.Percentage != 90 {
		t.Errorf("unexpected inspection %+v", in)
	}

	in, err = ds.Inspect(model.LevelDistrict, 18.5, 98.7, viridis(t))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !in.Found || in.Label != "MaeTaeng: N/A" || in.Percentage != nil || in.Fill != "#808080" {
		t.Errorf("unexpected no-data inspection %+v", in)
	}

	in, _ = ds.Inspect(model.LevelProvince, 13.7, 100.5, viridis(t))
	if in.Found {
		t.Errorf("expected nothing at Bangkok, got %+v", in)
	}

	_, _ = ds.Inspect(model.LevelDistrict, 18.5, 98.2, viridis(t))
	if hits != 1 {
		t.Errorf("expected one cache hit, got %d", hits)
	}
}

func TestCoverage(t *testing.T) {
	ds := testDataset(t)
	cov := ds.Coverage()
	if len(cov) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(cov))
	}

	p := cov[0]
	if p.Level != model.LevelProvince || p.Regions != 2 || p.Matched != 1 || p.TableRows != 2 {
		t.Errorf("unexpected province coverage %+v", p)
	}
	if len(p.Unmatched) != 1 || p.Unmatched[0] != "Lamphun" {
		t.Errorf("unexpected unmatched %q", p.Unmatched)
	}
	if len(p.OrphanedKeys) != 1 || p.OrphanedKeys[0] != "Phuket" {
		t.Errorf("unexpected orphans %q", p.OrphanedKeys)
	}

	d := cov[1]
	if d.Matched != 1 || len(d.Unmatched) != 2 || d.Unmatched[0] != "Chiang Mai/Mae Taeng" {
		t.Errorf("unexpected district coverage %+v", d)
	}
}

func TestBounds(t *testing.T) {
	ds := testDataset(t)
	b, err := ds.Bounds(model.LevelProvince)
	if err != nil {
		t.Fatalf("Bounds: %v", err)
	}
	if b.Min(0) != 98 || b.Max(0) != 100 || b.Min(1) != 18 || b.Max(1) != 19 {
		t.Errorf("unexpected bounds %v %v", b.Min(0), b.Max(0))
	}
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Geometry.Provinces = write(t, dir, "prov.json", provincesJSON)
	cfg.Geometry.Districts = ""
	cfg.Tables.Provinces.Path = write(t, dir, "prov.csv", "province,percentage\nChiang Mai,82.5\nLamphun,61\nLamphun,62\n")

	ds, err := Load(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if levels := ds.Levels(); len(levels) != 1 || levels[0] != model.LevelProvince {
		t.Errorf("expected only the province level, got %v", levels)
	}
	cov := ds.Coverage()
	if cov[0].Matched != 2 || cov[0].DuplicateKeys != 1 {
		t.Errorf("unexpected coverage %+v", cov[0])
	}

	in, err := ds.Inspect(model.LevelProvince, 18.5, 99.5, viridis(t))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if in.Percentage == nil || *in.Percentage != 62 {
		t.Errorf("expected the last duplicate to win, got %+v", in)
	}
}

func TestLoadDuplicateError(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Geometry.Provinces = write(t, dir, "prov.json", provincesJSON)
	cfg.Geometry.Districts = ""
	cfg.Tables.Provinces.Path = write(t, dir, "prov.csv", "province,percentage\nLamphun,61\nLamphun,62\n")
	cfg.Normalize.Duplicates = "error"

	if _, err := Load(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestLoadRequiresProvinceGeometry(t *testing.T) {
	cfg := config.Defaults()
	cfg.Geometry.Provinces = ""
	if _, err := Load(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error without province geometry")
	}
}

const nativeProvincesJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"NAME_1":"Chiang Mai","NL_NAME_1":"เชียงใหม่"},
  "geometry":{"type":"Polygon","coordinates":[[[98,18],[99,18],[99,19],[98,19],[98,18]]]}},
 {"type":"Feature","properties":{"NAME_1":"Lamphun","NL_NAME_1":"ลำพูน"},
  "geometry":{"type":"Polygon","coordinates":[[[99,18],[100,18],[100,19],[99,19],[99,18]]]}}
]}`

func TestLoadNativeNames(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "prov.json", nativeProvincesJSON)
	write(t, dir, "prov.csv", "province,percentage\nเชียงใหม่,82.5\nจังหวัดลำพูน,61\n")

	cfg := config.Defaults()
	cfg.Data.Dir = dir
	cfg.Geometry.Provinces = "prov.json"
	cfg.Geometry.Districts = ""
	cfg.Tables.Provinces.Path = "prov.csv"

	ds, err := Load(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	res, err := ds.Resolve(model.LevelProvince, "เชียงใหม่", "", viridis(t))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Found || res.Label != "ChiangMai: 82.5%" {
		t.Errorf("expected the Thai name to join, got %+v", res)
	}
	if cov := ds.Coverage(); cov[0].Matched != 2 || len(cov[0].OrphanedKeys) != 0 {
		t.Errorf("unexpected coverage %+v", cov[0])
	}

	out, err := ds.Render(model.LevelProvince, model.Filter{Province: "ลำพูน"}, viridis(t))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out.Features.Features) != 1 || out.Found != 1 {
		t.Errorf("expected the Thai filter to select Lamphun, got %d features", len(out.Features.Features))
	}

	cfg.Geometry.NativeAliases = false
	ds, err = Load(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res, _ := ds.Resolve(model.LevelProvince, "เชียงใหม่", "", viridis(t)); res.Found {
		t.Errorf("expected no join with native aliases disabled, got %+v", res)
	}
}

func TestNativeAliasesSkipAmbiguous(t *testing.T) {
	prov, _ := normalize.Preset("thai-province")
	recs := []model.RegionRecord{
		{Level: model.LevelDistrict, Province: "Chiang Mai", District: "Mueang", NativeDistrict: "เมือง"},
		{Level: model.LevelDistrict, Province: "Lamphun", District: "Mueang Lamphun", NativeDistrict: "เมือง|เมืองลำพูน"},
		{Level: model.LevelDistrict, Province: "Lamphun", District: "Pa Sang", NativeDistrict: "ป่าซาง"},
		{Level: model.LevelDistrict, Province: "Lamphun", District: "Ban Hong", NativeDistrict: "Ban Hong"},
	}
	rules := nativeAliases(recs, prov, nativeDistrict, district, zerolog.Nop())

	got := make(map[string]string)
	for _, r := range rules {
		got[r.Value] = r.To
	}
	if len(got) != 2 || got["ป่าซาง"] != "PaSang" || got["เมืองลำพูน"] != "MueangLamphun" {
		t.Errorf("unexpected aliases %v", got)
	}
}
