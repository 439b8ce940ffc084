package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/intelligrit/choropleth/internal/geometry"
	"github.com/intelligrit/choropleth/internal/normalize"
	"github.com/intelligrit/choropleth/internal/table"
)

// Config holds all user-facing configuration for choropleth.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Geometry  GeometryConfig  `toml:"geometry"`
	Tables    TablesConfig    `toml:"tables"`
	Normalize NormalizeConfig `toml:"normalize"`
	Render    RenderConfig    `toml:"render"`
	Server    ServerConfig    `toml:"server"`
	Fetch     FetchConfig     `toml:"fetch"`
}

// DataConfig names the directory that fetch writes into and that relative
// geometry and table paths are resolved against.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// GeometryConfig points at the GeoJSON boundary files. An empty districts
// path disables the district level. NativeAliases lets table names in the
// local script join through the native name properties.
type GeometryConfig struct {
	Provinces     string `toml:"provinces"`
	Districts     string `toml:"districts"`
	NativeAliases bool   `toml:"native_aliases"`
	geometry.Fields
}

type TablesConfig struct {
	Provinces table.Source `toml:"provinces"`
	Districts table.Source `toml:"districts"`
}

// NormalizeConfig selects a preset per level and optional extra rules
// appended after the preset's own.
type NormalizeConfig struct {
	ProvincePreset string           `toml:"province_preset"`
	DistrictPreset string           `toml:"district_preset"`
	Rules          []normalize.Rule `toml:"rules"`
	Duplicates     string           `toml:"duplicates"`
}

type RenderConfig struct {
	Colormap    string  `toml:"colormap"`
	NoData      string  `toml:"no_data"`
	Stroke      string  `toml:"stroke"`
	StrokeWidth float64 `toml:"stroke_width"`
	Opacity     float64 `toml:"opacity"`
}

type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	CacheSize int    `toml:"cache_size"`
}

type FetchConfig struct {
	RateLimit float64       `toml:"rate_limit"`
	Sources   []FetchSource `toml:"sources"`
}

// FetchSource is one remote file to download into the data directory.
type FetchSource struct {
	URL  string `toml:"url"`
	Dest string `toml:"dest"`
}

// Defaults returns a Config populated with built-in default values. The
// paths follow the GADM 4.1 naming for Thailand.
func Defaults() *Config {
	return &Config{
		Data: DataConfig{Dir: "data"},
		Geometry: GeometryConfig{
			Provinces:     "gadm41_THA_1.json",
			Districts:     "gadm41_THA_2.json",
			NativeAliases: true,
			Fields:        geometry.DefaultFields,
		},
		Tables: TablesConfig{
			Provinces: table.Source{
				Path:             "province_percentages.csv",
				ProvinceColumn:   "province",
				PercentageColumn: "percentage",
			},
			Districts: table.Source{
				Path:             "district_percentages.csv",
				ProvinceColumn:   "province",
				DistrictColumn:   "district",
				PercentageColumn: "percentage",
			},
		},
		Normalize: NormalizeConfig{
			ProvincePreset: "thai-province",
			DistrictPreset: "thai-district",
			Duplicates:     "warn",
		},
		Render: RenderConfig{
			Colormap:    "viridis",
			NoData:      "#808080",
			Stroke:      "#000000",
			StrokeWidth: 1,
			Opacity:     0.5,
		},
		Server: ServerConfig{Host: "localhost", Port: 8080, CacheSize: 4096},
		Fetch:  FetchConfig{RateLimit: 1.0},
	}
}

// Load reads a TOML config file. If the file does not exist, built-in
// defaults are returned without error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides config values from CHOROPLETH_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := map[string]*string{
		"CHOROPLETH_DATA_DIR":          &c.Data.Dir,
		"CHOROPLETH_PROVINCE_GEOMETRY": &c.Geometry.Provinces,
		"CHOROPLETH_DISTRICT_GEOMETRY": &c.Geometry.Districts,
		"CHOROPLETH_PROVINCE_TABLE":    &c.Tables.Provinces.Path,
		"CHOROPLETH_DISTRICT_TABLE":    &c.Tables.Districts.Path,
		"CHOROPLETH_COLORMAP":          &c.Render.Colormap,
		"CHOROPLETH_HOST":              &c.Server.Host,
		"CHOROPLETH_DUPLICATES":        &c.Normalize.Duplicates,
	}
	for k, p := range str {
		if v := getenv(k); v != "" {
			*p = v
		}
	}

	if v := getenv("CHOROPLETH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHOROPLETH_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Path resolves a configured geometry or table path. Relative paths are
// taken inside the data directory; absolute paths and empty values are
// returned unchanged.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Data.Dir, p)
}

// Policies builds the province and district normalization policies.
func (c *Config) Policies() (province, district *normalize.Policy, err error) {
	province, err = c.policy(c.Normalize.ProvincePreset)
	if err != nil {
		return nil, nil, fmt.Errorf("province normalization: %w", err)
	}
	district, err = c.policy(c.Normalize.DistrictPreset)
	if err != nil {
		return nil, nil, fmt.Errorf("district normalization: %w", err)
	}
	return province, district, nil
}

func (c *Config) policy(preset string) (*normalize.Policy, error) {
	if preset == "" {
		preset = "none"
	}
	p, err := normalize.Preset(preset)
	if err != nil {
		return nil, err
	}
	if len(c.Normalize.Rules) == 0 {
		return p, nil
	}
	return p.With(c.Normalize.Rules...)
}
