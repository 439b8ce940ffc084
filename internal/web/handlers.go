package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog/hlog"

	"github.com/intelligrit/choropleth/internal/colormap"
	"github.com/intelligrit/choropleth/internal/model"
)

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Dataset.Levels())
}

func (s *Server) handleProvinces(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Dataset.Provinces())
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Dataset.Districts(r.URL.Query().Get("province")))
}

type colormapInfo struct {
	Name    string   `json:"name"`
	Stops   []string `json:"stops"`
	Default bool     `json:"default,omitempty"`
}

func (s *Server) handleColormaps(w http.ResponseWriter, r *http.Request) {
	def := s.Colormap
	if def == "" {
		def = colormap.Default
	}
	var out []colormapInfo
	for _, name := range colormap.Names() {
		g, err := colormap.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, colormapInfo{Name: name, Stops: g.Stops(), Default: name == def})
	}
	writeJSON(w, out)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level, ok := s.level(w, q.Get("level"))
	if !ok {
		return
	}
	cm, ok := s.colormap(w, q.Get("colormap"))
	if !ok {
		return
	}

	out, err := s.Dataset.Render(level, model.Filter{Province: q.Get("province"), District: q.Get("district")}, cm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if c := s.metrics.levels[level]; c != nil {
		c.found.Add(out.Found)
		c.noData.Add(out.NoData)
	}
	hlog.FromRequest(r).Debug().
		Str("level", string(level)).
		Int("found", out.Found).
		Int("no_data", out.NoData).
		Msg("rendered regions")

	w.Header().Set("X-Regions-Found", strconv.Itoa(out.Found))
	w.Header().Set("X-Regions-No-Data", strconv.Itoa(out.NoData))
	writeJSON(w, out.Features)
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	level, ok := s.level(w, r.URL.Query().Get("level"))
	if !ok {
		return
	}
	b, err := s.Dataset.Bounds(level)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if b.IsEmpty() {
		writeJSON(w, []float64{})
		return
	}
	// Leaflet order: [[south, west], [north, east]]
	writeJSON(w, [][2]float64{{b.Min(1), b.Min(0)}, {b.Max(1), b.Max(0)}})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level, ok := s.level(w, q.Get("level"))
	if !ok {
		return
	}
	cm, ok := s.colormap(w, q.Get("colormap"))
	if !ok {
		return
	}

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		http.Error(w, "invalid 'lat' parameter", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		http.Error(w, "invalid 'lon' parameter", http.StatusBadRequest)
		return
	}

	in, err := s.Dataset.Inspect(level, lat, lon, cm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c := s.metrics.levels[level]; c != nil {
		if in.Found {
			c.inspectHit.Inc()
		} else {
			c.inspectMiss.Inc()
		}
	}
	writeJSON(w, in)
}

type coverageResponse struct {
	Levels   []model.Coverage `json:"levels"`
	Province string           `json:"province_policy"`
	District string           `json:"district_policy"`
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, coverageResponse{
		Levels:   s.Dataset.Coverage(),
		Province: s.Dataset.Resolver.Province.Name(),
		District: s.Dataset.Resolver.District.Name(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	s.metrics.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

func (s *Server) level(w http.ResponseWriter, v string) (model.Level, bool) {
	level, ok := model.ParseLevel(v)
	if !ok {
		http.Error(w, "invalid 'level' parameter", http.StatusBadRequest)
	}
	return level, ok
}

func (s *Server) colormap(w http.ResponseWriter, name string) (colormap.Colormap, bool) {
	if name == "" {
		name = s.Colormap
	}
	cm, err := colormap.Lookup(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return cm, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	// Wildcard CORS: this is a local analysis tool, not a public API.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if v == nil {
		_, _ = w.Write([]byte("[]"))
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
