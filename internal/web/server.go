package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/intelligrit/choropleth/internal/dataset"
	"github.com/intelligrit/choropleth/internal/model"
)

//go:embed all:static
var staticFS embed.FS

// Server serves the interactive map web app and API.
type Server struct {
	Dataset *dataset.Dataset
	Addr    string
	Logger  zerolog.Logger

	// Colormap is used when a request does not name one.
	Colormap string

	metrics *serverMetrics
}

type levelCounters struct {
	found, noData           *metrics.Counter
	inspectHit, inspectMiss *metrics.Counter
	cacheHit, cacheMiss     *metrics.Counter
}

type serverMetrics struct {
	set    *metrics.Set
	levels map[model.Level]*levelCounters
}

func newServerMetrics() *serverMetrics {
	m := &serverMetrics{set: metrics.NewSet(), levels: make(map[model.Level]*levelCounters)}
	for _, l := range model.Levels {
		m.levels[l] = &levelCounters{
			found:       m.set.NewCounter(`choropleth_regions_total{level="` + string(l) + `",result="found"}`),
			noData:      m.set.NewCounter(`choropleth_regions_total{level="` + string(l) + `",result="nodata"}`),
			inspectHit:  m.set.NewCounter(`choropleth_inspect_total{level="` + string(l) + `",result="found"}`),
			inspectMiss: m.set.NewCounter(`choropleth_inspect_total{level="` + string(l) + `",result="outside"}`),
			cacheHit:    m.set.NewCounter(`choropleth_inspect_cache_total{level="` + string(l) + `",result="hit"}`),
			cacheMiss:   m.set.NewCounter(`choropleth_inspect_cache_total{level="` + string(l) + `",result="miss"}`),
		}
	}
	return m
}

// NewServer wires a server to ds. ds must not be in use elsewhere yet, since
// its inspect caches are hooked to the server's metrics.
func NewServer(ds *dataset.Dataset, addr, colormap string, logger zerolog.Logger) *Server {
	s := &Server{Dataset: ds, Addr: addr, Colormap: colormap, Logger: logger, metrics: newServerMetrics()}
	ds.ObserveCache(func(level model.Level, hit bool) {
		c := s.metrics.levels[level]
		if c == nil {
			return
		}
		if hit {
			c.cacheHit.Inc()
		} else {
			c.cacheMiss.Inc()
		}
	})
	return s
}

// Handler returns the full HTTP handler, including request logging.
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/levels", s.handleLevels)
	mux.HandleFunc("/api/provinces", s.handleProvinces)
	mux.HandleFunc("/api/districts", s.handleDistricts)
	mux.HandleFunc("/api/colormaps", s.handleColormaps)
	mux.HandleFunc("/api/regions", s.handleRegions)
	mux.HandleFunc("/api/bounds", s.handleBounds)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/coverage", s.handleCoverage)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Static files
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating sub filesystem: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticSub)))

	var h http.Handler = mux
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		e := hlog.FromRequest(r).Debug()
		if status >= 500 {
			e = hlog.FromRequest(r).Error()
		}
		e.
			Str("request_method", r.Method).
			Stringer("request_uri", r.URL).
			Int("response_status", status).
			Int("response_size", size).
			Dur("response_duration", duration).
			Msg("handle request")
	})(h)
	h = hlog.RequestIDHandler("rid", "X-Request-Id")(h)
	h = hlog.NewHandler(s.Logger.With().Str("component", "web").Logger())(h)
	return h, nil
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{Addr: s.Addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	fmt.Printf("Serving at http://%s\n", s.Addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
