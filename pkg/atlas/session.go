package atlas

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hazyhaar/votemap/pkg/export"
	"github.com/hazyhaar/votemap/pkg/metrics"
	"github.com/hazyhaar/votemap/pkg/render"
	"github.com/hazyhaar/votemap/pkg/tally"
)

// Session memoises per-title results on top of loaded Data. Entries are
// never evicted; Refresh rebuilds one title.
type Session struct {
	data   *Data
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Result
}

// NewSession returns an empty session over data.
func NewSession(data *Data, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{data: data, logger: logger, cache: make(map[string]*Result)}
}

// Data returns the loaded inputs.
func (s *Session) Data() *Data { return s.data }

// Titles returns all titles in sorted order.
func (s *Session) Titles() []string { return s.data.Titles }

// Search returns the titles containing q, case-insensitively.
func (s *Session) Search(q string) []string { return tally.Search(s.data.Titles, q) }

// Select picks a title by substring filter or by index.
func (s *Session) Select(filter string, index int) (string, error) {
	return tally.SelectTitle(s.data.Titles, filter, index)
}

// Cached reports whether title has a memoised result.
func (s *Session) Cached(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[title]
	return ok
}

// Result returns the memoised result of title, building it on first use.
func (s *Session) Result(title string) (*Result, error) {
	s.mu.RLock()
	r, ok := s.cache[title]
	s.mu.RUnlock()
	if ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return r, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	return s.build(title)
}

// Refresh rebuilds title and replaces its memoised result. The previous
// result is dropped even when the rebuild fails.
func (s *Session) Refresh(title string) (*Result, error) {
	s.mu.Lock()
	delete(s.cache, title)
	s.mu.Unlock()
	return s.store(title, true)
}

// Purge drops every memoised result.
func (s *Session) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cache)
	s.cache = make(map[string]*Result)
	return n
}

func (s *Session) build(title string) (*Result, error) {
	return s.store(title, false)
}

func (s *Session) store(title string, replace bool) (*Result, error) {
	r, err := s.data.Build(title)
	if err != nil {
		return nil, err
	}
	if len(r.Gaps) > 0 {
		s.logger.Warn("regions without data", "title", title, "gaps", r.Gaps)
	}
	s.logger.Info("title built", "title", title, "regions", len(r.Rows), "recovered", len(r.Recovered))

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.cache[title]; ok && !replace {
		return prev, nil
	}
	s.cache[title] = r
	return r, nil
}

// ExportGeoJSON writes the result of title to path, or to the configured
// default when path is empty. It returns the path written.
func (s *Session) ExportGeoJSON(title, path string) (string, error) {
	r, err := s.Result(title)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = s.data.Config.GeoJSONPath
	}
	if err := export.WriteFile(path, r.Areas); err != nil {
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	return path, nil
}

// WriteGeoJSON streams the result of title as a FeatureCollection.
func (s *Session) WriteGeoJSON(w io.Writer, title string) error {
	r, err := s.Result(title)
	if err != nil {
		return err
	}
	return export.Write(w, r.Areas)
}

// RenderPNG draws the choropleth of title.
func (s *Session) RenderPNG(w io.Writer, title string, opts render.Options) error {
	r, err := s.Result(title)
	if err != nil {
		return err
	}
	if opts.Title == "" {
		opts.Title = title
	}
	return render.WritePNG(w, r.Areas, opts)
}
