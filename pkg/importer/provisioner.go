package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/votemap/pkg/metrics"
)

// ErrMissingAssets is returned when required input files are absent and
// could not be provisioned.
var ErrMissingAssets = errors.New("required input files missing")

// Provisioner makes sure every adapter's asset exists under a data directory.
type Provisioner struct {
	dataDir  string
	adapters []Adapter
	sources  *SourceDB
	urls     map[string]string
	logger   *slog.Logger
}

// NewProvisioner returns a provisioner for the given adapters. When adapters
// is empty the global registry is used.
func NewProvisioner(dataDir string, adapters ...Adapter) *Provisioner {
	if len(adapters) == 0 {
		adapters = All()
	}
	return &Provisioner{
		dataDir:  dataDir,
		adapters: adapters,
		urls:     map[string]string{},
		logger:   slog.Default(),
	}
}

// WithSources attaches a source registry for URL overrides and download records.
func (p *Provisioner) WithSources(s *SourceDB) *Provisioner {
	p.sources = s
	return p
}

// WithURLs sets per-adapter URL overrides. They take precedence over the registry.
func (p *Provisioner) WithURLs(urls map[string]string) *Provisioner {
	for id, u := range urls {
		if u != "" {
			p.urls[id] = u
		}
	}
	return p
}

// WithLogger replaces the default logger.
func (p *Provisioner) WithLogger(l *slog.Logger) *Provisioner {
	p.logger = l
	return p
}

// Path returns the absolute location of an adapter's asset.
func (p *Provisioner) Path(a Adapter) string {
	return filepath.Join(p.dataDir, a.Asset())
}

// Missing returns the asset paths that do not exist yet.
func (p *Provisioner) Missing() []string {
	var missing []string
	for _, a := range p.adapters {
		if _, err := os.Stat(p.Path(a)); err != nil {
			missing = append(missing, p.Path(a))
		}
	}
	return missing
}

// URL resolves the source URL for an adapter: explicit override, then the
// source registry, then the adapter default.
func (p *Provisioner) URL(a Adapter) string {
	if u, ok := p.urls[a.ID()]; ok {
		return u
	}
	if p.sources != nil {
		if u, err := p.sources.GetURL(a.ID()); err == nil && u != "" {
			return u
		}
	}
	return a.DefaultURL()
}

// Ensure downloads every missing asset when download is true. Download
// failures are logged and recorded; the call only fails when assets are
// still missing afterwards.
func (p *Provisioner) Ensure(ctx context.Context, download bool) error {
	if download {
		for _, a := range p.adapters {
			if _, err := os.Stat(p.Path(a)); err == nil {
				continue
			}
			p.fetch(ctx, a)
		}
	}

	if missing := p.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingAssets, strings.Join(missing, ", "))
	}
	return nil
}

// Fetch downloads one adapter's asset regardless of whether it exists.
func (p *Provisioner) Fetch(ctx context.Context, id string) error {
	for _, a := range p.adapters {
		if a.ID() == id {
			return p.fetch(ctx, a)
		}
	}
	return fmt.Errorf("unknown import source: %q", id)
}

func (p *Provisioner) fetch(ctx context.Context, a Adapter) error {
	url := p.URL(a)
	err := a.Import(ctx, url, p.dataDir)

	status := "ok"
	if err != nil {
		status = "error"
		p.logger.Error("download failed", "adapter", a.ID(), "url", url, "error", err)
	} else {
		p.logger.Info("asset ready", "adapter", a.ID(), "path", p.Path(a))
	}
	metrics.Downloads.WithLabelValues(a.ID(), status).Inc()

	if p.sources != nil {
		if recErr := p.sources.RecordDownload(a.ID(), err); recErr != nil {
			p.logger.Warn("record download", "adapter", a.ID(), "error", recErr)
		}
	}
	return err
}
