package atlas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hazyhaar/votemap/pkg/boundary"
	"github.com/hazyhaar/votemap/pkg/importer"
	"github.com/hazyhaar/votemap/pkg/pxfile"
	"github.com/hazyhaar/votemap/pkg/region"
	"github.com/hazyhaar/votemap/pkg/tally"
)

// Data is everything loaded once per process: the parsed table, the
// canonical regions and the builder resolving against them.
type Data struct {
	Config     Config
	Table      *pxfile.Table
	Regions    []boundary.Region
	Reconciler *region.Reconciler
	Builder    *tally.Builder
	Titles     []string
}

// Result is the outcome of one title joined with the boundaries.
type Result struct {
	Title      string                `json:"title"`
	Rows       []tally.RegionMetrics `json:"rows"`
	Areas      []boundary.Area       `json:"-"`
	Gaps       []string              `json:"gaps"`
	Recovered  []string              `json:"recovered,omitempty"`
	Unresolved []string              `json:"unresolved,omitempty"`
	BuiltAt    time.Time             `json:"built_at"`
}

// Provision makes sure the input files exist, downloading them when the
// config allows it. The source registry is used for URL overrides when it
// can be opened.
func Provision(ctx context.Context, cfg Config, logger *slog.Logger) error {
	p := importer.NewProvisioner(cfg.DataDir).WithURLs(cfg.URLs).WithLogger(logger)
	if cfg.Download {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		sources, err := importer.OpenSourceDB(cfg.SourcesPath())
		if err != nil {
			logger.Warn("source registry unavailable", "path", cfg.SourcesPath(), "error", err)
		} else {
			defer sources.Close()
			if err := sources.Seed(importer.All()); err != nil {
				logger.Warn("seed source registry", "error", err)
			}
			p.WithSources(sources)
		}
	}
	err := p.Ensure(ctx, cfg.Download)

	// Explicit file locations outside the data dir are never downloaded.
	var missing []string
	for _, path := range []string{cfg.VotesPath(), cfg.BoundariesPath()} {
		if _, statErr := os.Stat(path); statErr != nil {
			missing = append(missing, path)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %v", importer.ErrMissingAssets, missing)
}

// Load provisions the inputs, parses the table and the boundaries and
// prepares a builder. Builder options such as diagnostics are passed through.
func Load(ctx context.Context, cfg Config, logger *slog.Logger, opts ...tally.Option) (*Data, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := Provision(ctx, cfg, logger); err != nil {
		return nil, err
	}

	table, titles, err := loadTable(cfg)
	if err != nil {
		return nil, err
	}

	regions, err := boundary.Load(cfg.BoundariesPath(), cfg.NameField)
	if err != nil {
		return nil, fmt.Errorf("load boundaries: %w", err)
	}

	aliases, err := region.LoadAliases(cfg.AliasPath())
	if err != nil {
		return nil, err
	}
	rec := region.NewReconciler(boundary.JoinKeys(regions), aliases, cfg.FuzzyCutoff)
	b, err := tally.NewBuilder(rec, cfg.Tally, opts...)
	if err != nil {
		return nil, err
	}

	d := &Data{
		Config:     cfg,
		Table:      table,
		Regions:    regions,
		Reconciler: rec,
		Builder:    b,
		Titles:     titles,
	}
	logger.Info("data loaded", "titles", len(d.Titles), "regions", len(regions), "encoding", table.Encoding)
	return d, nil
}

// LoadTitles provisions the inputs and returns the sorted titles without
// reading the boundaries.
func LoadTitles(ctx context.Context, cfg Config, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := Provision(ctx, cfg, logger); err != nil {
		return nil, err
	}
	_, titles, err := loadTable(cfg)
	return titles, err
}

func loadTable(cfg Config) (*pxfile.Table, []string, error) {
	table, err := pxfile.Load(cfg.VotesPath(), pxfile.Options{
		Encodings: cfg.Encodings,
		Columns:   cfg.Columns,
		Cache:     cfg.Cache,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load votes: %w", err)
	}
	raw, err := table.Titles(cfg.Columns)
	if err != nil {
		return nil, nil, fmt.Errorf("load votes: %w", err)
	}
	titles := tally.Titles(raw)
	if len(titles) == 0 {
		return nil, nil, tally.ErrNoTitles
	}
	return table, titles, nil
}

// Build runs the pipeline for one title.
func (d *Data) Build(title string) (*Result, error) {
	obs, err := d.Table.Observations(d.Config.Columns, title)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, fmt.Errorf("%w: %q", tally.ErrNoTitleMatch, title)
	}
	out, err := d.Builder.Build(title, obs)
	if err != nil {
		return nil, err
	}
	return &Result{
		Title:      title,
		Rows:       out.Rows,
		Areas:      boundary.Join(d.Regions, out.Rows),
		Gaps:       out.Gaps,
		Recovered:  out.Recovered,
		Unresolved: out.Unresolved,
		BuiltAt:    time.Now().UTC(),
	}, nil
}

// IsUserError reports whether err stems from a bad title selection rather
// than from the data or the environment.
func IsUserError(err error) bool {
	return errors.Is(err, tally.ErrNoTitleMatch) ||
		errors.Is(err, tally.ErrTitleIndex) ||
		errors.Is(err, tally.ErrNoTitles)
}
