// Package atlas wires table parsing, name reconciliation, aggregation and
// boundaries into per-title results shared by the command line, the HTTP
// server and the desktop explorer.
package atlas

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/votemap/pkg/export"
	"github.com/hazyhaar/votemap/pkg/pxfile"
	"github.com/hazyhaar/votemap/pkg/region"
	"github.com/hazyhaar/votemap/pkg/tally"
)

// Config gathers every path, URL and vocabulary constant of the pipeline.
// Relative file names are resolved against DataDir.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	VotesFile      string `yaml:"votes_file"`
	BoundariesFile string `yaml:"boundaries_file"`
	NameField      string `yaml:"name_field"`
	SourcesDB      string `yaml:"sources_db"`
	// URLs overrides the download location per importer adapter ID.
	URLs     map[string]string `yaml:"urls"`
	Download bool              `yaml:"download"`

	Columns   pxfile.Columns `yaml:"columns"`
	Encodings []string       `yaml:"encodings"`
	Cache     bool           `yaml:"cache"`

	AliasFile   string       `yaml:"alias_file"`
	FuzzyCutoff float64      `yaml:"fuzzy_cutoff"`
	Tally       tally.Config `yaml:"tally"`

	GeoJSONPath string `yaml:"geojson_path"`
	PNGPath     string `yaml:"png_path"`

	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the settings for the federal vote statistics and
// the swisstopo canton boundaries.
func DefaultConfig() Config {
	return Config{
		DataDir:        "Data",
		VotesFile:      "volksabstimmungen.px",
		BoundariesFile: filepath.Join("swissBOUNDARIES3D", "swissBOUNDARIES3D_1_5_TLM_KANTONSGEBIET.shp"),
		NameField:      "NAME",
		SourcesDB:      "sources.db",
		URLs:           map[string]string{},
		Download:       true,
		Columns:        pxfile.DefaultColumns(),
		Encodings:      pxfile.DefaultEncodings,
		Cache:          true,
		FuzzyCutoff:    region.DefaultCutoff,
		Tally:          tally.DefaultConfig(),
		GeoJSONPath:    export.DefaultPath,
		PNGPath:        "kantone_votes.png",
		Addr:           ":8430",
		LogLevel:       "info",
	}
}

// LoadConfig reads a YAML config over the defaults. A missing file is not
// an error.
func LoadConfig(path string, logger *slog.Logger) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.FuzzyCutoff <= 0 || cfg.FuzzyCutoff > 1 {
		return cfg, fmt.Errorf("config %s: fuzzy_cutoff must be in (0, 1], got %g", path, cfg.FuzzyCutoff)
	}
	return cfg, nil
}

func (c Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// VotesPath is the location of the PC-Axis table.
func (c Config) VotesPath() string { return c.resolve(c.VotesFile) }

// BoundariesPath is the location of the canton shapefile.
func (c Config) BoundariesPath() string { return c.resolve(c.BoundariesFile) }

// SourcesPath is the location of the importer source registry.
func (c Config) SourcesPath() string { return c.resolve(c.SourcesDB) }

// AliasPath is the location of the alias manifest, empty for the built-in table.
func (c Config) AliasPath() string { return c.resolve(c.AliasFile) }

// Level parses LogLevel, defaulting to info.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return l
}
