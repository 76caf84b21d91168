package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

func init() {
	Register(&swisstopoBoundariesAdapter{})
}

type swisstopoBoundariesAdapter struct{}

const boundariesDir = "swissBOUNDARIES3D"

func (a *swisstopoBoundariesAdapter) ID() string { return "swisstopo-boundaries-ch" }
func (a *swisstopoBoundariesAdapter) Asset() string {
	return filepath.Join(boundariesDir, "swissBOUNDARIES3D_1_5_TLM_KANTONSGEBIET.shp")
}
func (a *swisstopoBoundariesAdapter) Description() string {
	return "swisstopo swissBOUNDARIES3D canton polygons (LV95 shapefile)"
}
func (a *swisstopoBoundariesAdapter) DefaultURL() string {
	return "https://data.geo.admin.ch/ch.swisstopo.swissboundaries3d/swissboundaries3d_2025-04/swissboundaries3d_2025-04_2056_5728.shp.zip"
}
func (a *swisstopoBoundariesAdapter) License() string { return "OGD swisstopo" }

func (a *swisstopoBoundariesAdapter) Import(ctx context.Context, sourceURL, dataDir string) error {
	dlDir := filepath.Join(dataDir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return err
	}
	defer os.RemoveAll(dlDir)

	zipPath := filepath.Join(dlDir, "boundaries.shp.zip")
	slog.Info("importer: downloading", "adapter", a.ID(), "url", sourceURL)
	if err := downloadFile(ctx, sourceURL, zipPath); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	destDir := filepath.Join(dataDir, boundariesDir)
	if err := ensureDir(destDir); err != nil {
		return err
	}
	written, err := unzipFile(zipPath, destDir)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	slog.Info("importer: extracted", "adapter", a.ID(), "files", len(written), "dir", destDir)
	return nil
}
