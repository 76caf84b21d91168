package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

func init() {
	Register(&bfsVotesAdapter{})
}

type bfsVotesAdapter struct{}

func (a *bfsVotesAdapter) ID() string    { return "bfs-votes-ch" }
func (a *bfsVotesAdapter) Asset() string { return "volksabstimmungen.px" }
func (a *bfsVotesAdapter) Description() string {
	return "BFS Eidgenössische Volksabstimmungen, PC-Axis cube"
}
func (a *bfsVotesAdapter) DefaultURL() string {
	return "https://dam-api.bfs.admin.ch/hub/api/dam/assets/34787122/master"
}
func (a *bfsVotesAdapter) License() string { return "OPEN-BY-ASK" }

func (a *bfsVotesAdapter) Import(ctx context.Context, sourceURL, dataDir string) error {
	if err := ensureDir(dataDir); err != nil {
		return err
	}
	dest := filepath.Join(dataDir, a.Asset())
	slog.Info("importer: downloading", "adapter", a.ID(), "url", sourceURL)
	if err := downloadFile(ctx, sourceURL, dest); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	return nil
}
