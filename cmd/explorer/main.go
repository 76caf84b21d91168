// Command explorer is the desktop viewer for referendum results per canton.
package main

import (
	"log/slog"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/hazyhaar/votemap/pkg/atlas"
)

const appID = "ch.hazyhaar.votemap.explorer"

type flags struct {
	Config  string `help:"Path to the YAML config file." default:"config.yaml" env:"VOTEMAP_CONFIG" type:"path"`
	DataDir string `help:"Directory holding the input files (overrides data_dir)." env:"VOTEMAP_DATA_DIR"`
	Debug   bool   `help:"Debug logging." env:"VOTEMAP_DEBUG"`
}

func main() {
	_ = godotenv.Load()

	var f flags
	kong.Parse(&f, kong.Name("explorer"), kong.Description("Browse referendum results per canton."))

	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := atlas.LoadConfig(f.Config, boot)
	if err != nil {
		boot.Error("load config", "error", err)
		os.Exit(1)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	level := cfg.Level()
	if f.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a := fyneapp.NewWithID(appID)
	u := buildUI(a, cfg, logger)
	u.load()
	u.w.ShowAndRun()
}
