// Command votemap maps federal referendum results onto canton boundaries.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/hazyhaar/votemap/pkg/atlas"
)

// Globals are accepted by every subcommand.
type Globals struct {
	Config  string `help:"Path to the YAML config file." default:"config.yaml" env:"VOTEMAP_CONFIG" type:"path"`
	DataDir string `help:"Directory holding the input files (overrides data_dir)." env:"VOTEMAP_DATA_DIR"`
	Debug   bool   `help:"Debug logging and pipeline diagnostics." env:"VOTEMAP_DEBUG"`
}

type CLI struct {
	Globals

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build the canton results of one referendum and export them."`
	Titles  TitlesCmd  `cmd:"" help:"List referendum titles."`
	Fetch   FetchCmd   `cmd:"" help:"Download the input files."`
	Sources SourcesCmd `cmd:"" help:"Inspect and edit the download sources."`
	Serve   ServeCmd   `cmd:"" help:"Serve results over HTTP and MCP."`
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("votemap"),
		kong.Description("Swiss referendum results per canton."),
		kong.UsageOnError(),
	)
	if err := kctx.Run(&cli.Globals); err != nil {
		slog.Error("votemap failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

// setup loads the config, applies global overrides and installs the logger.
func (g *Globals) setup() (atlas.Config, *slog.Logger, error) {
	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := atlas.LoadConfig(g.Config, boot)
	if err != nil {
		return cfg, boot, err
	}
	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}

	level := cfg.Level()
	if g.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
