package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/importer"
)

// openSources opens the source registry under the data dir and seeds the
// built-in adapters.
func openSources(cfg atlas.Config) (*importer.SourceDB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	sdb, err := importer.OpenSourceDB(cfg.SourcesPath())
	if err != nil {
		return nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

type FetchCmd struct {
	Source []string `arg:"" optional:"" help:"Adapter IDs to download (default: every missing input)."`
	Force  bool     `help:"Download even when the file already exists."`
}

func (c *FetchCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	sdb, err := openSources(cfg)
	if err != nil {
		return err
	}
	defer sdb.Close()

	ctx, cancel := signalContext()
	defer cancel()
	p := importer.NewProvisioner(cfg.DataDir).WithSources(sdb).WithURLs(cfg.URLs).WithLogger(logger)

	ids := c.Source
	if len(ids) == 0 && !c.Force {
		return p.Ensure(ctx, true)
	}
	if len(ids) == 0 {
		for _, a := range importer.All() {
			ids = append(ids, a.ID())
		}
	}
	var failed int
	for _, id := range ids {
		if err := p.Fetch(ctx, id); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}

type SourcesCmd struct {
	List   SourcesListCmd   `cmd:"" default:"1" help:"Show sources, URLs and last results."`
	SetURL SourcesSetURLCmd `cmd:"" name:"set-url" help:"Override the download URL of a source."`
	Check  SourcesCheckCmd  `cmd:"" help:"Probe every source URL once."`
}

type SourcesListCmd struct{}

func (c *SourcesListCmd) Run(g *Globals) error {
	cfg, _, err := g.setup()
	if err != nil {
		return err
	}
	sdb, err := openSources(cfg)
	if err != nil {
		return err
	}
	defer sdb.Close()

	sources, err := sdb.ListSources()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tASSET\tLICENSE\tCHECK\tDOWNLOAD\tURL")
	for _, src := range sources {
		check := "-"
		if src.LastStatus != nil {
			check = fmt.Sprintf("%d", *src.LastStatus)
		}
		download := "-"
		if src.LastDownload != nil {
			download = time.Unix(*src.LastDownload, 0).Format(time.DateTime)
			if src.DownloadError != nil {
				download += " (failed)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", src.AdapterID, src.Asset, src.License, check, download, src.SourceURL)
	}
	return tw.Flush()
}

type SourcesSetURLCmd struct {
	ID  string `arg:"" help:"Adapter ID."`
	URL string `arg:"" help:"New source URL."`
}

func (c *SourcesSetURLCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	if _, err := importer.Get(c.ID); err != nil {
		return err
	}
	sdb, err := openSources(cfg)
	if err != nil {
		return err
	}
	defer sdb.Close()
	if err := sdb.SetURL(c.ID, c.URL); err != nil {
		return err
	}
	logger.Info("source url updated", "adapter", c.ID, "url", c.URL)
	return nil
}

type SourcesCheckCmd struct{}

func (c *SourcesCheckCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	sdb, err := openSources(cfg)
	if err != nil {
		return err
	}
	defer sdb.Close()

	ctx, cancel := signalContext()
	defer cancel()
	results := importer.NewChecker(sdb, logger, time.Hour).CheckAll(ctx)
	for _, r := range results {
		state := "ok"
		if !r.OK() {
			state = "unreachable"
		}
		fmt.Printf("%-26s %-12s %3d %s\n", r.AdapterID, state, r.Status, r.Err)
	}
	return nil
}
