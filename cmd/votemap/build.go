package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/render"
	"github.com/hazyhaar/votemap/pkg/tally"
)

type BuildCmd struct {
	Title      string `help:"Case-insensitive substring selecting the referendum." short:"t"`
	TitleIndex int    `help:"Position in the sorted title list when no --title is given." default:"0"`
	NoExport   bool   `help:"Skip the GeoJSON export."`
	NoPlot     bool   `help:"Skip the PNG map."`
	NoDownload bool   `help:"Fail instead of downloading missing inputs."`
	Out        string `help:"GeoJSON output path (defaults to geojson_path)." type:"path"`
	PNG        string `name:"png" help:"PNG output path (defaults to png_path)." type:"path"`
}

func (c *BuildCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	if c.NoDownload {
		cfg.Download = false
	}

	var opts []tally.Option
	if g.Debug {
		opts = append(opts, tally.WithDiagnostics(tally.SlogDiagnostics{Logger: logger}))
	}

	ctx, cancel := signalContext()
	defer cancel()
	data, err := atlas.Load(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}

	s := atlas.NewSession(data, logger)
	title, err := s.Select(c.Title, c.TitleIndex)
	if err != nil {
		return err
	}
	res, err := s.Result(title)
	if err != nil {
		return err
	}
	printResult(os.Stdout, res)

	if !c.NoExport {
		path, err := s.ExportGeoJSON(title, c.Out)
		if err != nil {
			return err
		}
		logger.Info("geojson written", "path", path, "features", len(res.Areas))
	}
	if !c.NoPlot {
		path := c.PNG
		if path == "" {
			path = cfg.PNGPath
		}
		if err := writePNG(s, title, path, logger); err != nil {
			return err
		}
	}
	return nil
}

func writePNG(s *atlas.Session, title, path string, logger *slog.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := s.RenderPNG(f, title, render.Options{}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("map written", "path", path)
	return nil
}

func printResult(w io.Writer, r *atlas.Result) {
	fmt.Fprintf(w, "%s\n\n", r.Title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "REGION\tYES\tNO\tTOTAL\tYES %\t")
	for _, row := range r.Rows {
		mark := ""
		if row.Recovered {
			mark = "*"
		}
		pct := "-"
		if row.YesPct.Valid {
			pct = fmt.Sprintf("%.1f", row.YesPct.Float)
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s\t%s\t\n", row.RegionKey, mark, orDash(row.Yes), orDash(row.No), orDash(row.Total), pct)
	}
	tw.Flush()
	if len(r.Recovered) > 0 {
		fmt.Fprintf(w, "\n* rebuilt from district rows: %v\n", r.Recovered)
	}
	if len(r.Gaps) > 0 {
		fmt.Fprintf(w, "no data: %v\n", r.Gaps)
	}
}

func orDash(v tally.Value) string {
	if !v.Valid {
		return "-"
	}
	return v.String()
}

type TitlesCmd struct {
	Query string `arg:"" optional:"" help:"Case-insensitive substring filter."`
}

func (c *TitlesCmd) Run(g *Globals) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	titles, err := atlas.LoadTitles(ctx, cfg, logger)
	if err != nil {
		return err
	}

	match := map[string]bool{}
	for _, t := range tally.Search(titles, c.Query) {
		match[t] = true
	}
	for i, t := range titles {
		if match[t] {
			fmt.Printf("%5d  %s\n", i, t)
		}
	}
	return nil
}
