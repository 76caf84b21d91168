package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/hazyhaar/votemap/pkg/atlas"
	"github.com/hazyhaar/votemap/pkg/tally"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("votemap"), kong.Exit(func(int) { t.Fatalf("exit while parsing %q", args) }))
	if err != nil {
		t.Fatal(err)
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("parse %q: %v", args, err)
	}
	return &cli, kctx
}

func TestCLIParse(t *testing.T) {
	cli, kctx := parse(t, "build", "--title", "covid", "--no-plot", "--debug", "--data-dir", "/tmp/votes")
	if kctx.Command() != "build" {
		t.Errorf("command = %q", kctx.Command())
	}
	if cli.Build.Title != "covid" || !cli.Build.NoPlot || !cli.Debug || cli.DataDir != "/tmp/votes" {
		t.Errorf("flags = %+v %+v", cli.Globals, cli.Build)
	}

	_, kctx = parse(t)
	if kctx.Command() != "build" {
		t.Errorf("default command = %q, want build", kctx.Command())
	}

	cli, kctx = parse(t, "sources", "set-url", "bfs-votes-ch", "https://mirror.example/v.px")
	if kctx.Command() != "sources set-url <id> <url>" || cli.Sources.SetURL.URL != "https://mirror.example/v.px" {
		t.Errorf("set-url = %q %+v", kctx.Command(), cli.Sources.SetURL)
	}

	cli, _ = parse(t, "serve", "--tls", "--check-interval", "1h")
	if !cli.Serve.TLS || cli.Serve.CheckInterval.Hours() != 1 {
		t.Errorf("serve = %+v", cli.Serve)
	}
}

func TestPrintResult(t *testing.T) {
	r := &atlas.Result{
		Title: "2020-09-27 Jagdgesetz",
		Rows: []tally.RegionMetrics{
			{RegionKey: "BERN", Yes: tally.Some(300), No: tally.Some(100), Total: tally.Some(400), YesPct: tally.Some(75)},
			{RegionKey: "ZUG", Yes: tally.Some(150), No: tally.Absent, Total: tally.Some(150), YesPct: tally.Some(100), Recovered: true},
		},
		Recovered: []string{"ZUG"},
		Gaps:      []string{"URI"},
	}
	var buf bytes.Buffer
	printResult(&buf, r)
	out := buf.String()
	for _, want := range []string{"Jagdgesetz", "75.0", "ZUG*", "[ZUG]", "no data: [URI]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
