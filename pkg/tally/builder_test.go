package tally

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/hazyhaar/votemap/pkg/region"
)

var cantons = []string{
	"AARGAU", "APPENZELL AUSSERRHODEN", "APPENZELL INNERRHODEN", "BASEL-LANDSCHAFT",
	"BASEL-STADT", "BERN", "FRIBOURG", "GENÈVE", "GLARUS", "GRAUBÜNDEN", "JURA",
	"LUZERN", "NEUCHÂTEL", "NIDWALDEN", "OBWALDEN", "SCHAFFHAUSEN", "SCHWYZ",
	"SOLOTHURN", "ST. GALLEN", "THURGAU", "TICINO", "URI", "VALAIS", "VAUD", "ZUG", "ZÜRICH",
}

func raw(area, category, value string) RawObservation {
	return RawObservation{AreaLabel: area, Title: "Vorlage", Category: category, Value: value}
}

func newBuilder(t *testing.T, keys []string, cfg Config, opts ...Option) *Builder {
	t.Helper()
	b, err := NewBuilder(region.NewReconciler(keys, region.DefaultAliases(), 0), cfg, opts...)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestBuild_TwoRegions(t *testing.T) {
	b := newBuilder(t, []string{"A", "B"}, DefaultConfig())
	obs := []RawObservation{
		raw("A", "Ja", "60"), raw("A", "Nein", "40"),
		raw("B", "Ja", "30"), raw("B", "Nein", "10"),
		raw("- A", "Ja", "60"), raw("- A", "Nein", "40"),
		raw("- B", "Ja", "30"), raw("- B", "Nein", "10"),
	}
	out, err := b.Build("Vorlage", obs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []RegionMetrics{
		{RegionKey: "A", Yes: Some(60), No: Some(40), Total: Some(100), YesPct: Some(60)},
		{RegionKey: "B", Yes: Some(30), No: Some(10), Total: Some(40), YesPct: Some(75)},
	}
	if len(out.Rows) != len(want) {
		t.Fatalf("rows = %+v", out.Rows)
	}
	for i, w := range want {
		g := out.Rows[i]
		if g.RegionKey != w.RegionKey || g.Yes != w.Yes || g.No != w.No || g.Total != w.Total || g.YesPct != w.YesPct {
			t.Errorf("row %d = %+v, want %+v", i, g, w)
		}
	}
	if len(out.Gaps) != 0 {
		t.Errorf("gaps = %v", out.Gaps)
	}
}

func TestBuild_RecoversAndReportsGaps(t *testing.T) {
	b := newBuilder(t, cantons, DefaultConfig())
	obs := []RawObservation{
		raw("Zürich", "Ja", "600"), raw("Zürich", "Nein", "400"),
		raw(">> Bezirk Affoltern", "Ja", "300"),
		raw("Genf", "Ja", "70"), raw("Genève / Genf", "Nein", "30"),
		raw("Zug-Stadt", "Ja", "100"), raw("Zug-Stadt", "Ja", "50"),
		raw("Zug-Stadt", "Nein", "25"),
		raw("Zuerich", "Stimmberechtigte", "1'000"),
		raw("Zürich", "Ja", "600"),
		{AreaLabel: "Bern", Title: "Andere Vorlage", Category: "Ja", Value: "1"},
	}
	out, err := b.Build("Vorlage", obs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rows := make(map[string]RegionMetrics)
	for _, r := range out.Rows {
		rows[r.RegionKey] = r
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %+v", out.Rows)
	}
	if z := rows["ZÜRICH"]; z.Yes != Some(600) || z.YesPct != Some(60) || z.Categories["Stimmberechtigte"] != Some(1000) {
		t.Errorf("ZÜRICH = %+v", z)
	}
	if g := rows["GENÈVE"]; g.Total != Some(100) || g.YesPct != Some(70) {
		t.Errorf("GENÈVE = %+v", g)
	}
	zug := rows["ZUG"]
	if zug.Yes != Some(150) || zug.No != Some(25) || !zug.Recovered {
		t.Errorf("ZUG = %+v", zug)
	}
	if _, ok := rows["BERN"]; ok {
		t.Error("row of another title leaked into the outcome")
	}
	if len(out.Recovered) != 1 || out.Recovered[0] != "ZUG" {
		t.Errorf("recovered = %v", out.Recovered)
	}
	if len(out.Gaps) != len(cantons)-3 {
		t.Errorf("gaps = %d, want %d", len(out.Gaps), len(cantons)-3)
	}
	for _, g := range out.Gaps {
		if g == "ZUG" || g == "ZÜRICH" || g == "GENÈVE" {
			t.Errorf("%s reported as gap", g)
		}
	}
	if len(out.Unresolved) != 2 || out.Unresolved[0] != "BEZIRK AFFOLTERN" || out.Unresolved[1] != "ZUG-STADT" {
		t.Errorf("unresolved = %v", out.Unresolved)
	}
}

func TestBuild_RecoveryDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recover = false
	b := newBuilder(t, []string{"ZUG", "URI"}, cfg)
	out, err := b.Build("Vorlage", []RawObservation{
		raw("Uri", "Ja", "5"), raw("Uri", "Nein", "5"),
		raw("Zug-Stadt", "Ja", "100"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(out.Rows) != 1 || out.Rows[0].RegionKey != "URI" {
		t.Errorf("rows = %+v", out.Rows)
	}
	if len(out.Gaps) != 1 || out.Gaps[0] != "ZUG" {
		t.Errorf("gaps = %v", out.Gaps)
	}
}

func TestBuild_NoRegionRows(t *testing.T) {
	b := newBuilder(t, cantons, DefaultConfig())
	_, err := b.Build("Vorlage", []RawObservation{
		raw("Schweiz", "Ja", "1"),
		raw("......Aeugst am Albis", "Ja", "2"),
	})
	if !errors.Is(err, ErrNoRegionRows) {
		t.Fatalf("err = %v, want ErrNoRegionRows", err)
	}
	if !strings.Contains(err.Error(), "Vorlage") {
		t.Errorf("err = %v, want title in message", err)
	}
}

func TestBuild_Diagnostics(t *testing.T) {
	var events []Event
	b := newBuilder(t, cantons, DefaultConfig(), WithDiagnostics(DiagnosticsFunc(func(e Event) {
		events = append(events, e)
	})))
	_, err := b.Build("Vorlage", []RawObservation{
		raw("Freiburg", "Ja", "10"), raw("Fribourg", "Nein", "5"),
		raw("Bern", "Ja", "1"), raw("Bern", "Nein", "1"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	kinds := make(map[string]int)
	for _, e := range events {
		kinds[e.Kind]++
		if e.Kind == EventResolve && e.Key != "FRIBOURG" {
			t.Errorf("resolve event for %q", e.Key)
		}
		if e.Kind == EventPivot && e.Key != "FRIBOURG" {
			t.Errorf("pivot event for %q", e.Key)
		}
	}
	if kinds[EventResolve] != 2 {
		t.Errorf("resolve events = %d, want 2", kinds[EventResolve])
	}
	if kinds[EventCollapse] != 2 {
		t.Errorf("collapse events = %d, want 2", kinds[EventCollapse])
	}
	if kinds[EventPivot] != 1 {
		t.Errorf("pivot events = %d, want 1", kinds[EventPivot])
	}
	if kinds[EventUnmapped] != 1 {
		t.Errorf("unmapped events = %d, want 1", kinds[EventUnmapped])
	}
	if kinds[EventGap] != len(cantons)-2 {
		t.Errorf("gap events = %d, want %d", kinds[EventGap], len(cantons)-2)
	}
}

func TestSlogDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SlogDiagnostics{Logger: logger}.OnDebug(Event{Kind: EventGap, Title: "Vorlage", Key: "ZUG"})
	out := buf.String()
	if !strings.Contains(out, "tally: gap") || !strings.Contains(out, "key=ZUG") {
		t.Errorf("log = %q", out)
	}

	buf.Reset()
	quiet := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	SlogDiagnostics{Logger: quiet}.OnDebug(Event{Kind: EventGap, Key: "ZUG"})
	if buf.Len() != 0 {
		t.Errorf("debug event logged at info level: %q", buf.String())
	}
}
