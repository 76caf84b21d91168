package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/twpayne/go-geom"

	"github.com/hazyhaar/votemap/pkg/boundary"
	"github.com/hazyhaar/votemap/pkg/tally"
)

func square(x, y float64) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY)
	mp.Push(geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{x, y}, {x, y + 0.5}, {x + 0.5, y + 0.5}, {x + 0.5, y}, {x, y}}}))
	return mp
}

func testAreas() []boundary.Area {
	return []boundary.Area{
		{Region: boundary.Region{Name: "Bern", JoinKey: "BERN", Geometry: square(7, 46.5)},
			Metrics: &tally.RegionMetrics{RegionKey: "BERN", YesPct: tally.Some(20)}},
		{Region: boundary.Region{Name: "Zürich", JoinKey: "ZÜRICH", Geometry: square(8.5, 47.2)},
			Metrics: &tally.RegionMetrics{RegionKey: "ZÜRICH", YesPct: tally.Some(80)}},
		{Region: boundary.Region{Name: "Zug", JoinKey: "ZUG", Geometry: square(8.4, 47)}},
	}
}

func TestFill(t *testing.T) {
	cm := ColorMap()
	a := testAreas()

	if Fill(cm, a[2]) != noData {
		t.Error("area without data should be grey")
	}
	r, g, _, _ := Fill(cm, a[0]).RGBA()
	if r <= g {
		t.Errorf("20%% should lean red, got r=%d g=%d", r, g)
	}
	r, g, _, _ = Fill(cm, a[1]).RGBA()
	if g <= r {
		t.Errorf("80%% should lean green, got r=%d g=%d", r, g)
	}

	over := boundary.Area{Metrics: &tally.RegionMetrics{YesPct: tally.Some(100.0000001)}}
	if c := Fill(cm, over); c == color.Color(noData) {
		t.Error("values just above 100 should clamp, not fall back to grey")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, testAreas(), Options{Title: "Covid-19-Gesetz"}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() <= b.Dy()/2 || b.Dy() == 0 {
		t.Errorf("unexpected image size %v", b)
	}
}

func TestWritePNG_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, nil, Options{}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty output")
	}
}
