// Package render draws region results as a choropleth PNG.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/hazyhaar/votemap/pkg/boundary"
)

var (
	low     = color.NRGBA{R: 0xd7, G: 0x30, B: 0x27, A: 0xff}
	high    = color.NRGBA{R: 0x1a, G: 0x98, B: 0x50, A: 0xff}
	noData  = color.Gray{Y: 0xc8}
	outline = color.Gray{Y: 0x30}
)

// Options sets the image title and size. Zero values select defaults.
type Options struct {
	Title    string
	Height   vg.Length
	BarWidth vg.Length
}

func (o Options) withDefaults() Options {
	if o.Height == 0 {
		o.Height = 6 * vg.Inch
	}
	if o.BarWidth == 0 {
		o.BarWidth = 1.2 * vg.Inch
	}
	return o
}

// ColorMap returns the fixed 0-100 yes-share scale, red for rejection and
// green for acceptance.
func ColorMap() palette.ColorMap {
	cm := moreland.NewSmoothDiverging(low, high, 88)
	cm.SetMin(0)
	cm.SetMax(100)
	return cm
}

// Fill returns the fill colour of an area. Areas without data are grey.
func Fill(cm palette.ColorMap, a boundary.Area) color.Color {
	pct := a.YesPct()
	if !pct.Valid {
		return noData
	}
	c, err := cm.At(math.Max(cm.Min(), math.Min(cm.Max(), pct.Float)))
	if err != nil {
		return noData
	}
	return c
}

// Map builds the map plot. Coordinates are longitude and latitude.
func Map(areas []boundary.Area, title string) (*plot.Plot, error) {
	cm := ColorMap()
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	for _, a := range areas {
		if a.Geometry == nil {
			continue
		}
		fill := Fill(cm, a)
		for i := 0; i < a.Geometry.NumPolygons(); i++ {
			var rings []plotter.XYer
			for _, ring := range a.Geometry.Polygon(i).Coords() {
				xys := make(plotter.XYs, len(ring))
				for j, c := range ring {
					xys[j].X, xys[j].Y = c[0], c[1]
				}
				rings = append(rings, xys)
			}
			if len(rings) == 0 {
				continue
			}
			poly, err := plotter.NewPolygon(rings...)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", a.Name, err)
			}
			poly.Color = fill
			poly.LineStyle.Color = outline
			poly.LineStyle.Width = vg.Points(0.5)
			p.Add(poly)
		}
	}
	return p, nil
}

// Legend builds the vertical colour bar.
func Legend() *plot.Plot {
	p := plot.New()
	p.HideX()
	p.Y.Label.Text = "Yes %"
	p.Add(&plotter.ColorBar{ColorMap: ColorMap(), Vertical: true})
	return p
}

// WritePNG renders the map and its colour bar side by side.
func WritePNG(w io.Writer, areas []boundary.Area, opts Options) error {
	opts = opts.withDefaults()
	m, err := Map(areas, opts.Title)
	if err != nil {
		return err
	}

	width := opts.Height*aspect(areas) + opts.BarWidth
	img := vgimg.New(width, opts.Height)
	dc := draw.New(img)
	m.Draw(draw.Crop(dc, 0, -opts.BarWidth, 0, 0))
	Legend().Draw(draw.Crop(dc, width-opts.BarWidth, 0, 0, -vg.Points(20)))

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// aspect is the width/height ratio of the areas' extent with longitude
// scaled by the cosine of the mid latitude.
func aspect(areas []boundary.Area) vg.Length {
	regions := make([]boundary.Region, len(areas))
	for i, a := range areas {
		regions[i] = a.Region
	}
	b := boundary.Bounds(regions)
	if b.IsEmpty() {
		return 1
	}
	dx := b.Max(0) - b.Min(0)
	dy := b.Max(1) - b.Min(1)
	if dx <= 0 || dy <= 0 {
		return 1
	}
	mid := (b.Max(1) + b.Min(1)) / 2 * math.Pi / 180
	r := dx * math.Cos(mid) / dy
	return vg.Length(math.Max(0.5, math.Min(3, r)))
}
