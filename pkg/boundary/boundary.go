// Package boundary loads canonical region polygons from a shapefile.
package boundary

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/hazyhaar/votemap/pkg/region"
)

var ErrNoNameField = errors.New("boundary: NAME attribute missing")

// Region is one canonical region with its merged outline in WGS84.
type Region struct {
	Name     string
	JoinKey  string
	Geometry *geom.MultiPolygon
}

// JoinKeys returns the join keys of regions in order.
func JoinKeys(regions []Region) []string {
	keys := make([]string, len(regions))
	for i, r := range regions {
		keys[i] = r.JoinKey
	}
	return keys
}

// Bounds returns the combined extent of regions.
func Bounds(regions []Region) *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, r := range regions {
		if r.Geometry != nil && !r.Geometry.Empty() {
			b.Extend(r.Geometry)
		}
	}
	return b
}

// Load reads the polygons of a shapefile, keyed by the named attribute
// (NAME when empty). Features sharing a name are merged into one
// multipolygon. Regions are returned sorted by join key.
func Load(path, nameField string) ([]Region, error) {
	if nameField == "" {
		nameField = "NAME"
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	field := -1
	for i, f := range r.Fields() {
		if strings.EqualFold(f.String(), nameField) {
			field = i
			break
		}
	}
	if field < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoNameField, path)
	}

	decode := attributeDecoder(path)
	byName := make(map[string]*Region)
	var frame Frame = -1
	for r.Next() {
		row, shape := r.Shape()
		parts, points := polygonParts(shape)
		if parts == nil {
			continue
		}
		if frame < 0 && len(points) > 0 {
			frame = DetectFrame(points[0].X, points[0].Y)
		}
		name := decode(strings.Trim(r.ReadAttribute(row, field), " \x00"))
		if name == "" {
			continue
		}
		reg, ok := byName[name]
		if !ok {
			reg = &Region{Name: name, JoinKey: region.JoinKey(name), Geometry: geom.NewMultiPolygon(geom.XY)}
			byName[name] = reg
		}
		for _, p := range assemble(rings(parts, points, frame)) {
			if err := reg.Geometry.Push(p); err != nil {
				return nil, fmt.Errorf("region %s: %w", name, err)
			}
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}

	out := make([]Region, 0, len(byName))
	for _, reg := range byName {
		out = append(out, *reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinKey < out[j].JoinKey })
	slog.Info("boundary: loaded", "path", path, "regions", len(out), "frame", frame.String())
	return out, nil
}

func polygonParts(s shp.Shape) ([]int32, []shp.Point) {
	switch p := s.(type) {
	case *shp.Polygon:
		return p.Parts, p.Points
	case *shp.PolygonZ:
		return p.Parts, p.Points
	case *shp.PolygonM:
		return p.Parts, p.Points
	}
	return nil, nil
}

// rings splits the point list at the part offsets and projects each ring.
// Rings with fewer than four points cannot close and are dropped.
func rings(parts []int32, points []shp.Point, f Frame) [][]geom.Coord {
	var out [][]geom.Coord
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || end > int32(len(points)) || end-start < 4 {
			continue
		}
		ring := make([]geom.Coord, 0, end-start)
		for _, p := range points[start:end] {
			lon, lat := ToWGS84(p.X, p.Y, f)
			ring = append(ring, geom.Coord{lon, lat})
		}
		out = append(out, ring)
	}
	return out
}

// assemble groups rings into polygons. Clockwise rings are shells and
// counter-clockwise rings are holes of the shell that contains them.
func assemble(rs [][]geom.Coord) []*geom.Polygon {
	type shell struct {
		outer []geom.Coord
		holes [][]geom.Coord
		flat  []float64
	}
	var shells []*shell
	var holes [][]geom.Coord
	for _, ring := range rs {
		flat := flatten(ring)
		if xy.IsRingCounterClockwise(geom.XY, flat) {
			holes = append(holes, ring)
			continue
		}
		shells = append(shells, &shell{outer: ring, flat: flat})
	}
	for _, h := range holes {
		placed := false
		for _, s := range shells {
			if xy.IsPointInRing(geom.XY, h[0], s.flat) {
				s.holes = append(s.holes, h)
				placed = true
				break
			}
		}
		// A hole outside every shell is a mis-oriented outer ring.
		if !placed {
			shells = append(shells, &shell{outer: h, flat: flatten(h)})
		}
	}

	out := make([]*geom.Polygon, 0, len(shells))
	for _, s := range shells {
		coords := append([][]geom.Coord{s.outer}, s.holes...)
		p, err := geom.NewPolygon(geom.XY).SetCoords(coords)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

func flatten(ring []geom.Coord) []float64 {
	flat := make([]float64, 0, 2*len(ring))
	for _, c := range ring {
		flat = append(flat, c[0], c[1])
	}
	return flat
}

// attributeDecoder returns the DBF string decoder declared by the .cpg
// sidecar. Without one, valid UTF-8 is kept and anything else is read as
// windows-1252.
func attributeDecoder(shpPath string) func(string) string {
	cpg := strings.TrimSuffix(shpPath, ".shp") + ".cpg"
	name := "utf-8"
	if data, err := os.ReadFile(cpg); err == nil {
		name = cpgEncoding(strings.TrimSpace(string(data)))
	} else {
		return func(s string) string {
			if utf8.ValidString(s) {
				return s
			}
			return decodeWith("windows-1252", s)
		}
	}
	return func(s string) string { return decodeWith(name, s) }
}

// cpgEncoding maps code page declarations such as "1252" or "ANSI 1252"
// onto encoding labels.
func cpgEncoding(decl string) string {
	d := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(decl), "ANSI")))
	switch d {
	case "", "utf8", "utf-8", "65001":
		return "utf-8"
	case "1252":
		return "windows-1252"
	case "88591", "8859-1", "iso88591":
		return "iso-8859-1"
	}
	return d
}

func decodeWith(name, s string) string {
	if name == "utf-8" {
		return s
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return s
	}
	out, err := enc.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}
