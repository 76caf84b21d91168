// Package export writes joined region results as GeoJSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/hazyhaar/votemap/pkg/boundary"
	"github.com/hazyhaar/votemap/pkg/tally"
)

// DefaultPath is where the batch run writes its export.
const DefaultPath = "kantone_votes.geojson"

// FeatureCollection builds one feature per area with NAME, YES, NO, TOTAL
// and YES_PCT properties. Absent values are encoded as null.
func FeatureCollection(areas []boundary.Area) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(areas))}
	for _, a := range areas {
		var m tally.RegionMetrics
		if a.Metrics != nil {
			m = *a.Metrics
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: a.Geometry,
			Properties: map[string]interface{}{
				"NAME":    a.Name,
				"YES":     property(m.Yes),
				"NO":      property(m.No),
				"TOTAL":   property(m.Total),
				"YES_PCT": property(m.YesPct),
			},
		})
	}
	return fc
}

func property(v tally.Value) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Float
}

// Write encodes the areas as a GeoJSON FeatureCollection.
func Write(w io.Writer, areas []boundary.Area) error {
	data, err := json.Marshal(FeatureCollection(areas))
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes the GeoJSON export to path.
func WriteFile(path string, areas []boundary.Area) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create geojson: %w", err)
	}
	if err := Write(f, areas); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
