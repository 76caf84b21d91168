package boundary

import "github.com/hazyhaar/votemap/pkg/tally"

// Area is a region left-joined with its metrics. Metrics is nil when the
// title has no data for the region.
type Area struct {
	Region
	Metrics *tally.RegionMetrics
}

// Join attaches metrics rows to regions by join key. Every region is kept;
// rows without a matching region are dropped.
func Join(regions []Region, rows []tally.RegionMetrics) []Area {
	byKey := make(map[string]*tally.RegionMetrics, len(rows))
	for i := range rows {
		byKey[rows[i].RegionKey] = &rows[i]
	}
	out := make([]Area, len(regions))
	for i, r := range regions {
		out[i] = Area{Region: r, Metrics: byKey[r.JoinKey]}
	}
	return out
}

// YesPct returns the yes share of the area, absent when it has no data.
func (a Area) YesPct() tally.Value {
	if a.Metrics == nil {
		return tally.Absent
	}
	return a.Metrics.YesPct
}
