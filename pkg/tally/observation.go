package tally

// RawObservation is one cell of the statistical table for a title.
type RawObservation struct {
	AreaLabel string `json:"area"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Value     string `json:"value"`
}

// NormalizedObservation carries the reconciled region key of a raw cell.
// RegionKey is a canonical join key, or JoinLabel when nothing matched.
type NormalizedObservation struct {
	RawObservation
	CleanLabel string
	JoinLabel  string
	RegionKey  string
	Canonical  bool
}

// CollapsedMetric is the single value kept for a (region, category) pair.
type CollapsedMetric struct {
	RegionKey string `json:"region"`
	Category  string `json:"category"`
	Value     Value  `json:"value"`
	Recovered bool   `json:"recovered,omitempty"`
}

// RegionMetrics is the wide row of one region for one title.
type RegionMetrics struct {
	RegionKey  string           `json:"region"`
	Yes        Value            `json:"yes"`
	No         Value            `json:"no"`
	Total      Value            `json:"total"`
	YesPct     Value            `json:"yes_pct"`
	Categories map[string]Value `json:"categories,omitempty"`
	Recovered  bool             `json:"recovered,omitempty"`
}
