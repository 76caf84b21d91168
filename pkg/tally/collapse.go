package tally

import "strings"

type groupKey struct {
	region   string
	category string
}

// Collapse reduces the observations to one value per (region, category).
// Groups keep first-seen order. Within a group absent values are dropped;
// a single distinct value is kept as is; count categories take the maximum
// and any other category keeps the first value in source order. That last
// rule is an arbitrary tie-break; callers must pass observations in file order.
func Collapse(obs []NormalizedObservation, counts map[string]bool) []CollapsedMetric {
	var order []groupKey
	groups := make(map[groupKey][]Value)
	for _, o := range obs {
		k := groupKey{o.RegionKey, o.Category}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
			groups[k] = nil
		}
		if v := ParseNumber(o.Value); v.Valid {
			groups[k] = append(groups[k], v)
		}
	}

	out := make([]CollapsedMetric, 0, len(order))
	for _, k := range order {
		out = append(out, CollapsedMetric{
			RegionKey: k.region,
			Category:  k.category,
			Value:     collapseGroup(groups[k], counts[strings.ToUpper(strings.TrimSpace(k.category))]),
		})
	}
	return out
}

func collapseGroup(vals []Value, isCount bool) Value {
	if len(vals) == 0 {
		return Absent
	}
	distinct := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		distinct[v.String()] = struct{}{}
	}
	if len(distinct) == 1 || !isCount {
		return vals[0]
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if v.Float > best.Float {
			best = v
		}
	}
	return best
}
