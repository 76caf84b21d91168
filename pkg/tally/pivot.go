package tally

import (
	"fmt"
	"regexp"
	"sort"
)

// Pivot reshapes collapsed rows into one RegionMetrics per region key,
// sorted by key. Yes and no columns are the categories matching the
// configured patterns; total and yes_pct are only derived when both exist.
func Pivot(rows []CollapsedMetric, cfg Config) ([]RegionMetrics, error) {
	cfg = cfg.withDefaults()
	yesRe, noRe, err := cfg.patterns()
	if err != nil {
		return nil, fmt.Errorf("tally: category pattern: %w", err)
	}

	byKey := make(map[string]*RegionMetrics)
	cats := make(map[string]struct{})
	for _, r := range rows {
		m, ok := byKey[r.RegionKey]
		if !ok {
			m = &RegionMetrics{RegionKey: r.RegionKey, Categories: make(map[string]Value)}
			byKey[r.RegionKey] = m
		}
		cats[r.Category] = struct{}{}
		if cur, seen := m.Categories[r.Category]; !seen || !cur.Valid {
			m.Categories[r.Category] = r.Value
		}
		if r.Recovered {
			m.Recovered = true
		}
	}

	yesCol, hasYes := findColumn(cats, yesRe)
	noCol, hasNo := findColumn(cats, noRe)

	out := make([]RegionMetrics, 0, len(byKey))
	for _, m := range byKey {
		if hasYes {
			m.Yes = m.Categories[yesCol]
		}
		if hasNo {
			m.No = m.Categories[noCol]
		}
		if hasYes && hasNo {
			m.Total, m.YesPct = derive(m.Yes, m.No)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionKey < out[j].RegionKey })
	return out, nil
}

// derive computes total = yes + no with absent as zero, absent when both
// are absent, and yes_pct when yes is present and total is non-zero.
func derive(yes, no Value) (total, pct Value) {
	if !yes.Valid && !no.Valid {
		return Absent, Absent
	}
	total = Some(yes.Or(0) + no.Or(0))
	if yes.Valid && total.Float != 0 {
		pct = Some(yes.Float * 100 / total.Float)
	}
	return total, pct
}

func findColumn(cats map[string]struct{}, re *regexp.Regexp) (string, bool) {
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, c)
	}
	sort.Strings(names)
	for _, c := range names {
		if re.MatchString(c) {
			return c, true
		}
	}
	return "", false
}
