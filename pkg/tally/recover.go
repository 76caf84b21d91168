package tally

import (
	"sort"
	"strings"

	"github.com/hazyhaar/votemap/pkg/region"
)

// RecoveryKey returns the first n runes of the accent-stripped key.
func RecoveryKey(key string, n int) string {
	r := []rune(region.StripAccents(key))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// Recover rebuilds yes and no rows for the canonical keys in missing from
// observations the reconciler could not map. A row matches a key when its
// accent-stripped join label contains RecoveryKey(key); matching values are
// summed per category. Keys with nothing to sum are returned as gaps.
func Recover(missing []string, obs []NormalizedObservation, cfg Config) (rows []CollapsedMetric, gaps []string) {
	cfg = cfg.withDefaults()
	keys := append([]string(nil), missing...)
	sort.Strings(keys)

	type candidate struct {
		folded string
		yes    bool
		value  Value
	}
	var pool []candidate
	folded := make(map[string]string)
	for _, o := range obs {
		if o.Canonical {
			continue
		}
		isYes := strings.EqualFold(o.Category, cfg.YesCategory)
		if !isYes && !strings.EqualFold(o.Category, cfg.NoCategory) {
			continue
		}
		f, ok := folded[o.JoinLabel]
		if !ok {
			f = region.StripAccents(o.JoinLabel)
			folded[o.JoinLabel] = f
		}
		pool = append(pool, candidate{folded: f, yes: isYes, value: ParseNumber(o.Value)})
	}

	for _, key := range keys {
		prefix := RecoveryKey(key, cfg.RecoveryPrefix)
		if prefix == "" {
			gaps = append(gaps, key)
			continue
		}
		var yes, no Value
		for _, c := range pool {
			if !c.value.Valid || !strings.Contains(c.folded, prefix) {
				continue
			}
			if c.yes {
				yes = Some(yes.Or(0) + c.value.Float)
			} else {
				no = Some(no.Or(0) + c.value.Float)
			}
		}
		if !yes.Valid && !no.Valid {
			gaps = append(gaps, key)
			continue
		}
		if yes.Valid {
			rows = append(rows, CollapsedMetric{RegionKey: key, Category: cfg.YesCategory, Value: yes, Recovered: true})
		}
		if no.Valid {
			rows = append(rows, CollapsedMetric{RegionKey: key, Category: cfg.NoCategory, Value: no, Recovered: true})
		}
	}
	return rows, gaps
}
