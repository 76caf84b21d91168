package region

import (
	"sort"
	"strings"
)

// Stage names the reconciliation step that produced a resolution.
type Stage string

const (
	StageBilingual  Stage = "bilingual"
	StageFolded     Stage = "accent_folded"
	StageExact      Stage = "exact"
	StageAlias      Stage = "alias"
	StageFuzzy      Stage = "fuzzy"
	StageUnresolved Stage = "unresolved"
)

// Resolution is the outcome of resolving one raw area label.
type Resolution struct {
	Label string  `json:"label"`
	Key   string  `json:"key"`
	Stage Stage   `json:"stage"`
	Score float64 `json:"score,omitempty"`
}

// Resolved reports whether the label mapped onto a canonical region.
func (r Resolution) Resolved() bool {
	return r.Stage != StageUnresolved
}

// Reconciler maps raw area labels onto a fixed set of canonical join keys.
// It is immutable after construction and safe for concurrent use.
type Reconciler struct {
	canonical map[string]struct{}
	folded    map[string]string // accent-stripped key -> canonical key
	foldKeys  []string          // sorted keys of folded, fuzzy candidates
	aliases   AliasTable
	cutoff    float64
}

// NewReconciler builds a reconciler over the given canonical join keys.
// A cutoff <= 0 selects DefaultCutoff.
func NewReconciler(joinKeys []string, aliases AliasTable, cutoff float64) *Reconciler {
	if cutoff <= 0 {
		cutoff = DefaultCutoff
	}
	keys := append([]string(nil), joinKeys...)
	sort.Strings(keys)

	r := &Reconciler{
		canonical: make(map[string]struct{}, len(keys)),
		folded:    make(map[string]string, len(keys)),
		aliases:   aliases,
		cutoff:    cutoff,
	}
	for _, k := range keys {
		r.canonical[k] = struct{}{}
		fk := StripAccents(k)
		if _, exists := r.folded[fk]; exists {
			continue
		}
		r.folded[fk] = k
		r.foldKeys = append(r.foldKeys, fk)
	}
	return r
}

// Keys returns the canonical join keys in sorted order.
func (r *Reconciler) Keys() []string {
	keys := make([]string, 0, len(r.canonical))
	for k := range r.canonical {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsCanonical reports whether key is one of the canonical join keys.
func (r *Reconciler) IsCanonical(key string) bool {
	_, ok := r.canonical[key]
	return ok
}

// Resolve maps a raw label to its canonical join key, or to the uppercased
// cleaned label when nothing matches.
func (r *Reconciler) Resolve(raw string) string {
	return r.ResolveDetail(raw).Key
}

// ResolveDetail is Resolve with the matching stage reported.
func (r *Reconciler) ResolveDetail(raw string) Resolution {
	su := JoinKey(raw)
	res := Resolution{Label: raw}

	if strings.Contains(su, "/") {
		for _, part := range strings.Split(su, "/") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if key, ok := r.matchPart(part); ok {
				res.Key, res.Stage = key, StageBilingual
				return res
			}
		}
	}

	folded := StripAccents(su)
	if key, ok := r.folded[folded]; ok {
		res.Key, res.Stage = key, StageFolded
		return res
	}
	if r.IsCanonical(su) {
		res.Key, res.Stage = su, StageExact
		return res
	}
	if key, ok := r.alias(su); ok {
		res.Key, res.Stage = key, StageAlias
		return res
	}
	if key, ok := r.alias(folded); ok {
		res.Key, res.Stage = key, StageAlias
		return res
	}
	if cand, score, ok := closeMatch(folded, r.foldKeys, r.cutoff); ok {
		res.Key, res.Stage, res.Score = r.folded[cand], StageFuzzy, score
		return res
	}

	res.Key, res.Stage = su, StageUnresolved
	return res
}

// matchPart tests one side of a bilingual label: canonical set, alias table,
// then the accent-stripped canonical map.
func (r *Reconciler) matchPart(part string) (string, bool) {
	if r.IsCanonical(part) {
		return part, true
	}
	if key, ok := r.alias(part); ok {
		return key, true
	}
	if key, ok := r.folded[StripAccents(part)]; ok {
		return key, true
	}
	return "", false
}

// alias resolves a variant through the alias table. The target must itself be
// canonical, either verbatim or once accents are stripped.
func (r *Reconciler) alias(variant string) (string, bool) {
	target, ok := r.aliases[variant]
	if !ok {
		return "", false
	}
	if r.IsCanonical(target) {
		return target, true
	}
	key, ok := r.folded[StripAccents(target)]
	return key, ok
}
