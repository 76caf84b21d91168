package tally

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/votemap/pkg/metrics"
	"github.com/hazyhaar/votemap/pkg/region"
)

// Outcome is the per-title result of Build.
type Outcome struct {
	Title      string          `json:"title"`
	Rows       []RegionMetrics `json:"rows"`
	Gaps       []string        `json:"gaps"`
	Recovered  []string        `json:"recovered,omitempty"`
	Unresolved []string        `json:"unresolved,omitempty"`
}

// Builder runs resolve, collapse, recover and pivot for one title.
// It holds no per-run state and is safe for concurrent use.
type Builder struct {
	rec    *region.Reconciler
	cfg    Config
	counts map[string]bool
	diag   Diagnostics
}

// Option configures a Builder.
type Option func(*Builder)

// WithDiagnostics routes pipeline events to d.
func WithDiagnostics(d Diagnostics) Option {
	return func(b *Builder) {
		if d != nil {
			b.diag = d
		}
	}
}

// NewBuilder validates cfg and returns a Builder resolving labels with rec.
func NewBuilder(rec *region.Reconciler, cfg Config, opts ...Option) (*Builder, error) {
	cfg = cfg.withDefaults()
	if _, _, err := cfg.patterns(); err != nil {
		return nil, fmt.Errorf("tally: category pattern: %w", err)
	}
	b := &Builder{rec: rec, cfg: cfg, counts: cfg.countSet(), diag: nopDiagnostics{}}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

// Config returns the effective configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build computes the region metrics of title from its raw observations.
// Observations of other titles are ignored. It fails with ErrNoRegionRows
// when no label resolves to a canonical region.
func (b *Builder) Build(title string, obs []RawObservation) (*Outcome, error) {
	start := time.Now()
	defer func() { metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	norm, unresolved := b.normalize(title, obs)
	b.diag.OnDebug(Event{Kind: EventUnmapped, Title: title, Detail: unresolved})

	canonical := make([]NormalizedObservation, 0, len(norm))
	for _, o := range norm {
		if o.Canonical {
			canonical = append(canonical, o)
		}
	}
	if len(canonical) == 0 {
		metrics.PipelineRuns.WithLabelValues("no_region_rows").Inc()
		return nil, fmt.Errorf("%w: %q", ErrNoRegionRows, title)
	}

	collapsed := Collapse(canonical, b.counts)
	present := make(map[string]bool)
	for _, c := range collapsed {
		present[c.RegionKey] = true
		if b.traced(c.RegionKey) {
			b.diag.OnDebug(Event{Kind: EventCollapse, Title: title, Key: c.RegionKey, Detail: c})
		}
	}

	var missing []string
	for _, k := range b.rec.Keys() {
		if !present[k] {
			missing = append(missing, k)
		}
	}

	out := &Outcome{Title: title, Unresolved: unresolved}
	if len(missing) > 0 {
		if b.cfg.Recover {
			rows, gaps := Recover(missing, norm, b.cfg)
			collapsed = append(collapsed, rows...)
			out.Gaps = gaps
			out.Recovered = recoveredKeys(rows)
			for _, k := range out.Recovered {
				b.diag.OnDebug(Event{Kind: EventRecover, Title: title, Key: k, Detail: RecoveryKey(k, b.cfg.RecoveryPrefix)})
			}
			metrics.RecoveredRegions.Add(float64(len(out.Recovered)))
		} else {
			out.Gaps = missing
		}
		for _, g := range out.Gaps {
			b.diag.OnDebug(Event{Kind: EventGap, Title: title, Key: g})
		}
		metrics.RegionGaps.Add(float64(len(out.Gaps)))
	}
	if out.Gaps == nil {
		out.Gaps = []string{}
	}

	rows, err := Pivot(collapsed, b.cfg)
	if err != nil {
		metrics.PipelineRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	for _, r := range rows {
		if b.traced(r.RegionKey) {
			b.diag.OnDebug(Event{Kind: EventPivot, Title: title, Key: r.RegionKey, Detail: r})
		}
	}
	out.Rows = rows
	metrics.PipelineRuns.WithLabelValues("ok").Inc()
	return out, nil
}

// normalize resolves every label once and returns the observations of
// title along with the sorted distinct labels left unresolved.
func (b *Builder) normalize(title string, obs []RawObservation) ([]NormalizedObservation, []string) {
	cache := make(map[string]region.Resolution)
	var unresolved []string
	out := make([]NormalizedObservation, 0, len(obs))
	for _, o := range obs {
		if title != "" && o.Title != "" && o.Title != title {
			continue
		}
		res, ok := cache[o.AreaLabel]
		if !ok {
			res = b.rec.ResolveDetail(o.AreaLabel)
			cache[o.AreaLabel] = res
			metrics.LabelResolutions.WithLabelValues(string(res.Stage)).Inc()
			if !res.Resolved() {
				unresolved = append(unresolved, res.Key)
			}
			if b.traced(region.JoinKey(o.AreaLabel)) {
				b.diag.OnDebug(Event{Kind: EventResolve, Title: title, Key: res.Key, Detail: res})
			}
		}
		clean := region.CleanLabel(o.AreaLabel)
		out = append(out, NormalizedObservation{
			RawObservation: o,
			CleanLabel:     clean,
			JoinLabel:      strings.ToUpper(clean),
			RegionKey:      res.Key,
			Canonical:      res.Resolved(),
		})
	}
	sort.Strings(unresolved)
	return out, dedupSorted(unresolved)
}

func (b *Builder) traced(s string) bool {
	for _, k := range b.cfg.TraceKeys {
		if k != "" && strings.Contains(s, strings.ToUpper(k)) {
			return true
		}
	}
	return false
}

func recoveredKeys(rows []CollapsedMetric) []string {
	var keys []string
	for _, r := range rows {
		if len(keys) == 0 || keys[len(keys)-1] != r.RegionKey {
			keys = append(keys, r.RegionKey)
		}
	}
	return keys
}

func dedupSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
