package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votemap_pipeline_runs_total",
			Help: "Total per-title pipeline runs",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "votemap_pipeline_duration_seconds",
			Help:    "Time to build the region metrics of one title",
			Buckets: prometheus.DefBuckets,
		},
	)

	LabelResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votemap_label_resolutions_total",
			Help: "Distinct area labels resolved, by matching stage",
		},
		[]string{"stage"},
	)

	RecoveredRegions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votemap_recovered_regions_total",
			Help: "Regions rebuilt from unresolved sub-level rows",
		},
	)

	RegionGaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "votemap_region_gaps_total",
			Help: "Regions left without data after recovery",
		},
	)

	Downloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votemap_downloads_total",
			Help: "Asset download attempts",
		},
		[]string{"adapter", "status"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votemap_cache_lookups_total",
			Help: "Per-title result cache lookups",
		},
		[]string{"result"},
	)

	QUICConnections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votemap_quic_connections_total",
			Help: "Accepted QUIC connections by protocol",
		},
		[]string{"protocol"},
	)
)
