package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AnalysisRunsTotal counts full association analysis runs
	AnalysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "analysis_runs_total",
			Help:      "Total number of association analysis runs",
		},
		[]string{"trigger"},
	)

	// AssociationsFound counts emitted threat/asset associations by match type
	AssociationsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "associations_found_total",
			Help:      "Total number of threat/asset associations emitted",
		},
		[]string{"match_type"},
	)

	// AssessmentsComputed counts computed risk assessments by resulting level
	AssessmentsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "assessments_computed_total",
			Help:      "Total number of risk assessments computed",
		},
		[]string{"risk_level"},
	)

	// AssessmentCacheHits counts assessment cache hits and misses
	AssessmentCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "assessment_cache_requests_total",
			Help:      "Assessment cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// FeedRecordsLoaded counts threat records ingested per feed
	FeedRecordsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "feed_records_loaded_total",
			Help:      "Total number of threat records loaded from feeds",
		},
		[]string{"feed"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Idempotent: safe to call multiple times.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(AnalysisRunsTotal)
		prometheus.DefaultRegisterer.Register(AssociationsFound)
		prometheus.DefaultRegisterer.Register(AssessmentsComputed)
		prometheus.DefaultRegisterer.Register(AssessmentCacheHits)
		prometheus.DefaultRegisterer.Register(FeedRecordsLoaded)
	})
}
