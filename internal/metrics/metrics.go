package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Workflow metrics
	WorkflowsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategos_workflows_started_total",
			Help: "Total number of analysis workflows started",
		},
	)

	WorkflowsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategos_workflows_completed_total",
			Help: "Total number of analysis workflows reaching a terminal state",
		},
		[]string{"status"},
	)

	WorkflowDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategos_workflow_duration_seconds",
			Help:    "End-to-end workflow duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	ActiveWorkflows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategos_active_workflows",
			Help: "Number of workflows currently executing",
		},
	)

	WorkflowRevisions = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategos_workflow_revisions",
			Help:    "Number of revise iterations per completed workflow",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	QualityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strategos_quality_score",
			Help:    "Final quality score of completed workflows (0-10)",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	// Fingerprint cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategos_cache_hits_total",
			Help: "Total number of fingerprint cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategos_cache_misses_total",
			Help: "Total number of fingerprint cache misses",
		},
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategos_cache_size",
			Help: "Number of entries in the in-memory fingerprint cache",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategos_cache_evictions_total",
			Help: "Total number of fingerprint cache entries evicted",
		},
	)

	// Provider cascade metrics
	ProviderAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategos_provider_attempts_total",
			Help: "Total number of generation attempts per provider",
		},
		[]string{"provider"},
	)

	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategos_provider_failures_total",
			Help: "Total number of failed generation attempts per provider",
		},
		[]string{"provider", "reason"},
	)

	ProviderExhaustions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategos_provider_exhaustions_total",
			Help: "Total number of cascade calls where every provider failed",
		},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strategos_provider_latency_seconds",
			Help:    "Latency of successful provider calls in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// Research basket metrics
	BasketFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strategos_basket_fetches_total",
			Help: "Total number of basket fetches by outcome",
		},
		[]string{"basket", "status"},
	)

	BasketLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strategos_basket_latency_seconds",
			Help:    "Latency of basket fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"basket"},
	)

	// Registry metrics
	RegistrySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "strategos_registry_size",
			Help: "Number of workflows retained in the registry",
		},
	)

	RegistryEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "strategos_registry_evictions_total",
			Help: "Total number of terminal workflows evicted from the registry",
		},
	)
)
