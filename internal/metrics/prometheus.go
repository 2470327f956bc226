package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ValidationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payguard_validation_duration_seconds",
			Help:    "Compliance evaluation duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"scheme"},
	)

	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_validations_total",
			Help: "Total number of records evaluated",
		},
		[]string{"scheme", "status"},
	)

	ViolationsFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_violations_found_total",
			Help: "Total violations found, by severity",
		},
		[]string{"severity"},
	)

	RuleSourceUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_rule_source_used_total",
			Help: "Evaluations by rule source tier",
		},
		[]string{"source"},
	)

	ExtractionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payguard_extraction_failures_total",
			Help: "Reasoning collaborator failures recovered by fallback",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payguard_queue_depth",
			Help: "Jobs currently tracked in the validation queue window",
		},
	)

	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payguard_jobs_in_flight",
			Help: "Jobs currently being processed",
		},
	)

	JobsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_jobs_processed_total",
			Help: "Queued jobs that reached a terminal state",
		},
		[]string{"outcome"},
	)

	RulebooksIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payguard_rulebooks_ingested_total",
			Help: "Rulebook documents ingested",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payguard_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(ValidationDuration)
	prometheus.MustRegister(ValidationsTotal)
	prometheus.MustRegister(ViolationsFound)
	prometheus.MustRegister(RuleSourceUsed)
	prometheus.MustRegister(ExtractionFailures)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(JobsInFlight)
	prometheus.MustRegister(JobsProcessed)
	prometheus.MustRegister(RulebooksIngested)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
