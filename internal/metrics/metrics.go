package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_provider_requests_total",
			Help: "Outbound provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"}, // "success", "error", "rate_limited", "rejected"
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storysounds_provider_request_duration_seconds",
			Help:    "Duration of outbound provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storysounds_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Pipeline Metrics
	ResolutionResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_resolutions_total",
			Help: "Recommendation resolutions by winning search method, or none",
		},
		[]string{"method"},
	)

	CandidateSearchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storysounds_candidate_search_failures_total",
			Help: "Catalog searches that failed and were treated as empty",
		},
	)

	CulturalValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_cultural_validations_total",
			Help: "Cultural validation passes by detected culture and outcome",
		},
		[]string{"culture", "outcome"}, // "validated", "backfilled", "fail_open"
	)

	PreviewResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_previews_total",
			Help: "Preview enrichment results per track",
		},
		[]string{"outcome"}, // "native", "attached", "none", "error", "skipped"
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storysounds_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storysounds_api_requests_total",
			Help: "HTTP API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storysounds_api_request_duration_seconds",
			Help:    "HTTP API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordProviderCall records one outbound call.
func RecordProviderCall(provider, outcome string, duration time.Duration) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordResolution counts a resolution by its winning method. An empty method counts as "none".
func RecordResolution(method string) {
	if method == "" {
		method = "none"
	}
	ResolutionResults.WithLabelValues(method).Inc()
}

func RecordPreview(outcome string) {
	PreviewResults.WithLabelValues(outcome).Inc()
}

func RecordCulturalValidation(culture, outcome string) {
	CulturalValidations.WithLabelValues(culture, outcome).Inc()
}

// RecordPipelineRun records the outcome and duration of a pipeline run.
func RecordPipelineRun(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	PipelineRuns.WithLabelValues(outcome).Inc()
	PipelineDuration.Observe(duration.Seconds())
}

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
