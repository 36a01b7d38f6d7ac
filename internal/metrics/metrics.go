package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniviva_evaluations_total",
		Help: "Evaluations by the rule that produced the grade",
	}, []string{"method"})

	GradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniviva_grades_total",
		Help: "Evaluations by awarded grade",
	}, []string{"grade"})

	SimilarityCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miniviva_similarity_cache_hits_total",
		Help: "Semantic similarity lookups served from the cache",
	})

	SimilarityCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miniviva_similarity_cache_misses_total",
		Help: "Semantic similarity lookups that needed a comparator call",
	})

	SimilarityCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miniviva_similarity_cache_entries",
		Help: "Number of cached similarity scores",
	})

	ComparatorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "miniviva_comparator_duration_seconds",
		Help:    "Latency of semantic comparator calls",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"backend"})

	ComparatorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniviva_comparator_errors_total",
		Help: "Failed semantic comparator calls",
	}, []string{"backend"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "miniviva_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "miniviva_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

func RecordEvaluation(method string, grade int) {
	EvaluationsTotal.WithLabelValues(method).Inc()
	GradesTotal.WithLabelValues(strconv.Itoa(grade)).Inc()
}

func RecordCacheHit() {
	SimilarityCacheHits.Inc()
}

func RecordCacheMiss() {
	SimilarityCacheMisses.Inc()
}

func SetCacheEntries(n int) {
	SimilarityCacheEntries.Set(float64(n))
}

// RecordComparatorCall observes one comparator call; a non-nil err also
// counts as a failure.
func RecordComparatorCall(backend string, duration time.Duration, err error) {
	ComparatorDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		ComparatorErrors.WithLabelValues(backend).Inc()
	}
}

func RecordHTTPRequest(route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}
