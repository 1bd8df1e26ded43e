package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentmatch_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	providerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentmatch_provider_request_duration_seconds",
		Help:    "Duration of outbound calls to external providers",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation", "result"})

	verificationChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_verification_checks_total",
		Help: "Count of tenant verification checks by check and result",
	}, []string{"check", "result"})

	applicationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_application_transitions_total",
		Help: "Count of application lifecycle events",
	}, []string{"event"})

	scoringCalculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_scoring_calculations_total",
		Help: "Count of tenant score calculations by recommendation",
	}, []string{"recommendation"})

	newsletterSignups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_newsletter_signups_total",
		Help: "Count of newsletter signup attempts by result",
	}, []string{"result"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_cache_lookups_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	listings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rentmatch_listings",
		Help: "Current number of listings by state",
	}, []string{"state"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentmatch_cache_evictions_total",
		Help: "Expired cache entries removed by the cleanup worker",
	}, []string{"cache"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveProvider records the duration of an outbound provider call with a result label.
func ObserveProvider(provider, operation, result string, duration time.Duration) {
	providerDuration.WithLabelValues(provider, operation, result).Observe(duration.Seconds())
}

// ObserveVerification counts one identity, income or bank check.
func ObserveVerification(check string, ok bool) {
	verificationChecks.WithLabelValues(check, resultLabel(ok)).Inc()
}

// ObserveApplication counts created, revoked, approved and rejected applications.
func ObserveApplication(event string) {
	applicationTransitions.WithLabelValues(event).Inc()
}

// ObserveScore counts a score calculation.
func ObserveScore(recommendation string) {
	scoringCalculations.WithLabelValues(recommendation).Inc()
}

// ObserveNewsletter counts a signup attempt: subscribed, duplicate or error.
func ObserveNewsletter(result string) {
	newsletterSignups.WithLabelValues(result).Inc()
}

// ObserveCache counts a cache hit or miss.
func ObserveCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// SetListings updates the open and leased listing gauges.
func SetListings(open, leased int64) {
	listings.WithLabelValues("open").Set(float64(open))
	listings.WithLabelValues("leased").Set(float64(leased))
}

// ObserveEvictions counts expired entries purged from a cache.
func ObserveEvictions(cache string, n int) {
	cacheEvictions.WithLabelValues(cache).Add(float64(n))
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
