package prometheus

import (
	"strconv"
	"sync"
	"time"

	"vendor-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Vendor and purchase order operations
	OperationsCounter *prometheus.CounterVec

	// Performance recomputation
	RecomputeCounter  *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram

	// Latest fulfillment rate per vendor
	VendorFulfillmentGauge *prometheus.GaugeVec

	// Metrics cache
	CacheLookupsCounter *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics with configuration.
// Until it is called every Record helper is a no-op.
func InitMetrics(config *config.Config) {
	initOnce.Do(func() {
		register(promauto.With(prometheus.DefaultRegisterer), config.Metrics.Prefix)
	})
}

func register(factory promauto.Factory, prefix string) {
	// HTTP request metrics
	HttpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Authentication metrics
	AuthAttemptsCounter = factory.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = factory.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	DbOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	OperationsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of vendor and purchase order operations",
		},
		[]string{"entity", "operation"},
	)

	RecomputeCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_metrics_recompute_total",
			Help: "Total number of vendor performance recomputations by result",
		},
		[]string{"result"},
	)

	RecomputeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_metrics_recompute_duration_seconds",
			Help:    "Duration of vendor performance recomputations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	VendorFulfillmentGauge = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: prefix + "_vendor_fulfillment_rate",
			Help: "Latest fulfillment rate per vendor",
		},
		[]string{"vendor_code"},
	)

	CacheLookupsCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_metrics_cache_lookups_total",
			Help: "Vendor metrics cache lookups by outcome",
		},
		[]string{"outcome"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordOperation increments the counter for vendor and purchase order operations
func RecordOperation(entity, operation string) {
	if OperationsCounter == nil {
		return
	}
	OperationsCounter.WithLabelValues(entity, operation).Inc()
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if HttpRequestsTotal == nil {
		return
	}
	code := strconv.Itoa(status)
	HttpRequestsTotal.WithLabelValues(method, path, code).Inc()
	HttpRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordAuthAttempt counts an authentication attempt
func RecordAuthAttempt() {
	if AuthAttemptsCounter == nil {
		return
	}
	AuthAttemptsCounter.Inc()
}

// RecordAuthSuccess counts a successful authentication
func RecordAuthSuccess() {
	if AuthSuccessCounter == nil {
		return
	}
	AuthSuccessCounter.Inc()
}

// RecordAuthError counts a failed authentication by reason
func RecordAuthError(reason string) {
	if AuthErrorsCounter == nil {
		return
	}
	AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// TrackRecompute returns a function that records the outcome and duration of a recomputation
func TrackRecompute() func(result string) {
	start := time.Now()
	return func(result string) {
		if RecomputeCounter == nil {
			return
		}
		RecomputeCounter.WithLabelValues(result).Inc()
		RecomputeDuration.Observe(time.Since(start).Seconds())
	}
}

// UpdateVendorFulfillment sets the fulfillment gauge for a vendor
func UpdateVendorFulfillment(vendorCode string, rate float64) {
	if VendorFulfillmentGauge == nil {
		return
	}
	VendorFulfillmentGauge.WithLabelValues(vendorCode).Set(rate)
}

// RemoveVendor drops the per-vendor series of a deleted vendor
func RemoveVendor(vendorCode string) {
	if VendorFulfillmentGauge == nil {
		return
	}
	VendorFulfillmentGauge.DeleteLabelValues(vendorCode)
}

// RecordCacheLookup counts a metrics cache hit or miss
func RecordCacheLookup(hit bool) {
	if CacheLookupsCounter == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsCounter.WithLabelValues(outcome).Inc()
}
