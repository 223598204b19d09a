package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHelpersAreNoopsBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		TrackDBOperation("query")(time.Now())
		RecordOperation("vendor", "create")
		RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
		RecordAuthAttempt()
		RecordAuthSuccess()
		RecordAuthError("missing_token")
		TrackRecompute()("updated")
		UpdateVendorFulfillment("000001", 50)
		RemoveVendor("000001")
		RecordCacheLookup(true)
	})
}

func TestRegisteredMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	register(promauto.With(reg), "test")
	t.Cleanup(func() {
		register(promauto.With(prometheus.NewRegistry()), "reset")
	})

	RecordOperation("vendor", "create")
	RecordOperation("vendor", "create")
	assert.Equal(t, 2.0, testutil.ToFloat64(OperationsCounter.WithLabelValues("vendor", "create")))

	TrackRecompute()("skipped")
	assert.Equal(t, 1.0, testutil.ToFloat64(RecomputeCounter.WithLabelValues("skipped")))

	UpdateVendorFulfillment("123456", 75)
	assert.Equal(t, 75.0, testutil.ToFloat64(VendorFulfillmentGauge.WithLabelValues("123456")))

	RecordCacheLookup(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheLookupsCounter.WithLabelValues("miss")))

	RecordHTTPRequest("GET", "/api/vendors", 200, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/api/vendors", "200")))
}
