package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_RecordRequest(t *testing.T) {
	collector := NewCollector(zap.NewNop())

	collector.RecordRequest("GET", "/animals/:id", 200, 2*time.Millisecond)
	collector.RecordRequest("GET", "/animals/:id", 200, 3*time.Millisecond)
	collector.RecordRequest("GET", "/animals/:id", 404, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.httpRequests.WithLabelValues("GET", "/animals/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.httpRequests.WithLabelValues("GET", "/animals/:id", "404")))
}

func TestCollector_RecordStoreOperation(t *testing.T) {
	collector := NewCollector(zap.NewNop())

	collector.RecordStoreOperation("employees", "get", ResultOK)
	collector.RecordStoreOperation("employees", "get", ResultNotFound)
	collector.RecordStoreOperation("employees", "get", ResultNotFound)

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.storeOperations.WithLabelValues("employees", "get", ResultNotFound)))
}

func TestCollector_SetRecords(t *testing.T) {
	collector := NewCollector(zap.NewNop())

	collector.SetRecords("animals", 5)
	collector.SetRecords("animals", 6)

	assert.Equal(t, float64(6), testutil.ToFloat64(collector.records.WithLabelValues("animals")))
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(zap.NewNop())
	collector.SetRecords("animals", 5)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `zoo_records{collection="animals"} 5`)
}
