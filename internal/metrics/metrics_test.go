package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ObserveOperation(t *testing.T) {
	r := NewRegistry()

	r.ObserveOperation("create", "success", 20*time.Millisecond)
	r.ObserveOperation("create", "success", 30*time.Millisecond)
	r.ObserveOperation("create", "replayed", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.OrderOperations.WithLabelValues("create", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.OrderOperations.WithLabelValues("create", "replayed")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.OrderLatencySec))
}

func TestRegistry_ObserveRequest(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("GET /api/v1/orders/{id}", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.HTTPRequests.WithLabelValues("GET /api/v1/orders/{id}", "404")))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.ObserveOperation("delete", "not_found", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `orders_operations_total{operation="delete",outcome="not_found"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
