package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/procurement/backend/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics(t *testing.T) {
	metrics := telemetry.NewMetrics()
	router := gin.New()
	router.Use(HTTPMetrics(metrics))
	router.GET("/suppliers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/suppliers/1", "/suppliers/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != telemetry.MetricHTTPRequestsTotal {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			counts[labels["route"]+" "+labels["status"]] = m.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 2.0, counts["/suppliers/:id 200"])
	assert.Equal(t, 1.0, counts[unmatchedRoute+" 404"])

	active, err := testutil.GatherAndCount(metrics.Registry(), telemetry.MetricHTTPActiveRequests)
	require.NoError(t, err)
	assert.Equal(t, 1, active)
}

func TestHTTPMetrics_NilDisabled(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
