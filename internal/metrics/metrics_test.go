package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.RecordProposal(OutcomeOK)
	m.RecordCache(true)
	m.ObserveDBQuery("list", time.Millisecond)
	m.AddPurged(3)
	assert.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecordProposal(t *testing.T) {
	m := New()
	m.RecordProposal(OutcomeOK)
	m.RecordProposal(OutcomeConflict)
	m.RecordProposal(OutcomeConflict)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.proposals.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.proposals.WithLabelValues(OutcomeConflict)))
}

func TestRecordCacheAndPurge(t *testing.T) {
	m := New()
	m.RecordCache(true)
	m.RecordCache(false)
	m.RecordCache(false)
	m.AddPurged(4)
	m.AddPurged(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.purged))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/items/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dayline_http_requests_total")
}
