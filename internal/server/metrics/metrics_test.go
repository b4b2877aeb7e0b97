package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest(http.MethodGet, "/api/v1/collections/{collection}", 200, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/collections/{collection}", 200, 20*time.Millisecond)
	m.ObserveRequest(http.MethodPut, "", 404, time.Millisecond)
	m.CollectionRead("activities")
	m.CollectionWritten("activities", 3)
	m.CollectionWritten("activities", 2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/collections/{collection}", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("PUT", "unmatched", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.collectionReads.WithLabelValues("activities")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.collectionWrite.WithLabelValues("activities")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.itemsWritten.WithLabelValues("activities")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.CollectionRead("activities")
		m.CollectionWritten("activities", 1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CollectionWritten("activity_details", 4)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fitsync_server_collections_items_written_total{collection="activity_details"} 4`)
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
