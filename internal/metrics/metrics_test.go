package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollect(t *testing.T) {
	m := New()
	m.LinesIngested.WithLabelValues("stdout").Add(3)
	m.EventsApplied.WithLabelValues("node_added").Inc()
	m.Nodes.Set(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesIngested.WithLabelValues("stdout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsApplied.WithLabelValues("node_added")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Nodes))
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.Launches.WithLabelValues(Result(nil)).Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `commandcenter_kernel_launches_total{result="ok"} 1`)
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("boom")))
}
