package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NethermindEth/statedb/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageMetricsExposed(t *testing.T) {
	registry := metrics.PrometheusRegistry()
	factory := metrics.PrometheusFactory(registry)

	storage := metrics.NewStorage(factory)
	storage.AppendStateDiff.Observe(0.002)
	storage.Markers.WithLabelValues("state").Set(3)
	storage.Reverts.WithLabelValues("noop").Inc()

	listener := metrics.NewDBListener(factory)
	listener.OnIO(true, time.Now())
	listener.OnCommit(time.Now())

	rec := httptest.NewRecorder()
	metrics.PrometheusHandler(registry).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	for _, name := range []string{
		"storage_append_state_diff_latency_seconds_count 1",
		`storage_marker{kind="state"} 3`,
		`storage_reverts_total{outcome="noop"} 1`,
		"db_write_latency_count 1",
		"db_commit_latency_count 1",
		"db_read_latency_count 0",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestVoidFactory(t *testing.T) {
	storage := metrics.NewStorage(metrics.VoidFactory())
	storage.AppendCasm.Observe(1)
	storage.Markers.WithLabelValues("class").Inc()
	assert.Zero(t, metrics.VoidFactory().NewTimer(storage.AppendBody).ObserveDuration())
}
