package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSync(t *testing.T) {
	m := New()
	m.RecordSync("goal", "synced")
	m.RecordSync("goal", "synced")
	m.RecordSync("goal", "reverted")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncOutcomes.WithLabelValues("goal", "synced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncOutcomes.WithLabelValues("goal", "reverted")))
}

func TestHandlerExposesRequestHistogram(t *testing.T) {
	m := New()
	m.RecordRequest("GET", "/goals", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "focusflow_api_request_duration_seconds_count"))
	assert.True(t, strings.Contains(string(body), `route="/goals"`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("GET", "/x", 500, time.Second)
		m.RecordSync("goal", "reverted")
	})
}
