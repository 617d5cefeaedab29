package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLookup(t *testing.T) {
	m := New()

	m.ObserveLookup(OutcomeFound, time.Now())
	m.ObserveLookup(OutcomeFound, time.Now())
	m.ObserveLookup(OutcomeNotFound, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues(OutcomeFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues(OutcomeNotFound)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup(OutcomeFound, time.Now())
		m.IncrementStatusResolution("ok")
		m.IncrementHTTPRequest("/health", "200")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.IncrementStatusResolution("failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `oab_status_resolution_total{result="failed"} 1`)
}

func TestNewTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New()
		_ = New()
	})
}
