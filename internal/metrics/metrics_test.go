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

func TestObserveSearch(t *testing.T) {
	m := New()

	m.ObserveSearch("cafe", OutcomeOK, 3, 20*time.Millisecond)
	m.ObserveSearch("cafe", OutcomeOK, 1, 10*time.Millisecond)
	m.ObserveSearch("", OutcomeError, 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues("cafe", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("any", OutcomeError)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.searches))
}

func TestIncUpdate(t *testing.T) {
	m := New()

	m.IncUpdate("message")
	m.IncUpdate("message")
	m.IncUpdate("callback")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.updates.WithLabelValues("message")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.updates.WithLabelValues("callback")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveSearch("bar", OutcomeOK, 1, time.Second)
		m.IncUpdate("message")
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveSearch("restaurant", OutcomeEmpty, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `placesbot_searches_total{outcome="empty",type="restaurant"} 1`), body)
	assert.Contains(t, body, "placesbot_search_duration_seconds_bucket")
}
