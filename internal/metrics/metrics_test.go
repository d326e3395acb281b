package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.AddValidation(ResultPassed, 1)
	m.AddLLMRequest("fake", ResultOK, 1)
	m.AddImport(ResultOK)
	m.AddCommand("addProperty")
	m.SetSessionsActive(3)
	m.AddValidatorCacheLookup(true)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsRecord(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	m.AddValidation(ResultFailed, 0.2)
	m.AddValidation(ResultFailed, 0.1)
	m.AddCommand("setPropertyName")
	m.SetSessionsActive(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationsTotal.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsTotal.WithLabelValues("setPropertyName")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsActive))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contractcreator_validation_total")
}
