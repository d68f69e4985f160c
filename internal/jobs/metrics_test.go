package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("catalog:refresh").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("catalog:refresh").End(boom), boom)

	body := scrape(t, reg)
	assert.Contains(t, body, `kanak_jobs_total{job="catalog:refresh",status="success"} 1`)
	assert.Contains(t, body, `kanak_jobs_total{job="catalog:refresh",status="failure"} 1`)
	assert.Contains(t, body, `kanak_jobs_failures_total{job="catalog:refresh"} 1`)
	assert.Contains(t, body, `kanak_job_duration_seconds_count{job="catalog:refresh"} 2`)
}

func TestGaugesAndNilSafety(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.SetOverdueLoans(4)
	m.CatalogBumped()

	body := scrape(t, reg)
	assert.Contains(t, body, "kanak_gold_loans_overdue 4")
	assert.Contains(t, body, "kanak_catalog_refresh_bumps_total 1")

	var none *Metrics
	none.SetOverdueLoans(1)
	none.CatalogBumped()
	assert.NoError(t, none.Track("x").End(nil))
}
