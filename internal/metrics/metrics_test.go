package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reliefcheck/internal/domain"
)

func TestObserveCheck(t *testing.T) {
	m := New()
	m.ObserveCheck("scam", false, 10*time.Millisecond)
	m.ObserveCheck("scam", true, time.Second)
	m.ObserveCheck("registry", false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("scam", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("scam", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checks.WithLabelValues("registry", "ok")))
}

func TestObserveInvestigation(t *testing.T) {
	m := New()
	m.ObserveInvestigation(domain.InvestigationReport{Status: domain.ReportCompleted, Verdict: domain.VerdictScam, RiskScore: 95, ProcessingTimeSeconds: 3})
	m.ObserveInvestigation(domain.ErrorReport("c1", io.ErrUnexpectedEOF))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.investigations.WithLabelValues("completed", "scam")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.investigations.WithLabelValues("error", "none")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.riskScore))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCheck("domain_age", false, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `reliefcheck_checks_total{kind="domain_age",outcome="ok"} 1`)
}
