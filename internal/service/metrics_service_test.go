package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-grade-report/internal/models"
)

func TestMetricsServiceCountsRecordsAndRuns(t *testing.T) {
	m := NewMetricsService()
	m.RecordAccepted(models.TableStudents)
	m.RecordSkipped(models.TableEnrollments, models.KindIdentity)
	m.RecordSkipped(models.TableEnrollments, models.KindIdentity)
	m.ObserveRun(3, 10*time.Millisecond, nil)
	m.ObserveRun(0, time.Millisecond, errors.New("boom"))
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/reports", http.StatusOK, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.skippedTotal.WithLabelValues(string(models.KindIdentity))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsTotal.WithLabelValues(models.TableStudents, "accepted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reportRows))

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RecordsAccepted)
	assert.Equal(t, uint64(2), snap.RecordsSkipped)
	assert.Equal(t, uint64(2), snap.Runs)
	assert.Equal(t, uint64(1), snap.FailedRuns)
	assert.InDelta(t, 20.0, snap.AverageRequestDurationMs, 0.001)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grade_report_skipped_records_total")
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordAccepted(models.TableStudents)
	m.ObserveRun(1, time.Second, nil)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
