package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/pkg/jobs"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/grading", http.StatusOK, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/grading", http.StatusOK, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordMutation("score.set", 3)
	m.RecordSnapshotWrite(nil, time.Millisecond)
	m.RecordSnapshotWrite(errors.New("disk full"), time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30.0, snap.AverageRequestDurationMs, 0.001)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 1e-9)
	assert.Equal(t, uint64(1), snap.MutationsTotal)
	assert.Equal(t, uint64(1), snap.SnapshotWrites)
	assert.Equal(t, uint64(1), snap.SnapshotWriteFailures)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "workspace_revision 3")
	assert.Contains(t, rec.Body.String(), `snapshot_writes_total{result="failure"} 1`)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordMutation("class.add", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `grading_mutations_total{action="class.add"} 1`))
}

func TestMetricsServiceTracksQueueAndInFlight(t *testing.T) {
	m := NewMetricsService()
	m.TrackQueue("autosave", func() jobs.Stats { return jobs.Stats{Enqueued: 4, Coalesced: 2, Failed: 1} })
	done := m.TrackInFlight()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `jobs_enqueued_total{queue="autosave"} 4`)
	assert.Contains(t, body, `jobs_coalesced_total{queue="autosave"} 2`)
	assert.Contains(t, body, `jobs_failed_total{queue="autosave"} 1`)
	assert.Contains(t, body, "http_requests_in_flight 1")

	done()
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "http_requests_in_flight 0")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.TrackInFlight()()
	m.TrackQueue("autosave", nil)
	m.RecordMutation("noop", 1)
	m.RecordSnapshotWrite(nil, 0)
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, 0)
	assert.Zero(t, m.Snapshot().RequestsTotal)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
