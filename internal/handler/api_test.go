package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/internal/autosave"
	"github.com/noah-isme/rubric-grader-api/internal/repository"
	"github.com/noah-isme/rubric-grader-api/internal/service"
	"github.com/noah-isme/rubric-grader-api/pkg/storage"
)

const setupJSON = `{
	"helpThreshold": 75,
	"sections": [
		{"name": "Homework", "weight": 40, "slots": 2},
		{"name": "Exam", "weight": 60, "slots": 1}
	],
	"classes": [
		{"name": "Period 1", "studentCount": 2, "studentNamesText": "Ana\nBen"},
		{"name": "Period 2", "studentCount": 1, "studentNamesText": "Cara"}
	]
}`

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
	Meta map[string]any `json:"meta"`
}

type testAPI struct {
	router    *gin.Engine
	workspace *service.WorkspaceService
	snapshots *service.SnapshotService
	store     *repository.FileSnapshotRepository
}

func newTestAPI(t *testing.T, checks map[string]ReadinessCheck) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	metrics := service.NewMetricsService()
	store := repository.NewFileSnapshotRepository(files, "test")
	snapshots := service.NewSnapshotService(store, metrics, nil)
	workspace := service.NewWorkspaceService(service.WorkspaceConfig{Name: "test"}, nil, metrics, nil, nil)
	saver := autosave.New(time.Hour, func(ctx context.Context) error {
		return snapshots.Save(ctx, workspace.Snapshot())
	})
	t.Cleanup(saver.Stop)
	workspace.SetAutosave(saver)

	exportFiles, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(workspace, exportFiles, storage.NewSignedURLSigner("secret", time.Minute), service.ExportConfig{APIPrefix: "/api/v1"}, nil, nil)

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Setup:    NewSetupHandler(workspace),
		Grading:  NewGradingHandler(workspace),
		Snapshot: NewSnapshotHandler(workspace, snapshots, saver),
		Export:   NewExportHandler(exports),
		Metrics:  NewMetricsHandler(metrics, checks),
	})
	metricsHandler := NewMetricsHandler(metrics, checks)
	r.GET("/ready", metricsHandler.Ready)
	return &testAPI{router: r, workspace: workspace, snapshots: snapshots, store: store}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1"+path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) applied(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPut, "/setup", setupJSON).Code)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/setup/apply", "").Code)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestSetupEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/setup/validate", `{"sections":[{"name":"A","weight":30}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var validation struct {
		WeightBalanced bool     `json:"weight_balanced"`
		Errors         []string `json:"errors"`
	}
	decodeEnvelope(t, rec, &validation)
	assert.False(t, validation.WeightBalanced)
	assert.Contains(t, validation.Errors, "Section weights must add up to 100%.")

	rec = api.do(t, http.MethodPut, "/setup", `[1,2`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/setup", setupJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get(RevisionHeader))

	rec = api.do(t, http.MethodGet, "/grading", "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = api.do(t, http.MethodPost, "/setup/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get(RevisionHeader))

	rec = api.do(t, http.MethodGet, "/grading", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ws struct {
		View    string `json:"view"`
		Grading struct {
			Classes []struct {
				Name string `json:"name"`
			} `json:"classes"`
		} `json:"grading"`
	}
	decodeEnvelope(t, rec, &ws)
	assert.Equal(t, "grader", ws.View)
	assert.Len(t, ws.Grading.Classes, 2)
}

func TestApplyRejectsUnbalancedWeights(t *testing.T) {
	api := newTestAPI(t, nil)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/setup", `{"sections":[{"name":"A","weight":30}]}`).Code)

	rec := api.do(t, http.MethodPost, "/setup/apply", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, "INVALID_WEIGHTS", env.Error.Code)
	assert.Equal(t, []string{"Section weights must add up to 100%."}, env.Error.Details)
}

func TestGradingEntriesAndSummaries(t *testing.T) {
	api := newTestAPI(t, nil)
	api.applied(t)

	rec := api.do(t, http.MethodPut, "/grading/classes/0/students/0/sections/0/slots/0", `{"score": 80}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get(RevisionHeader))
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/classes/0/students/0/sections/1/slots/0", `{"score": 70}`).Code)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/classes/0/students/1/sections/1", `{"override_score": 95, "comment": "great"}`).Code)

	rec = api.do(t, http.MethodGet, "/grading/classes/0/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		ClassAverage *float64 `json:"class_average"`
		NeedingHelp  []struct {
			Name string `json:"name"`
		} `json:"needing_help"`
	}
	env := decodeEnvelope(t, rec, &summary)
	assert.Equal(t, false, env.Meta["cache_hit"])
	assert.Equal(t, float64(5), env.Meta["revision"])
	require.NotNil(t, summary.ClassAverage)
	assert.InDelta(t, 84.5, *summary.ClassAverage, 1e-9)
	require.Len(t, summary.NeedingHelp, 1)
	assert.Equal(t, "Ana", summary.NeedingHelp[0].Name)

	rec = api.do(t, http.MethodGet, "/grading/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get(RevisionHeader))

	rec = api.do(t, http.MethodPut, "/grading/classes/0/students/0/sections/0/slots/0", `{"score": 80, "deduction": 300}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradingStructuralRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	api.applied(t)

	rec := api.do(t, http.MethodPost, "/grading/classes/1/students", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var added struct {
		Index *int `json:"index"`
	}
	decodeEnvelope(t, rec, &added)
	require.NotNil(t, added.Index)
	assert.Equal(t, 1, *added.Index)

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPatch, "/grading/classes/1/students/1", `{"name": "Dev"}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPatch, "/grading/classes/1", `{"support_note": "quiet room"}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/classes/0/section-order", `{"from": 1, "to": 0}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/classes/0/selected-student", `{"student_index": 1}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/active-class", `{"class_index": 1}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/note", `{"note": "midterm"}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPatch, "/grading/sections/0", `{"name": "Labs"}`).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodPatch, "/grading/sections/0/items/1", `{"name": "Lab B"}`).Code)
	assert.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/grading/sections/1/slots", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, "/grading/sections/1/slots", "").Code)
	assert.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/grading/classes", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, "/grading/classes/2", "").Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodDelete, "/grading/data", "").Code)

	state, err := api.workspace.Grading()
	require.NoError(t, err)
	assert.Equal(t, "Dev", state.Classes[1].Students[1].Name)
	assert.Equal(t, "Labs", state.Sections[0].Name)
	assert.Equal(t, []int{1, 0}, state.Classes[0].SectionOrder)
	assert.Empty(t, state.OverallProgressNote)
}

func TestGradingRouteErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	api.applied(t)

	rec := api.do(t, http.MethodDelete, "/grading/classes/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodDelete, "/grading/classes/-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodGet, "/grading/classes/9/summary", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodDelete, "/grading/classes/1/students/0", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(t, http.MethodPatch, "/grading/sections/0", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = api.do(t, http.MethodPut, "/workspace/view", `{"view": "sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/workspace/view", `{"view": "setup"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshotRoundTrip(t *testing.T) {
	api := newTestAPI(t, nil)
	api.applied(t)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/note", `{"note": "keep going"}`).Code)

	rec := api.do(t, http.MethodGet, "/snapshot?download=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="rubric-grade-save-`))
	exported := rec.Body.String()
	assert.Contains(t, exported, `"version":2`)
	assert.Contains(t, exported, `"activeView":"grader"`)

	other := newTestAPI(t, nil)
	rec = other.do(t, http.MethodPost, "/snapshot", `"just a string"`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_SNAPSHOT", decodeEnvelope(t, rec, nil).Error.Code)
	assert.Zero(t, other.workspace.Revision())

	rec = other.do(t, http.MethodPost, "/snapshot", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	state, err := other.workspace.Grading()
	require.NoError(t, err)
	assert.Equal(t, "keep going", state.OverallProgressNote)

	rec = other.do(t, http.MethodPost, "/snapshot/save", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	stored, err := other.snapshots.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "keep going", stored.Grading.OverallProgressNote)
}

func TestExportRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	api.applied(t)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/grading/classes/0/students/0/sections/0/slots/0", `{"score": 88}`).Code)

	rec := api.do(t, http.MethodGet, "/exports/classes/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Period_1-class-report.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Ana,88.0%,Yes,On track")

	rec = api.do(t, http.MethodGet, "/exports/classes/0/students/0?format=PDF", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = api.do(t, http.MethodGet, "/exports/classes/0?format=xlsx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/exports", `{"kind": "class-sheets", "class_index": 0, "format": "csv"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var link struct {
		URL string `json:"url"`
	}
	decodeEnvelope(t, rec, &link)
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/exports/download/"))

	rec = api.do(t, http.MethodGet, strings.TrimPrefix(link.URL, "/api/v1"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Period_1-student-sheets.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Ana,Homework,")

	rec = api.do(t, http.MethodGet, "/exports/download/forged.token.value.sig", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObservabilityRoutes(t *testing.T) {
	api := newTestAPI(t, map[string]ReadinessCheck{
		"snapshot_store": func(context.Context) error { return nil },
		"redis":          func(context.Context) error { return errors.New("connection refused") },
	})

	rec := api.do(t, http.MethodGet, "/system/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"goroutines"`)

	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, []string{"redis"}, decodeEnvelope(t, rec, nil).Error.Details)

	healthy := newTestAPI(t, map[string]ReadinessCheck{"snapshot_store": func(context.Context) error { return nil }})
	rec = httptest.NewRecorder()
	healthy.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIndexParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "class", Value: "3"}, {Key: "student", Value: "x"}}

	value, err := indexParam(c, "class")
	require.NoError(t, err)
	assert.Equal(t, 3, value)
	_, err = indexParams(c, "class", "student")
	assert.EqualError(t, err, "student must be a non-negative integer")
}
