package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rubric-grader-api/internal/dto"
	"github.com/noah-isme/rubric-grader-api/pkg/config"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Snapshot: config.SnapshotConfig{
			Driver:        driver,
			Dir:           filepath.Join(dir, "data"),
			SQLitePath:    filepath.Join(dir, "data", "grader.db"),
			WorkspaceName: "room-12",
		},
		Autosave: config.AutosaveConfig{Delay: time.Hour},
		Exports: config.ExportsConfig{
			StorageDir:      filepath.Join(dir, "exports"),
			SignedURLSecret: "secret",
			SignedURLTTL:    time.Minute,
		},
	}
}

func seed(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	_, err := a.Workspace.ReplaceSetup(ctx, map[string]any{
		"sections": []any{map[string]any{"name": "Essay", "weight": 100, "slots": 1}},
		"classes":  []any{map[string]any{"name": "Seminar", "studentCount": 1, "studentNamesText": "Ana"}},
	})
	require.NoError(t, err)
	_, err = a.Workspace.ApplySetup(ctx)
	require.NoError(t, err)
	score := 91.0
	_, err = a.Workspace.SetSlotEntry(ctx, 0, 0, 0, 0, dto.SlotEntryRequest{Score: &score})
	require.NoError(t, err)
}

func TestShutdownPersistsAndNewRestores(t *testing.T) {
	for _, driver := range []string{config.SnapshotDriverFile, config.SnapshotDriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			ctx := context.Background()

			first, err := New(ctx, cfg, nil)
			require.NoError(t, err)
			seed(t, first)
			require.NoError(t, first.Shutdown(ctx))

			second, err := New(ctx, cfg, nil)
			require.NoError(t, err)
			defer second.Close()

			state, err := second.Workspace.Grading()
			require.NoError(t, err)
			require.NotNil(t, state.Classes[0].Students[0].Sections[0].Scores[0])
			assert.Equal(t, 91.0, *state.Classes[0].Students[0].Sections[0].Scores[0])
			assert.Equal(t, uint64(1), first.Metrics.Snapshot().SnapshotWrites)
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig(t, "s3"), nil)
	assert.ErrorContains(t, err, `unknown snapshot driver "s3"`)
}

func TestRouterServesHealthAndAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(t, config.SnapshotDriverFile), nil)
	require.NoError(t, err)
	defer a.Close()
	r := a.Router()

	for path, status := range map[string]int{
		"/health":         http.StatusOK,
		"/ready":          http.StatusOK,
		"/metrics":        http.StatusOK,
		"/api/v1/setup":   http.StatusOK,
		"/api/v1/grading": http.StatusPreconditionFailed,
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, rec.Code, path)
	}
}
