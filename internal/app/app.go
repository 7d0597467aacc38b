// Package app wires configuration, persistence, caching and services into a
// runnable workspace shared by the HTTP server and the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rubric-grader-api/api/swagger"
	"github.com/noah-isme/rubric-grader-api/internal/autosave"
	"github.com/noah-isme/rubric-grader-api/internal/handler"
	internalmiddleware "github.com/noah-isme/rubric-grader-api/internal/middleware"
	"github.com/noah-isme/rubric-grader-api/internal/repository"
	"github.com/noah-isme/rubric-grader-api/internal/service"
	"github.com/noah-isme/rubric-grader-api/pkg/cache"
	"github.com/noah-isme/rubric-grader-api/pkg/config"
	"github.com/noah-isme/rubric-grader-api/pkg/database"
	appErrors "github.com/noah-isme/rubric-grader-api/pkg/errors"
	"github.com/noah-isme/rubric-grader-api/pkg/jobs"
	"github.com/noah-isme/rubric-grader-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/rubric-grader-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rubric-grader-api/pkg/middleware/requestid"
	"github.com/noah-isme/rubric-grader-api/pkg/storage"
)

// App holds every long-lived component of a running workspace.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Workspace *service.WorkspaceService
	Snapshots *service.SnapshotService
	Exports   *service.ExportService
	Autosave  *autosave.Debouncer

	queue   *jobs.Queue
	checks  map[string]handler.ReadinessCheck
	closers []func() error
}

// New builds the application, restoring the stored snapshot when one exists.
// The autosave queue runs until Shutdown.
func New(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*App, error) {
	if logr == nil {
		logr = zap.NewNop()
	}
	a := &App{
		Config:  cfg,
		Logger:  logr,
		Metrics: service.NewMetricsService(),
		checks:  map[string]handler.ReadinessCheck{},
	}

	store, err := a.openSnapshotStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	validate := validator.New()
	a.Workspace = service.NewWorkspaceService(service.WorkspaceConfig{
		Name:       cfg.Snapshot.WorkspaceName,
		SummaryTTL: cfg.Summary.CacheTTL,
	}, a.openSummaryCache(), a.Metrics, validate, logr.Named("workspace"))
	a.Snapshots = service.NewSnapshotService(store, a.Metrics, logr.Named("snapshot"))

	snapshot, err := a.Snapshots.Load(ctx)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snapshot != nil {
		a.Workspace.Restore(*snapshot)
		logr.Info("workspace restored", zap.Time("saved_at", snapshot.SavedAt), zap.String("view", string(snapshot.ActiveView)))
	}

	var saver *autosave.Debouncer
	a.queue = jobs.NewQueue("autosave", func(ctx context.Context, job jobs.Job) error {
		return saver.Handler()(ctx, job)
	}, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Autosave.Retries,
		Coalesce:   true,
		Logger:     logr.Named("jobs"),
		OnFailure: func(job jobs.Job, err error) {
			logr.Error("autosave gave up", zap.String("job_id", job.ID), zap.Error(err))
		},
	})
	saver = autosave.New(cfg.Autosave.Delay, func(ctx context.Context) error {
		return a.Snapshots.Save(ctx, a.Workspace.Snapshot())
	}, autosave.WithQueue(a.queue), autosave.WithLogger(logr.Named("autosave")))
	a.Autosave = saver
	a.Metrics.TrackQueue("autosave", a.queue.Stats)
	a.Workspace.SetAutosave(saver)
	a.queue.Start(context.Background())

	exportFiles, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	a.Exports = service.NewExportService(a.Workspace, exportFiles,
		storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
		validate, logr.Named("export"))

	return a, nil
}

func (a *App) openSnapshotStore(ctx context.Context) (service.SnapshotStore, error) {
	cfg := a.Config
	switch cfg.Snapshot.Driver {
	case "", config.SnapshotDriverFile:
		files, err := storage.NewLocalStorage(cfg.Snapshot.Dir)
		if err != nil {
			return nil, fmt.Errorf("init snapshot dir: %w", err)
		}
		repo := repository.NewFileSnapshotRepository(files, cfg.Snapshot.WorkspaceName)
		a.checks["snapshot_store"] = func(ctx context.Context) error {
			_, err := repo.Load(ctx)
			if err != nil && !errors.Is(err, appErrors.ErrNotFound) {
				return err
			}
			return nil
		}
		a.Logger.Info("snapshot store ready", zap.String("driver", config.SnapshotDriverFile), zap.String("dir", cfg.Snapshot.Dir))
		return repo, nil
	case config.SnapshotDriverSQLite, config.SnapshotDriverPostgres:
		var (
			db  *sqlx.DB
			err error
		)
		if cfg.Snapshot.Driver == config.SnapshotDriverSQLite {
			db, err = database.NewSQLite(ctx, cfg.Snapshot.SQLitePath)
		} else {
			db, err = database.NewPostgres(ctx, cfg.Database)
		}
		if err != nil {
			return nil, fmt.Errorf("open %s snapshot store: %w", cfg.Snapshot.Driver, err)
		}
		a.closers = append(a.closers, db.Close)
		repo := repository.NewSnapshotRepository(db, cfg.Snapshot.WorkspaceName)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare snapshot schema: %w", err)
		}
		a.checks["snapshot_store"] = db.PingContext
		a.Logger.Info("snapshot store ready", zap.String("driver", cfg.Snapshot.Driver))
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", cfg.Snapshot.Driver)
	}
}

// openSummaryCache connects Redis when summary caching is enabled. A Redis
// outage disables the cache instead of failing startup.
func (a *App) openSummaryCache() *service.CacheService {
	cfg := a.Config
	if !cfg.Summary.CacheEnabled {
		return nil
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		a.Logger.Warn("summary cache disabled", zap.Error(err))
		return nil
	}
	repo := repository.NewCacheRepository(client, a.Logger.Named("cache"))
	a.closers = append(a.closers, repo.Close)
	a.checks["redis"] = repo.Ping
	return service.NewCacheService(repo, a.Metrics, cfg.Summary.CacheTTL, a.Logger.Named("cache"), true)
}

// Router builds the HTTP engine with every route mounted.
func (a *App) Router() *gin.Engine {
	cfg := a.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.Logger))
	r.Use(corsmiddleware.New(corsmiddleware.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposeHeaders:  []string{handler.RevisionHeader},
	}))
	r.Use(internalmiddleware.Metrics(a.Metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(a.Metrics, a.checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Setup:    handler.NewSetupHandler(a.Workspace),
		Grading:  handler.NewGradingHandler(a.Workspace),
		Snapshot: handler.NewSnapshotHandler(a.Workspace, a.Snapshots, a.Autosave),
		Export:   handler.NewExportHandler(a.Exports),
		Metrics:  metricsHandler,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

// CleanupExports removes expired stored exports every interval until ctx ends.
func (a *App) CleanupExports(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.Exports.Cleanup(0)
			if err != nil {
				a.Logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				a.Logger.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}

// Shutdown flushes the workspace to the snapshot store and releases
// resources. The flush error is returned after everything is closed.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Autosave.Flush(ctx)
	if err != nil {
		a.Logger.Error("final snapshot flush failed", zap.Error(err))
	}
	a.Close()
	return err
}

// Close releases resources without saving. Pending autosaves are dropped.
func (a *App) Close() {
	a.Autosave.Stop()
	a.queue.Stop()
	a.close()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
