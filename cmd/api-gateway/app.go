package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type app struct {
	router  *gin.Engine
	metrics *service.MetricsService
	closers []func()
}

// Close stops background workers and releases connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type catalogLoader interface {
	Load(ctx context.Context) (timetable.Catalog, error)
}

func buildApp(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*app, error) {
	a := &app{metrics: service.NewMetricsService()}
	validate := validator.New()
	checks := map[string]handler.Pinger{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		switch {
		case err == nil:
			redisClient = client
		case cfg.Timetable.Store == config.StoreRedis:
			return nil, fmt.Errorf("timetable store needs redis: %w", err)
		default:
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = cacheRepo.Close() })
		checks["redis"] = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.metrics, cfg.Catalog.CacheTTL, logr, redisClient != nil)

	var catalogRepo catalogLoader
	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		checks["database"] = handler.PingFunc(db.PingContext)
		catalogRepo = repository.NewCatalogRepository(db)
	default:
		catalogRepo = repository.NewMemoryCatalogRepository(timetable.Catalog{})
	}

	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, a.metrics, cfg.Catalog.CacheTTL, logr)
	absenceSvc := service.NewAbsenceService(catalogSvc, logr)

	var store service.TimetableStore
	if cfg.Timetable.Store == config.StoreRedis {
		store = service.NewCacheTimetableStore(cacheSvc, cfg.Timetable.TTL)
	} else {
		store = service.NewMemoryTimetableStore(cfg.Timetable.TTL)
	}
	timetableSvc := service.NewTimetableService(catalogSvc, absenceSvc, store, a.metrics, validate, logr, service.TimetableServiceConfig{
		PeriodDuration: cfg.Timetable.PeriodDuration,
		PeriodsPerDay:  cfg.Timetable.PeriodsPerDay,
		StartTime:      cfg.Timetable.StartTime,
		Policy:         cfg.Timetable.Policy,
	})

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportJobSvc, err := a.wireExports(ctx, cfg, logr, timetableSvc, validate)
		if err != nil {
			a.Close()
			return nil, err
		}
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	a.router = newRouter(routerDeps{
		cfg:        cfg,
		logger:     logr,
		metrics:    a.metrics,
		timetables: handler.NewTimetableHandler(timetableSvc),
		absences:   handler.NewAbsenceHandler(absenceSvc),
		catalog:    handler.NewCatalogHandler(catalogSvc),
		exports:    exportHandler,
		health:     handler.NewMetricsHandler(a.metrics, checks),
	})
	return a, nil
}

func (a *app) wireExports(ctx context.Context, cfg *config.Config, logr *zap.Logger, timetables *service.TimetableService, validate *validator.Validate) (*service.ExportJobService, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(timetables, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	jobsRepo := repository.NewExportJobRepository()
	worker := service.NewExportWorker(jobsRepo, exporter, a.metrics, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("timetable-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)
	a.closers = append(a.closers, queue.Stop)
	a.metrics.TrackQueueDepth(queue.Pending)

	svc := service.NewExportJobService(jobsRepo, timetables, queue, exporter, a.metrics, validate, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	svc.StartCleanup(ctx)
	return svc, nil
}

type routerDeps struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *service.MetricsService
	timetables *handler.TimetableHandler
	absences   *handler.AbsenceHandler
	catalog    *handler.CatalogHandler
	exports    *handler.ExportHandler
	health     *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(d.metrics))

	r.GET("/health", d.health.Health)
	r.GET("/ready", d.health.Ready)
	r.GET("/metrics", d.health.Prometheus)

	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix)
	api.GET("/catalog", d.catalog.Get)
	api.POST("/catalog/refresh", d.catalog.Refresh)
	api.GET("/system/metrics", d.health.Stats)

	timetables := api.Group("/timetables")
	timetables.POST("/generate", d.timetables.Generate)
	timetables.GET("/:id", d.timetables.Get)
	timetables.DELETE("/:id", d.timetables.Delete)
	timetables.POST("/:id/subjects", d.timetables.AddSubject)
	timetables.POST("/:id/conflicts/check", d.timetables.CheckConflict)
	timetables.PUT("/:id/slots", d.timetables.EditSlot)
	timetables.GET("/:id/substitutes", d.timetables.Substitutes)

	api.GET("/substitutes", d.timetables.FindSubstitutes)
	api.POST("/teachers/:id/absences", d.absences.MarkAbsent)
	api.GET("/absences", d.absences.List)

	if d.exports != nil {
		timetables.POST("/:id/exports", d.exports.Create)
		api.GET("/exports/download", d.exports.Download)
		api.GET("/exports/:jobId", d.exports.Status)
	}
	return r
}
