package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/litigo/ediscovery-api/internal/handler"
	"github.com/litigo/ediscovery-api/internal/ingest"
	"github.com/litigo/ediscovery-api/internal/middleware"
	"github.com/litigo/ediscovery-api/internal/repository"
	"github.com/litigo/ediscovery-api/internal/service"
	"github.com/litigo/ediscovery-api/pkg/cache"
	"github.com/litigo/ediscovery-api/pkg/config"
	"github.com/litigo/ediscovery-api/pkg/database"
	"github.com/litigo/ediscovery-api/pkg/jobs"
	"github.com/litigo/ediscovery-api/pkg/logger"
	corsmiddleware "github.com/litigo/ediscovery-api/pkg/middleware/cors"
	reqidmiddleware "github.com/litigo/ediscovery-api/pkg/middleware/requestid"
	"github.com/litigo/ediscovery-api/pkg/storage"
)

// workQueue is satisfied by both the in-process and the Redis-backed queues.
type workQueue interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(job jobs.Job) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	needsRedis := cfg.Cache.Enabled ||
		cfg.Ingestion.QueueBackend == config.QueueBackendRedis ||
		cfg.Production.QueueBackend == config.QueueBackendRedis
	if needsRedis {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	store, err := storage.NewLocalStorage(cfg.Storage.BaseDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Production.SignedURLSecret, cfg.Production.SignedURLTTL)

	docRepo := repository.NewDocumentRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	redactionRepo := repository.NewRedactionRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheClient *redis.Client
	if cfg.Cache.Enabled {
		cacheClient = redisClient
	}
	cacheRepo := repository.NewCacheRepository(cacheClient, logr)

	metricsSvc := service.NewMetricsService()

	// The queues and the pipeline services reference each other: a service
	// enqueues follow-up jobs onto the queue that drives it. The queues are
	// built first with handlers that forward to the services assigned below.
	var (
		ingestionSvc  *service.IngestionService
		productionSvc *service.ProductionService
	)
	ingestQueue := newQueue(cfg.Ingestion.QueueBackend, "ingestion", redisClient,
		func(ctx context.Context, job jobs.Job) error { return ingestionSvc.Handle(ctx, job) },
		jobs.QueueConfig{
			Workers:    cfg.Ingestion.WorkerConcurrency,
			MaxRetries: cfg.Ingestion.WorkerRetries,
			RetryDelay: cfg.Ingestion.RetryBackoff,
			Logger:     logr,
		})
	// Production runs on a single worker: Bates numbers are drawn from one
	// gapless counter per job and runs must not interleave.
	produceQueue := newQueue(cfg.Production.QueueBackend, "production", redisClient,
		func(ctx context.Context, job jobs.Job) error { return productionSvc.Handle(ctx, job) },
		jobs.QueueConfig{
			Workers:    1,
			MaxRetries: cfg.Production.WorkerRetries,
			RetryDelay: cfg.Production.RetryBackoff,
			Logger:     logr,
		})

	parser := ingest.NewContainerParser()
	var extractor ingest.Extractor
	var ocr ingest.OCREngine = ingest.NewDisabledOCR()
	if cfg.Ingestion.ExtractorBackend == config.ExtractorBackendTika {
		tika := ingest.NewTikaExtractor(cfg.Ingestion.TikaURL, cfg.Ingestion.TikaTimeout)
		extractor = ingest.NewFallbackExtractor(tika, ingest.NewLocalExtractor())
		if cfg.Ingestion.OCREnabled {
			ocr = tika
		}
	} else {
		extractor = ingest.NewLocalExtractor()
	}

	ingestionSvc = service.NewIngestionService(docRepo, store, ingestQueue, parser, extractor, ocr, metricsSvc, logr)
	documentSvc := service.NewDocumentService(docRepo, folderRepo, store, ingestionSvc, auditRepo, cacheRepo, logr)
	redactionSvc := service.NewRedactionService(redactionRepo, docRepo, auditRepo, logr)
	productionSvc = service.NewProductionService(productionRepo, docRepo, folderRepo, redactionRepo, auditRepo, store, produceQueue, metricsSvc, logr)
	reportSvc := service.NewReportService(productionRepo, docRepo, store, signer, logr)

	docHandler := handler.NewDocumentHandler(documentSvc)
	redactionHandler := handler.NewRedactionHandler(redactionSvc)
	productionHandler := handler.NewProductionHandler(productionSvc, reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)

	documents := api.Group("/documents")
	documents.POST("", docHandler.Upload)
	documents.GET("", docHandler.List)
	documents.GET("/:id", docHandler.Get)
	documents.GET("/:id/family", docHandler.Family)
	documents.GET("/:id/attachments", docHandler.Attachments)
	documents.PATCH("/:id/coding", docHandler.UpdateCoding)
	documents.POST("/:id/reingest", docHandler.Reingest)
	documents.POST("/:id/redactions", redactionHandler.Create)
	documents.GET("/:id/redactions", redactionHandler.List)
	documents.PUT("/:id/redactions/:redactionId", redactionHandler.Update)
	documents.DELETE("/:id/redactions/:redactionId", redactionHandler.Delete)

	folders := api.Group("/folders")
	folders.POST("", docHandler.CreateFolder)
	folders.GET("", docHandler.ListFolders)
	folders.POST("/:id/documents", docHandler.FileDocument)
	folders.DELETE("/:id/documents/:documentId", docHandler.UnfileDocument)

	productions := api.Group("/productions")
	productions.POST("", productionHandler.Create)
	productions.GET("", productionHandler.List)
	productions.GET("/:id", productionHandler.Get)
	productions.POST("/:id/start", productionHandler.Start)
	productions.GET("/:id/documents", productionHandler.Documents)
	productions.GET("/:id/pages", productionHandler.Pages)
	productions.POST("/:id/report", productionHandler.GenerateReport)
	productions.GET("/:id/report/download", productionHandler.DownloadReport)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestQueue.Start(rootCtx)
	produceQueue.Start(rootCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown incomplete", "error", err)
	}

	ingestQueue.Stop()
	produceQueue.Stop()
}

func newQueue(backend, name string, client *redis.Client, h jobs.Handler, cfg jobs.QueueConfig) workQueue {
	if backend == config.QueueBackendRedis && client != nil {
		return jobs.NewRedisQueue(name, client, h, cfg)
	}
	return jobs.NewQueue(name, h, cfg)
}
