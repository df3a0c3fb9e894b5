package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"LF-DOCGEN/internal"
	"LF-DOCGEN/internal/config"
	"LF-DOCGEN/internal/handlers"
	"LF-DOCGEN/internal/resolver"
	"LF-DOCGEN/internal/schema"
	"LF-DOCGEN/internal/services"
	"LF-DOCGEN/internal/storage"
	"LF-DOCGEN/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := internal.OpenDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer internal.CloseDB(db)

	ctx := context.Background()
	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open blob storage")
	}
	defer blobs.Close()

	registry := schema.Defaults()
	if cfg.Schema.DocumentTypesPath != "" {
		if err := registry.LoadFile(cfg.Schema.DocumentTypesPath); err != nil {
			log.WithError(err).Fatal("failed to load document type schemas")
		}
	}
	synonyms := resolver.NewSynonymTable()
	if cfg.Schema.SynonymsPath != "" {
		if err := synonyms.LoadFile(cfg.Schema.SynonymsPath); err != nil {
			log.WithError(err).Fatal("failed to load synonyms")
		}
	}

	st := store.NewGormStore(db)
	templateService := services.NewTemplateService(st, log)
	generatorService := services.NewGeneratorService(st, blobs, registry, log)
	profileService := services.NewProfileService(st)
	activityLogService := services.NewActivityLogService(st, log)
	res := resolver.New(st, synonyms, log)

	templatesHandler := handlers.NewTemplatesHandler(templateService, res)
	generateHandler := handlers.NewGenerateHandler(generatorService, res)
	profileHandler := handlers.NewProfileHandler(profileService)
	logsHandler := handlers.NewLogsHandler(activityLogService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "X-Firm-ID"},
		MaxAge:       12 * time.Hour,
	}))
	r.Use(activityLogService.LoggingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/templates", templatesHandler.Import)
		v1.GET("/templates", templatesHandler.List)
		v1.GET("/templates/:templateId", templatesHandler.Get)
		v1.POST("/templates/deactivate", templatesHandler.Deactivate)
		v1.POST("/templates/resolve", templatesHandler.Resolve)

		v1.POST("/generate", generateHandler.Generate)
		v1.POST("/generate/batch", generateHandler.GenerateBatch)
		v1.GET("/documents/:documentId/download", generateHandler.Download)
		v1.GET("/history", generateHandler.History)

		v1.POST("/profile", profileHandler.Save)
		v1.GET("/profile", profileHandler.Get)

		v1.GET("/logs", logsHandler.GetLogs)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.Storage.Backend == "local" {
		return storage.NewLocalStore(cfg.Storage.LocalDir)
	}
	return storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.CredentialsPath)
}
