package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "taxdesk/docs"
	"taxdesk/internal/config"
	sesemail "taxdesk/internal/email/ses"
	noopemail "taxdesk/internal/email/noop"
	"taxdesk/internal/handler"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
	"taxdesk/internal/repository/memory"
	"taxdesk/internal/repository/mongodb"
	"taxdesk/internal/repository/postgres"
	"taxdesk/internal/router"
	"taxdesk/internal/section"
	"taxdesk/internal/service"
	s3storage "taxdesk/internal/storage/s3"
)

// @title taxdesk API
// @version 1.0
// @description Tax filing profile, document review and filing administration API.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appLog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLog.Sync()
	zap.ReplaceGlobals(appLog.Zap())

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	registry := section.Default()
	deps := map[string]handler.Pinger{"database": db}

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	filingRepo := postgres.NewTaxFilingRepo(db)

	var sectionStore port.SectionStore
	switch cfg.Storage.SectionsDriver {
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, &cfg.Mongo)
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		mdb := client.Database(cfg.Mongo.Database)
		if err := mongodb.EnsureIndexes(ctx, mdb, registry.All()); err != nil {
			return fmt.Errorf("failed to create mongo indexes: %w", err)
		}
		sectionStore = mongodb.NewSectionStore(mdb)
		deps["mongodb"] = handler.PingFunc(func(ctx context.Context) error { return client.Ping(ctx, nil) })
	case config.DriverMemory:
		appLog.Warn("section data is kept in memory and lost on restart")
		sectionStore = memory.NewSectionStore()
	default:
		sectionStore = postgres.NewSectionStore(db)
	}
	appLog.Info("section store ready", "driver", cfg.Storage.SectionsDriver, "sections", len(registry.All()))

	// Initialize storage
	var objectStorage port.ObjectStorage
	if cfg.S3.Enabled() {
		objectStorage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	var sender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		sender, err = sesemail.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Frontend.URL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		sender = noopemail.NewNoopSender(appLog)
	}

	dispatcher := service.NewNotificationDispatcher(sender, service.NotificationConfig{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		SendTimeout: cfg.Notify.SendTimeout,
	}, appLog)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Start(ctx)
	}()

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	profileSvc := service.NewProfileService(registry, sectionStore, filingRepo, cfg.Fanout.ReadConcurrency, appLog)
	bulkSvc := service.NewBulkService(registry, sectionStore, cfg.Fanout.WriteConcurrency, appLog)
	adminDocSvc := service.NewAdminDocumentService(registry, sectionStore, userRepo, objectStorage,
		service.StorageSettings{Bucket: cfg.S3.Bucket, PresignExpiry: cfg.S3.PresignExpiry}, dispatcher, appLog)
	adminFilingSvc := service.NewAdminTaxFilingService(filingRepo, userRepo, dispatcher, appLog)
	filingSvc := service.NewTaxFilingService(filingRepo, appLog)

	// Initialize handlers
	handlers := router.Handlers{
		Profile:        handler.NewProfileHandler(profileSvc, bulkSvc),
		TaxFiling:      handler.NewTaxFilingHandler(filingSvc),
		AdminDocument:  handler.NewAdminDocumentHandler(adminDocSvc),
		AdminTaxFiling: handler.NewAdminTaxFilingHandler(adminFilingSvc),
		Config:         handler.NewConfigHandler(cfg.Server.PublicBaseURL, cfg.Frontend.URL),
		Health:         handler.NewHealthHandler(deps),
	}

	// Setup router
	r := router.Setup(authSvc, handlers, router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ErrorDetail:    cfg.Server.IsDevelopment(),
		Swagger:        cfg.Server.IsDevelopment(),
	}, appLog)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("server starting", "addr", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-dispatcherDone
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	appLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", "error", err)
	}
	<-dispatcherDone
	return nil
}
