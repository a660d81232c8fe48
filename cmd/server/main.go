package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/linelist/backend/api/handler"
	"github.com/linelist/backend/internal/config"
	mongoInfra "github.com/linelist/backend/internal/infrastructure/mongodb"
	"github.com/linelist/backend/internal/infrastructure/monitor"
	"github.com/linelist/backend/internal/infrastructure/spool"
	"github.com/linelist/backend/internal/router"
	"github.com/linelist/backend/internal/services"
	"github.com/linelist/backend/internal/services/lifecycle"
	"github.com/linelist/backend/pkg/geocode"
	"github.com/linelist/backend/pkg/httpcontext"
	"github.com/linelist/backend/pkg/logger"
	mongoRepo "github.com/linelist/backend/repository/mongo"
	casesUC "github.com/linelist/backend/usecase/cases"
	ingestUC "github.com/linelist/backend/usecase/ingest"
	schemaUC "github.com/linelist/backend/usecase/schema"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	mongoClient, err := mongoInfra.Connect(appCtx, cfg.Mongo, zapLogger)
	if err != nil {
		zapLogger.Fatal("mongodb connection failed", zap.Error(err))
	}
	manager.Register("mongodb", func(ctx context.Context) error {
		mongoInfra.Close(ctx, mongoClient, zapLogger)
		return nil
	})

	spoolStore, err := spool.Open(cfg.Spool.Path, cfg.Spool.Bucket)
	if err != nil {
		zapLogger.Fatal("failed to open spool store", zap.Error(err))
	}
	manager.Register("spool", func(ctx context.Context) error {
		return spoolStore.Close()
	})

	mon := monitor.New(mongoClient, spoolStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	store := mongoRepo.NewStore(mongoClient.Database(cfg.Mongo.Database), zapLogger)

	registry := schemaUC.New(store, store, zapLogger)
	if err := registry.Load(appCtx); err != nil {
		zapLogger.Fatal("schema load failed", zap.Error(err))
	}

	controller := casesUC.New(store, registry, cfg.Outbreak.StartDate, zapLogger).
		WithDeleteThreshold(cfg.Outbreak.DeleteThreshold)

	geocoder := geocode.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout)
	normalizer := ingestUC.NewNormalizer(geocoder, zapLogger)
	ingestUseCase := ingestUC.New(normalizer, controller, spoolStore, zapLogger)

	spoolProcessor := services.NewSpoolProcessor(
		spoolStore,
		mon,
		controller,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Spool.DrainInterval,
			BatchSize:  cfg.Spool.BatchSize,
			MaxRetries: cfg.Spool.MaxRetry,
			Retention:  time.Duration(cfg.Spool.RetentionHours) * time.Hour,
		},
	)
	spoolProcessor.Start()
	manager.Register("spool_processor", func(ctx context.Context) error {
		spoolProcessor.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Case:   apiHandler.NewCaseHandler(controller, ctxAdapter, zapLogger),
		Field:  apiHandler.NewFieldHandler(registry, ctxAdapter, zapLogger),
		Ingest: apiHandler.NewIngestHandler(ingestUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
