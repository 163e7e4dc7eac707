package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/pepmenu/storefront/catalog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("error shutting down telemetry", zap.Error(err))
		}
	}()

	menu, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStorage() }()

	archive, closeArchive, err := openOrderArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	metrics, err := newStorefrontMetrics(otel.Meter(instrumentationName))
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// Initialize dependencies
	useCase := NewStorefrontUseCase(cfg, menu, storage, archive, logger, metrics)
	defer useCase.Close()
	handler := NewStorefrontHandler(useCase, otel.Tracer(instrumentationName), cfg)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(recovery(logger), otelgin.Middleware(cfg.ServiceName), requestLogger(logger))
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront listening",
			zap.String("port", cfg.Port),
			zap.String("restaurant", cfg.RestaurantName),
			zap.String("storage", cfg.StorageDriver),
			zap.String("archive", cfg.OrderArchive),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadCatalog carrega o cardápio embutido ou o arquivo de CATALOG_PATH.
// RESTAURANT_NAME prevalece sobre o nome do documento.
func loadCatalog(cfg Config) (*catalog.Catalog, error) {
	menu := catalog.Default()
	if cfg.CatalogPath != "" {
		var err error
		if menu, err = catalog.LoadFile(cfg.CatalogPath); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	menu.Restaurant.Name = cfg.RestaurantName
	return menu, nil
}
