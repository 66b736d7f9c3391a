// Package main wires together the Game Pass catalog service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/api"
	"github.com/pultar/gamepass-service/internal/catalog"
	"github.com/pultar/gamepass-service/internal/clock/system"
	"github.com/pultar/gamepass-service/internal/config"
	"github.com/pultar/gamepass-service/internal/crawl"
	"github.com/pultar/gamepass-service/internal/imagecache"
	"github.com/pultar/gamepass-service/internal/logging"
	"github.com/pultar/gamepass-service/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := store.NewRepository(ctx, store.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: time.Duration(cfg.DB.ConnLifetimeMin) * time.Minute,
	})
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer repo.Close()

	client, err := catalog.NewClient(catalog.ClientConfig{
		CatalogBaseURL:     cfg.Catalog.CatalogBaseURL,
		MarketplaceBaseURL: cfg.Catalog.MarketplaceBaseURL,
		UserAgent:          cfg.Catalog.UserAgent,
		Timeout:            cfg.CatalogTimeout(),
	})
	if err != nil {
		logger.Fatal("catalog client init failed", zap.Error(err))
	}

	index := catalog.NewIndex()
	clock := system.New()

	pipeline := crawl.NewPipeline(client, repo, index, clock, crawl.Config{
		DefaultLanguage: cfg.Crawl.DefaultLanguage,
		DefaultMarket:   cfg.Crawl.DefaultMarket,
		ChunkSize:       cfg.Crawl.ChunkSize,
		Concurrency:     cfg.Crawl.Concurrency,
	}, logger.Named("crawl"))
	notifier := crawl.NewMetadataNotifier(cfg.Notifier.URL, cfg.NotifierTimeout(), logger.Named("notifier"))
	coordinator := crawl.NewCoordinator(pipeline, notifier, clock, logger.Named("coordinator"))

	cache, err := imagecache.NewCache(cfg.ImageCache.Root)
	if err != nil {
		logger.Fatal("image cache init failed", zap.Error(err))
	}
	images := imagecache.NewService(cache, repo, client, cfg.Crawl.DefaultMarket, cfg.ImageTimeout(), logger.Named("images"))

	apiServer := api.NewServer(repo, client, coordinator, images, cache, index, clock, cfg, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	// A crawl in flight is cancelled cooperatively; partial persistence
	// is acceptable.
	coordinator.Cancel()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
