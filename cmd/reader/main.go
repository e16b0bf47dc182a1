package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/hn-reader/internal/api"
	"github.com/azure/hn-reader/internal/brain"
	"github.com/azure/hn-reader/internal/config"
	"github.com/azure/hn-reader/internal/feed"
	"github.com/azure/hn-reader/internal/models"
	"github.com/azure/hn-reader/internal/navigation"
	"github.com/azure/hn-reader/internal/scheduler"
	"github.com/azure/hn-reader/internal/sources"
	"github.com/azure/hn-reader/internal/storage"
	"github.com/azure/hn-reader/internal/translation"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting HN Reader")

	store, closeStore, err := openStorage(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStore()

	prefs := storage.LoadPreferences(store, cfg.DefaultLanguage)

	policy := sources.RetryPolicy{Attempts: uint(cfg.RetryAttempts), Delay: cfg.RetryDelay}
	items := sources.NewHackerNewsClient(cfg.HNAPIURL, cfg.HTTPTimeout, policy)
	search := sources.NewAlgoliaClient(cfg.HNSearchURL, cfg.HTTPTimeout, policy, cfg.UserHitsPerPage, cfg.JobHitsPerPage)

	providers := brain.NewProviderManager(
		brain.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel),
		brain.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	)
	providers.SetPreferred(cfg.GenAIProvider)
	if len(providers.ListAvailable()) == 0 {
		logrus.Warn("No text-generation provider configured; translations fall back to the original text")
	}

	gateway := translation.NewGateway(translation.NewCache(), providers, cfg.GenAIRequestsPerS)
	pager := feed.NewPager(items, search, prefs, cfg.PageSize)
	navigator := navigation.New(items, search, gateway, prefs, pager, navigation.Layout(cfg.Layout))

	// Open the default feed so the first /state already has content
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := navigator.SwitchFeed(ctx, models.FeedTop); err != nil {
			logrus.Errorf("Initial feed load failed: %v", err)
		}
	}()

	schedulerService := scheduler.NewService(cfg, gateway, navigator)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewServer(navigator, gateway).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func openStorage(cfg *config.Config) (storage.StorageInterface, func(), error) {
	switch cfg.StorageBackend {
	case "sqlite":
		db, err := storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case "azure":
		blob, err := storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			return nil, nil, err
		}
		return blob, func() {}, nil
	default:
		files, err := storage.NewFileStorage(cfg.StorageDir)
		if err != nil {
			return nil, nil, err
		}
		return files, func() {}, nil
	}
}
