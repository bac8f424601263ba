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

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/api"
	"github.com/varys-hq/varys/internal/chat"
	"github.com/varys-hq/varys/internal/config"
	"github.com/varys-hq/varys/internal/index"
	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/notifications"
	"github.com/varys-hq/varys/internal/pipeline"
	"github.com/varys-hq/varys/internal/scheduler"
	"github.com/varys-hq/varys/internal/sources"
	"github.com/varys-hq/varys/internal/storage"
	"github.com/varys-hq/varys/internal/store"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Varys")

	// Initialize blob storage
	blobs, err := newStorage(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize the relational store
	db, err := openStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize the OpenAI client (chat + embeddings)
	ai, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.EmbeddingModel)
	if err != nil {
		logrus.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	// Wire the services
	scraper := sources.NewRedditScraper(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	builder := index.NewBuilder(db, ai, blobs)
	notifier := notifications.NewService(cfg)
	pipelineService := pipeline.NewService(scraper, blobs, ai, db, builder, notifier)
	chatEngine := chat.NewEngine(db, blobs, ai, ai, cfg.RetrievalTopK)

	// Initialize scheduler
	schedulerService, err := scheduler.NewService(cfg, pipelineService)
	if err != nil {
		logrus.Fatalf("Failed to initialize scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up the HTTP API
	handler := api.NewHandler(db, chatEngine, pipelineService, cfg.ScrapeLimit)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
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

func newStorage(cfg *config.Config) (storage.Interface, error) {
	if cfg.StorageBackend == "azure" {
		return storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	}
	return storage.NewLocalStorage(cfg.DataDir)
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.DatabaseDriver == "postgres" {
		return store.Open("postgres", cfg.DatabaseURL)
	}
	return store.Open("sqlite", cfg.SQLitePath)
}
