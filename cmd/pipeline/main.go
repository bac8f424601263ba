package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/config"
	"github.com/varys-hq/varys/internal/index"
	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/notifications"
	"github.com/varys-hq/varys/internal/pipeline"
	"github.com/varys-hq/varys/internal/sources"
	"github.com/varys-hq/varys/internal/storage"
	"github.com/varys-hq/varys/internal/store"
)

// One-shot pipeline run for a single company, useful for backfills and
// local testing without the server.
func main() {
	limit := flag.Int("limit", 10, "max search results per subreddit query")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-limit N] <company>\n", os.Args[0])
		os.Exit(2)
	}
	company := flag.Arg(0)

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

	var blobs storage.Interface
	if cfg.StorageBackend == "azure" {
		blobs, err = storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	} else {
		blobs, err = storage.NewLocalStorage(cfg.DataDir)
	}
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	dsn := cfg.DatabaseURL
	driver := cfg.DatabaseDriver
	if driver == "sqlite" {
		dsn = cfg.SQLitePath
	}
	db, err := store.Open(driver, dsn)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ai, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.EmbeddingModel)
	if err != nil {
		logrus.Fatalf("Failed to initialize OpenAI client: %v", err)
	}

	scraper := sources.NewRedditScraper(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	builder := index.NewBuilder(db, ai, blobs)
	service := pipeline.NewService(scraper, blobs, ai, db, builder, notifications.NewService(cfg))

	report, err := service.Run(context.Background(), company, *limit)
	if err != nil {
		logrus.Fatalf("Pipeline run failed for %s: %v", company, err)
	}

	fmt.Printf("Run %s complete for %s: %d enriched, %d inserted, %d skipped, %d failed, %d indexed\n",
		report.RunID, company, report.Enriched, report.Inserted, report.Skipped, report.Failed, report.Indexed)
}
