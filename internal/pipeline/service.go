package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/enrichment"
	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/models"
	"github.com/varys-hq/varys/internal/notifications"
	"github.com/varys-hq/varys/internal/sources"
	"github.com/varys-hq/varys/internal/storage"
	"github.com/varys-hq/varys/internal/store"
)

// MentionStore is the slice of the relational store the pipeline writes.
type MentionStore interface {
	InsertMention(ctx context.Context, m models.EnrichedMention) (store.InsertOutcome, error)
	SetCompanyStatus(ctx context.Context, name, status string) error
}

// IndexBuilder rebuilds one company's semantic index.
type IndexBuilder interface {
	Build(ctx context.Context, company string) (int, error)
}

// Service orchestrates the per-company pipeline: scrape, gather, enrich,
// populate the mention store, rebuild the semantic index. Each phase
// commits its output independently; downstream phases operate on
// whatever the upstream successfully produced.
type Service struct {
	scraper  sources.Scraper
	storage  storage.Interface
	model    llm.ChatModel
	mentions MentionStore
	builder  IndexBuilder
	notifier notifications.NotificationInterface
}

// NewService creates a pipeline service.
func NewService(scraper sources.Scraper, blobs storage.Interface, model llm.ChatModel, mentions MentionStore, builder IndexBuilder, notifier notifications.NotificationInterface) *Service {
	return &Service{
		scraper:  scraper,
		storage:  blobs,
		model:    model,
		mentions: mentions,
		builder:  builder,
		notifier: notifier,
	}
}

// Run executes the full pipeline for one company and returns the run
// report. Per-record failures are counted, not fatal; a phase that
// cannot produce any output fails the run.
func (s *Service) Run(ctx context.Context, company string, limit int) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.NewString(),
		Company:   company,
		StartedAt: time.Now().UTC(),
	}
	logrus.Infof("Starting pipeline run %s for %s", report.RunID, company)

	err := s.run(ctx, company, limit, report)
	report.Duration = time.Since(report.StartedAt)
	if err != nil {
		report.Err = err.Error()
		s.setStatus(ctx, company, models.StatusFailed)
	} else {
		s.setStatus(ctx, company, models.StatusReady)
	}

	if s.notifier != nil {
		if nerr := s.notifier.SendRunReport(report); nerr != nil {
			logrus.Errorf("Failed to send run report for %s: %v", company, nerr)
		}
	}

	if err != nil {
		return report, err
	}
	logrus.Infof("Pipeline run %s for %s completed in %v: %d inserted, %d skipped, %d failed",
		report.RunID, company, report.Duration, report.Inserted, report.Skipped, report.Failed)
	return report, nil
}

func (s *Service) run(ctx context.Context, company string, limit int, report *models.RunReport) error {
	// Scrape
	s.setStatus(ctx, company, models.StatusScraping)
	posts, err := s.scraper.Scrape(ctx, company, limit)
	if err != nil {
		return fmt.Errorf("scraping failed: %w", err)
	}
	report.Scraped = len(posts)
	if err := s.storeJSON(fmt.Sprintf("data/raw/reddit_%s.json", company), posts); err != nil {
		return err
	}

	// Gather raw mentions from posts and comments
	raw := sources.ExtractMentions(posts, company)
	report.RawMentions = len(raw)
	if err := s.storeJSON(fmt.Sprintf("data/processed/reddit_mentions_%s.json", company), raw); err != nil {
		return err
	}
	logrus.Infof("Gathered %d raw mentions for %s from %d posts", len(raw), company, len(posts))

	// Enrich
	s.setStatus(ctx, company, models.StatusEnriching)
	enricher := enrichment.NewEnricher(enrichment.NewStage(s.model, company))
	batch := enricher.EnrichBatch(ctx, company, raw)
	report.Enriched = len(batch.Mentions)
	report.Failed += batch.Failed
	if err := s.storeJSON(fmt.Sprintf("data/processed/enriched_mentions_%s.json", company), batch.Mentions); err != nil {
		return err
	}

	// Populate the mention store, one independently committed row at a
	// time; a failed record never aborts the batch.
	s.setStatus(ctx, company, models.StatusPopulating)
	for i, m := range batch.Mentions {
		outcome, err := s.mentions.InsertMention(ctx, m)
		if err != nil {
			logrus.Errorf("Failed to insert mention %d/%d for %s: %v", i+1, len(batch.Mentions), company, err)
		}
		switch outcome {
		case store.Inserted:
			report.Inserted++
		case store.SkippedDuplicate:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	// Rebuild the semantic index over everything persisted so far
	s.setStatus(ctx, company, models.StatusIndexing)
	indexed, err := s.builder.Build(ctx, company)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	report.Indexed = indexed

	return nil
}

func (s *Service) storeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := s.storage.Store(name, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

// setStatus is best-effort: a status write failing never interrupts the
// run it describes.
func (s *Service) setStatus(ctx context.Context, company, status string) {
	if err := s.mentions.SetCompanyStatus(ctx, company, status); err != nil {
		logrus.Warnf("Failed to set status %q for %s: %v", status, company, err)
	}
}
