package enrichment

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/models"
)

// Enricher drives the enrichment stage across a batch of raw mentions,
// collapsing duplicate inputs into one enriched output per dedup key.
type Enricher struct {
	stage *Stage
}

// BatchResult summarizes one batch enrichment run.
type BatchResult struct {
	Mentions []models.EnrichedMention
	Skipped  int // items with empty text
	Failed   int // items whose enrichment failed
}

// NewEnricher creates a batch enricher around one stage.
func NewEnricher(stage *Stage) *Enricher {
	return &Enricher{stage: stage}
}

// EnrichBatch enriches every input item in order. Items with empty text
// are skipped, a single item's failure does not abort the batch, and a
// later item with the same dedup key fully replaces the earlier result
// (re-scraping may produce refreshed content under a stable id).
func (e *Enricher) EnrichBatch(ctx context.Context, company string, items []models.RawMention) BatchResult {
	var result BatchResult
	byKey := make(map[string]models.EnrichedMention)
	var order []string

	for i, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			logrus.Warnf("Skipping mention %d: empty text", i)
			result.Skipped++
			continue
		}

		enr, err := e.stage.Enrich(ctx, item.Text)
		if err != nil {
			logrus.Errorf("Failed to enrich mention %d (key %s): %v", i, item.DedupKey(), err)
			result.Failed++
			continue
		}

		key := item.DedupKey()
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = merge(company, item, enr)
	}

	for _, key := range order {
		result.Mentions = append(result.Mentions, byKey[key])
	}
	return result
}

// merge combines a raw mention with its enrichment output. The model's
// type classification overrides the scraper's hint when present, and
// keywords are normalized from a comma-delimited string into a list.
func merge(company string, raw models.RawMention, enr models.Enrichment) models.EnrichedMention {
	mentionType := enr.Type
	if mentionType == "" {
		mentionType = raw.Type
	}

	return models.EnrichedMention{
		ID:            raw.ID,
		Company:       company,
		Source:        raw.Source,
		Text:          raw.Text,
		Type:          mentionType,
		Translated:    enr.Translated,
		Sentiment:     enr.Sentiment,
		Keywords:      NormalizeKeywords(enr.Keywords),
		FocusedReview: enr.FocusedReview,
	}
}

// NormalizeKeywords splits a comma-delimited keyword string into trimmed,
// non-empty tokens. The result is never nil-for-a-string: an enriched
// mention always carries a list before persistence.
func NormalizeKeywords(raw string) []string {
	keywords := []string{}
	for _, token := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(token); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}
