package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varys-hq/varys/internal/models"
)

func TestEnricher_CollapsesIdenticalText(t *testing.T) {
	enricher := NewEnricher(NewStage(&fakeModel{}, "Acme"))

	result := enricher.EnrichBatch(context.Background(), "Acme", []models.RawMention{
		{Text: "Acme is a great place to work"},
		{Text: "Acme is a great place to work"},
	})

	// Identical text with no id hashes to the same dedup key
	require.Len(t, result.Mentions, 1)
	assert.Equal(t, "Acme is a great place to work", result.Mentions[0].Text)
	assert.Equal(t, "Acme", result.Mentions[0].Company)
}

func TestEnricher_LastWriteWinsPerID(t *testing.T) {
	enricher := NewEnricher(NewStage(&fakeModel{}, "Acme"))

	result := enricher.EnrichBatch(context.Background(), "Acme", []models.RawMention{
		{ID: "t3_abc", Text: "old content"},
		{ID: "t3_xyz", Text: "other content"},
		{ID: "t3_abc", Text: "refreshed content"},
	})

	require.Len(t, result.Mentions, 2)
	assert.Equal(t, "refreshed content", result.Mentions[0].Text)
	assert.Equal(t, "EN refreshed content", result.Mentions[0].Translated)
	assert.Equal(t, "other content", result.Mentions[1].Text)
}

func TestEnricher_SkipsEmptyText(t *testing.T) {
	enricher := NewEnricher(NewStage(&fakeModel{}, "Acme"))

	result := enricher.EnrichBatch(context.Background(), "Acme", []models.RawMention{
		{Text: ""},
		{Text: "   "},
		{Text: "real mention of Acme"},
	})

	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Mentions, 1)
}

func TestEnricher_IsolatesItemFailures(t *testing.T) {
	// Every translate call fails, so every item fails, but the batch
	// itself completes
	enricher := NewEnricher(NewStage(&fakeModel{failStep: "translate"}, "Acme"))

	result := enricher.EnrichBatch(context.Background(), "Acme", []models.RawMention{
		{Text: "first"},
		{Text: "second"},
	})

	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, result.Mentions)
}

func TestEnricher_NormalizesKeywords(t *testing.T) {
	enricher := NewEnricher(NewStage(&fakeModel{}, "Acme"))

	result := enricher.EnrichBatch(context.Background(), "Acme", []models.RawMention{
		{Text: "mention"},
	})

	require.Len(t, result.Mentions, 1)
	assert.Equal(t, []string{"salary", "culture", "growth"}, result.Mentions[0].Keywords)
}

func TestNormalizeKeywords(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{"plain list", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace", " a , b  ,c ", []string{"a", "b", "c"}},
		{"empty tokens", "a,,b,", []string{"a", "b"}},
		{"empty string", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKeywords(tt.raw))
		})
	}
}
