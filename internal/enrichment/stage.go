package enrichment

import (
	"context"
	"fmt"
	"sync"

	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/models"
)

// Stage applies the fixed sequence of model-driven transformations to one
// raw text unit: translate first, then classify, sentiment, keywords and
// company-focus extraction off the translated text.
type Stage struct {
	model   llm.ChatModel
	company string
}

// NewStage creates an enrichment stage targeting one company.
func NewStage(model llm.ChatModel, company string) *Stage {
	return &Stage{model: model, company: company}
}

// Enrich runs the full transformation pipeline for one text. Translation
// is a prerequisite; the four follow-up calls have no data dependency on
// each other and are dispatched concurrently. Any call failing fails the
// whole merge.
func (s *Stage) Enrich(ctx context.Context, text string) (models.Enrichment, error) {
	translated, err := s.model.Complete(ctx, "", llm.TranslatePrompt(text))
	if err != nil {
		return models.Enrichment{}, fmt.Errorf("translate: %w", err)
	}

	type step struct {
		name   string
		prompt string
		out    *string
	}

	result := models.Enrichment{Translated: translated}
	steps := []step{
		{"classify", llm.ClassifyPrompt(translated), &result.Type},
		{"sentiment", llm.SentimentPrompt(translated), &result.Sentiment},
		{"keywords", llm.KeywordsPrompt(translated), &result.Keywords},
		{"focus", llm.FocusPrompt(s.company, translated), &result.FocusedReview},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(steps))
	for i := range steps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st := steps[i]
			out, err := s.model.Complete(ctx, "", st.prompt)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", st.name, err)
				return
			}
			*st.out = out
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return models.Enrichment{}, err
		}
	}

	return result, nil
}
