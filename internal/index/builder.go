package index

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/models"
	"github.com/varys-hq/varys/internal/storage"
)

// MentionReader supplies the persisted mentions the builder embeds.
type MentionReader interface {
	MentionsForCompany(ctx context.Context, company string) ([]models.Mention, error)
}

// Builder converts all persisted mentions for one company into embedded
// documents and writes the company-scoped index to durable storage.
type Builder struct {
	mentions MentionReader
	embedder llm.Embedder
	storage  storage.Interface
}

// NewBuilder creates a semantic index builder.
func NewBuilder(mentions MentionReader, embedder llm.Embedder, store storage.Interface) *Builder {
	return &Builder{mentions: mentions, embedder: embedder, storage: store}
}

// Build rebuilds the index for one company and returns the number of
// indexed documents. The indexed content is the translation when present,
// the raw text otherwise; rows with neither are skipped. When zero
// eligible documents exist nothing is written: an empty index is never
// persisted, so a missing index stays diagnosable at query time.
func (b *Builder) Build(ctx context.Context, company string) (int, error) {
	mentions, err := b.mentions.MentionsForCompany(ctx, company)
	if err != nil {
		return 0, fmt.Errorf("failed to read mentions for %s: %w", company, err)
	}

	var docs []Document
	var contents []string
	for _, m := range mentions {
		content := m.Translated
		if content == "" {
			content = m.Text
		}
		if content == "" {
			continue
		}

		docs = append(docs, Document{
			Content: content,
			Metadata: DocumentMetadata{
				Type:      m.Type,
				Sentiment: m.Sentiment,
				Keywords:  m.Keywords,
				Company:   company,
			},
		})
		contents = append(contents, content)
	}

	if len(docs) == 0 {
		logrus.Warnf("No documents found for %s, skipping index creation", company)
		return 0, nil
	}

	vectors, err := b.embedder.EmbedBatch(ctx, contents)
	if err != nil {
		return 0, fmt.Errorf("failed to embed documents for %s: %w", company, err)
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	ix := &Index{
		Company:   company,
		BuiltAt:   time.Now().UTC(),
		Documents: docs,
	}
	if err := ix.Save(b.storage); err != nil {
		return 0, err
	}

	logrus.Infof("Saved semantic index for %s (%d documents)", company, len(docs))
	return len(docs), nil
}
