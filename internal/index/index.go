package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/varys-hq/varys/internal/llm"
	"github.com/varys-hq/varys/internal/storage"
)

// ErrNotFound is returned when no semantic index has ever been built for
// a company. Callers must be able to tell this apart from transport or
// decoding failures.
var ErrNotFound = errors.New("semantic index not found")

// DocumentMetadata is the side information attached to each embedded
// document.
type DocumentMetadata struct {
	Type      string   `json:"type"`
	Sentiment string   `json:"sentiment"`
	Keywords  []string `json:"keywords"`
	Company   string   `json:"company"`
}

// Document is one embedded mention in a company index.
type Document struct {
	Content   string           `json:"content"`
	Metadata  DocumentMetadata `json:"metadata"`
	Embedding []float32        `json:"embedding"`
}

// Index is the per-company semantic index over enriched mention content.
// It is rebuilt wholesale on every build; there is no incremental update.
type Index struct {
	Company   string     `json:"company"`
	BuiltAt   time.Time  `json:"built_at"`
	Documents []Document `json:"documents"`
}

// ObjectName returns the storage key for a company's index, addressed by
// the case-folded company name.
func ObjectName(company string) string {
	return fmt.Sprintf("vectorstores/%s_mentions.json", strings.ToLower(company))
}

// Load reads a company's index from durable storage. A company with no
// built index yields ErrNotFound.
func Load(store storage.Interface, company string) (*Index, error) {
	data, err := store.Retrieve(ObjectName(company))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no index for %s: %w", company, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load index for %s: %w", company, err)
	}

	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("failed to decode index for %s: %w", company, err)
	}
	return &ix, nil
}

// Save writes the index to durable storage, replacing any prior index
// for the company.
func (ix *Index) Save(store storage.Interface) error {
	data, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index for %s: %w", ix.Company, err)
	}
	if err := store.Store(ObjectName(ix.Company), data); err != nil {
		return fmt.Errorf("failed to save index for %s: %w", ix.Company, err)
	}
	return nil
}

// Search returns the top-k documents most semantically similar to the
// query.
func (ix *Index) Search(ctx context.Context, embedder llm.Embedder, query string, k int) ([]Document, error) {
	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		doc   Document
		score float32
	}
	results := make([]scored, 0, len(ix.Documents))
	for _, doc := range ix.Documents {
		results = append(results, scored{doc, CosineSimilarity(queryVec, doc.Embedding)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if k > len(results) {
		k = len(results)
	}
	docs := make([]Document, k)
	for i := 0; i < k; i++ {
		docs[i] = results[i].doc
	}
	return docs, nil
}

// CosineSimilarity computes similarity between two embeddings. Returns
// 1.0 for identical vectors, 0.0 for orthogonal vectors, mismatched
// lengths or zero vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return float32(dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)))
}
