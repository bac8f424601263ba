package index

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varys-hq/varys/internal/storage"
)

// fakeEmbedder maps known texts to fixed vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return vec, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestIndex_SearchReturnsTopKByRelevance(t *testing.T) {
	ix := &Index{
		Company: "Acme",
		Documents: []Document{
			{Content: "far", Embedding: []float32{0, 1}},
			{Content: "near", Embedding: []float32{1, 0.1}},
			{Content: "nearest", Embedding: []float32{1, 0}},
			{Content: "middle", Embedding: []float32{1, 1}},
		},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}

	docs, err := ix.Search(context.Background(), embedder, "query", 3)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "nearest", docs[0].Content)
	assert.Equal(t, "near", docs[1].Content)
	assert.Equal(t, "middle", docs[2].Content)
}

func TestIndex_SearchKLargerThanIndex(t *testing.T) {
	ix := &Index{
		Company:   "Acme",
		Documents: []Document{{Content: "only", Embedding: []float32{1, 0}}},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}

	docs, err := ix.Search(context.Background(), embedder, "query", 5)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIndex_SaveLoadRoundTrip(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ix := &Index{
		Company: "Acme",
		Documents: []Document{{
			Content: "great place",
			Metadata: DocumentMetadata{
				Type: "review", Sentiment: "positive",
				Keywords: []string{"pay"}, Company: "Acme",
			},
			Embedding: []float32{0.1, 0.2},
		}},
	}
	require.NoError(t, ix.Save(blobs))

	loaded, err := Load(blobs, "Acme")
	require.NoError(t, err)
	assert.Equal(t, ix.Company, loaded.Company)
	assert.Equal(t, ix.Documents, loaded.Documents)
}

func TestLoad_AddressedByCaseFoldedName(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ix := &Index{Company: "AcmeCorp", Documents: []Document{{Content: "x"}}}
	require.NoError(t, ix.Save(blobs))

	assert.Equal(t, "vectorstores/acmecorp_mentions.json", ObjectName("AcmeCorp"))

	_, err = Load(blobs, "ACMECORP")
	assert.NoError(t, err)
}

func TestLoad_MissingIndex(t *testing.T) {
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = Load(blobs, "Nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}
