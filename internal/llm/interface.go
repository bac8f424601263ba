package llm

import "context"

// ChatModel generates text from a rendered instruction.
type ChatModel interface {
	// Complete sends a single instruction (with an optional system prompt)
	// and returns the generated text.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds multiple texts in one API call. When the returned
	// error is nil the result has the same length as texts, with result[i]
	// corresponding to texts[i].
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
