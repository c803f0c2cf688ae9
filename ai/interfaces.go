package ai

import "context"

// Embedder converts text into fixed-dimensionality vectors for semantic
// similarity search. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Empty or whitespace-only text is rejected with ErrInvalidInput.
	// Text longer than the configured input ceiling is silently truncated
	// before submission; the vector then represents only the retained prefix.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// Empty and whitespace-only entries are filtered out; the returned slice
	// corresponds positionally to the surviving inputs, never reordered.
	// An empty filtered list returns an empty slice without a provider call.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider aggregates embedding services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
