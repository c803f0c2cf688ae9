package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/retrievit/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder      embeddings.Embedder
	maxInputChars int
	subBatchSize  int
	logger        *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:      embedder,
		maxInputChars: config.MaxInputChars,
		subBatchSize:  config.SubBatchSize,
		logger:        slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// truncate caps text at the per-input character ceiling. Truncation is silent:
// the resulting vector represents only the retained prefix.
func (e *Embedder) truncate(text string) string {
	if len(text) > e.maxInputChars {
		return text[:e.maxInputChars]
	}
	return text
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.ErrInvalidInput
	}

	text = e.truncate(text)
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrProvider, err)
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, fmt.Errorf("%w: no embedding returned", ai.ErrProvider)
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// Inputs are filtered, truncated, and submitted in sub-batches; results are
// concatenated preserving the order of the surviving inputs.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	survivors := make([]string, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		survivors = append(survivors, e.truncate(text))
	}

	if len(survivors) == 0 {
		return [][]float32{}, nil
	}

	e.logger.Debug("generating embeddings for texts",
		"count", len(survivors), "dropped", len(texts)-len(survivors))

	result := make([][]float32, 0, len(survivors))
	for start := 0; start < len(survivors); start += e.subBatchSize {
		end := min(start+e.subBatchSize, len(survivors))

		vectors, err := e.embedder.EmbedDocuments(ctx, survivors[start:end])
		if err != nil {
			e.logger.Error("failed to generate embeddings", "count", end-start, "err", err)
			return nil, fmt.Errorf("%w: %w", ai.ErrProvider, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: embedding count mismatch: expected %d, got %d",
				ai.ErrProvider, end-start, len(vectors))
		}

		result = append(result, vectors...)
	}

	return result, nil
}
