package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// BatchProcessor handles embedding generation for batches of segments.
type BatchProcessor struct {
	repo           storage.SegmentRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.SegmentRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "batch-processor"),
	}
}

// Process generates embeddings for a batch of segments and updates them in
// the database. Vectors are normalized after embedding to ensure
// compatibility with cosine similarity.
func (bp *BatchProcessor) Process(ctx context.Context, segments []*core.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	// Extract text content
	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Content
	}

	// Generate embeddings with retry. Retry logs carry the batch being
	// processed so failures are attributable to a document.
	logger := bp.logger.With(
		"document", segments[0].DocumentId,
		"firstSegment", segments[0].Index,
		"batchSize", len(segments))

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, logger, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(segments) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(segments), len(embeddings))
	}

	// Normalize vectors and assign to segments
	for i, segment := range segments {
		segment.Vector = NormalizeVector(embeddings[i])
		segment.Status = core.EmbedStatusCompleted
		if err := bp.repo.UpdateSegment(ctx, segment); err != nil {
			return fmt.Errorf("failed to update segment %d/%d: %w", segment.DocumentId, segment.Index, err)
		}
	}

	return nil
}
