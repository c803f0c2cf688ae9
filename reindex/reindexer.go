// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of segments to embed in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of segments)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer regenerates the embeddings of every stored segment, document by
// document. Segments keep their text across model changes, so switching the
// embedding model only requires a reindex, not a re-ingestion.
type Reindexer struct {
	docRepo   storage.DocumentRepository
	segRepo   storage.SegmentRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *DocumentIterator
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(docRepo storage.DocumentRepository, segRepo storage.SegmentRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(segRepo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewDocumentIterator(docRepo)

	return &Reindexer{
		docRepo:   docRepo,
		segRepo:   segRepo,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the reindexing operation.
// Every segment of every document is reembedded with the configured embedder,
// including segments that previously errored. Document statuses are refreshed
// afterwards. Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	// First, count total segments across all documents
	totalSegments := 0
	err := r.iterator.ForEach(ctx, func(doc *core.Document) error {
		counts, err := r.segRepo.CountSegmentsByStatus(ctx, doc.Id)
		if err != nil {
			return err
		}
		for _, n := range counts {
			totalSegments += n
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to count segments: %w", err)
	}

	if totalSegments == 0 {
		fmt.Fprintf(r.progress, "No segments found in database (0 segments)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d segments (batch size: %d)\n",
		totalSegments, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, totalSegments, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(doc *core.Document) error {
		segments, err := r.segRepo.GetSegmentsByDocument(ctx, doc.Id)
		if err != nil {
			return fmt.Errorf("failed to load segments for document %d: %w", doc.Id, err)
		}

		for start := 0; start < len(segments); start += r.config.BatchSize {
			end := min(start+r.config.BatchSize, len(segments))

			if err := r.processor.Process(ctx, segments[start:end]); err != nil {
				return fmt.Errorf("failed to process document %d: %w", doc.Id, err)
			}
			tracker.Increment(end - start)
		}

		return r.refreshDocumentStatus(ctx, doc.Id, segments)
	})
	if err != nil {
		return err
	}

	// Finish progress tracking
	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d segments in %v (%.1f segments/sec)\n",
		totalSegments, elapsed.Round(time.Second), float64(totalSegments)/elapsed.Seconds())

	return nil
}

// refreshDocumentStatus recomputes the document status from its segments:
// completed when at least one segment embedded, errored otherwise.
func (r *Reindexer) refreshDocumentStatus(ctx context.Context, docID core.ID, segments []*core.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	status := core.EmbedStatusError
	for _, segment := range segments {
		if segment.Status == core.EmbedStatusCompleted {
			status = core.EmbedStatusCompleted
			break
		}
	}

	return r.docRepo.SetDocumentStatus(ctx, docID, status)
}
