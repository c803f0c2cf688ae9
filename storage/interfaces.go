package storage

import (
	"context"

	"github.com/poiesic/retrievit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing documents.
type DocumentRepository interface {
	Repository

	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with generated IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// UpdateDocuments updates existing documents.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any document doesn't exist.
	UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// DeleteDocuments removes documents by their IDs, cascading to every
	// segment owned by each document. The cascade is explicit so the
	// ownership invariant holds regardless of storage configuration.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing documents).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments retrieves all documents, ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// SetDocumentStatus updates only the embedding status of a document.
	// Returns ErrNotFound if the document doesn't exist.
	SetDocumentStatus(ctx context.Context, id core.ID, status core.EmbedStatus) error

	// FindSimilarDocuments compares the query vector against document-level
	// embeddings. This is the compatibility path for corpora whose documents
	// were never segmented; segment search is the primary path.
	// Results are ordered by similarity (highest first), up to limit.
	FindSimilarDocuments(ctx context.Context, vector []float32, limit int) ([]*core.DocumentMatch, error)
}

// SegmentRepository provides operations for managing segments.
type SegmentRepository interface {
	Repository

	// AddSegment creates a single segment row.
	// Sets InsertedAt timestamp if not already set.
	AddSegment(ctx context.Context, seg *core.Segment) error

	// UpdateSegment overwrites an existing segment row.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the segment doesn't exist.
	UpdateSegment(ctx context.Context, seg *core.Segment) error

	// DeleteSegmentsByDocument removes every segment owned by the document.
	// Returns the number of segments removed. Removing zero is not an error.
	DeleteSegmentsByDocument(ctx context.Context, docID core.ID) (int, error)

	// GetSegmentsByDocument retrieves all segments for a document in index order.
	GetSegmentsByDocument(ctx context.Context, docID core.ID) ([]*core.Segment, error)

	// CountSegmentsByStatus returns per-status segment counts for a document.
	CountSegmentsByStatus(ctx context.Context, docID core.ID) (map[core.EmbedStatus]int, error)

	// FindNearestSegments finds the segments nearest to the query vector,
	// restricted to completed segments whose parent document is active.
	// Results are ordered by similarity (highest first), up to limit.
	FindNearestSegments(ctx context.Context, vector []float32, limit int) ([]*core.SegmentMatch, error)

	// HasCompletedSegments reports whether any completed segment exists at
	// all. Used to decide whether the document-level fallback search applies.
	HasCompletedSegments(ctx context.Context) (bool, error)
}
