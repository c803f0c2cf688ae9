package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a document repository is not provided.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrSegmentRepositoryRequired is returned when a segment repository is not provided.
	ErrSegmentRepositoryRequired = errors.New("segment repository required")

	// ErrProviderRequired is returned when an embedding provider is not provided.
	ErrProviderRequired = errors.New("embedding provider required")

	// ErrNoContent indicates the assembled document text is empty. Ingestion
	// aborts before any segment is created and the document is marked error.
	ErrNoContent = errors.New("document has no content to ingest")

	// ErrNoSegments indicates segmentation produced nothing to embed.
	ErrNoSegments = errors.New("segmentation produced no segments")
)
