// Package reindex provides functionality for reembedding existing segments
// with new or updated embedding models.
//
// Segments keep their text after ingestion, so the corpus can follow an
// embedding model change without re-ingesting any source material. The
// package supports batch processing per document, progress tracking, retry
// logic with exponential backoff, and vector normalization to ensure
// compatibility with cosine similarity search.
package reindex
