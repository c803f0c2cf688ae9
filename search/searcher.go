package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

const (
	// defaultMaxHits is the result limit applied when the caller passes a
	// non-positive maxHits.
	defaultMaxHits = 5

	// overfetchFactor is how many segment matches to request per requested
	// document hit. Several matches often share a parent document, so the
	// segment query must overfetch to fill maxHits distinct documents.
	overfetchFactor = 2

	// maxSegmentsPerDocument caps how many matched segments contribute to
	// one document's assembled content.
	maxSegmentsPerDocument = 3

	// segmentSeparator joins the contents of a document's matched segments.
	segmentSeparator = "\n\n---\n\n"
)

// Searcher provides semantic retrieval over ingested documents.
type Searcher struct {
	docRepository storage.DocumentRepository
	segRepository storage.SegmentRepository
	embedder      ai.Embedder
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	docRepository storage.DocumentRepository,
	segRepository storage.SegmentRepository,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if docRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if segRepository == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Searcher{
		docRepository: docRepository,
		segRepository: segRepository,
		embedder:      provider.Embedder(),
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search retrieves documents relevant to the query, ranked by similarity.
// An empty category matches all documents; a non-empty category matches
// documents in that category plus the general category. Returns up to
// maxHits results; a non-positive maxHits defaults to 5.
func (s *Searcher) Search(ctx context.Context, query, category string, maxHits int) ([]*core.DocumentResult, error) {
	return s.SearchWithMonitor(ctx, query, category, maxHits, nil)
}

// SearchWithMonitor retrieves documents relevant to the query with
// monitoring. The monitor receives callbacks at each stage of retrieval.
// Returns up to maxHits results, ranked by similarity.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query, category string, maxHits int, monitor SearchMonitor) ([]*core.DocumentResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if maxHits <= 0 {
		maxHits = defaultMaxHits
	}

	monitor.Start(query, category)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrQueryEmbedding, err)
	}

	// 1. Segment-level search, overfetched so duplicate parents still fill
	// maxHits documents after grouping.
	matches, err := s.segRepository.FindNearestSegments(ctx, embedding, maxHits*overfetchFactor)
	if err != nil {
		s.logger.Error("error querying for nearest segments", "err", err)
		return nil, err
	}
	monitor.AfterSegmentSearch(matches)

	// 2. Document-level fallback applies only while the corpus has no
	// completed segments at all. The two paths are exclusive and never mixed.
	if len(matches) == 0 {
		hasCompleted, err := s.segRepository.HasCompletedSegments(ctx)
		if err != nil {
			s.logger.Error("error checking for completed segments", "err", err)
			return nil, err
		}
		if !hasCompleted {
			return s.searchDocuments(ctx, embedding, category, maxHits, monitor)
		}
		results := []*core.DocumentResult{}
		monitor.Finish(results)
		return results, nil
	}

	// 3. Group segment matches under their parent documents. A document's
	// similarity is its best segment's.
	grouped := make(map[core.ID][]*core.SegmentMatch)
	order := make([]core.ID, 0, len(matches))
	for _, match := range matches {
		id := match.Segment.DocumentId
		if _, seen := grouped[id]; !seen {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], match)
	}
	monitor.AfterGrouping(order)

	docs, err := s.docRepository.GetDocuments(ctx, order...)
	if err != nil {
		s.logger.Error("error retrieving documents", "documentCount", len(order), "err", err)
		return nil, err
	}
	monitor.AfterDocumentRetrieval(docs)

	results := make([]*core.DocumentResult, 0, len(docs))
	for _, doc := range docs {
		if doc == nil || !matchesCategory(doc, category) {
			continue
		}

		segMatches := grouped[doc.Id]
		if len(segMatches) > maxSegmentsPerDocument {
			segMatches = segMatches[:maxSegmentsPerDocument]
		}

		best := segMatches[0].Similarity
		contents := make([]string, 0, len(segMatches))
		segments := make([]*core.Segment, 0, len(segMatches))
		for _, segMatch := range segMatches {
			if segMatch.Similarity > best {
				best = segMatch.Similarity
			}
			contents = append(contents, segMatch.Segment.Content)
			segments = append(segments, segMatch.Segment)
		}

		results = append(results, &core.DocumentResult{
			Document:   doc,
			Content:    strings.Join(contents, segmentSeparator),
			Similarity: best,
			Segments:   segments,
		})
	}

	// Sort by similarity descending
	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// searchDocuments is the fallback path for corpora whose documents carry
// document-level vectors but no completed segments. Result content is the
// stored preview.
func (s *Searcher) searchDocuments(ctx context.Context, embedding []float32, category string, maxHits int, monitor SearchMonitor) ([]*core.DocumentResult, error) {
	monitor.FallbackToDocuments()

	matches, err := s.docRepository.FindSimilarDocuments(ctx, embedding, maxHits*overfetchFactor)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}

	results := make([]*core.DocumentResult, 0, len(matches))
	for _, match := range matches {
		if !matchesCategory(match.Document, category) {
			continue
		}
		results = append(results, &core.DocumentResult{
			Document:   match.Document,
			Content:    match.Document.Preview,
			Similarity: match.Similarity,
		})
	}

	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// matchesCategory reports whether a document passes the category filter.
// General documents always pass, and filtering by the general category
// itself is a no-op since general is universally relevant.
func matchesCategory(doc *core.Document, category string) bool {
	if category == "" || category == core.CategoryGeneral {
		return true
	}
	return doc.Category == category || doc.Category == core.CategoryGeneral
}
