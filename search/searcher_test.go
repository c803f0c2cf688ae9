package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearcher(t *testing.T) (*Searcher, storage.DocumentRepository, storage.SegmentRepository, *mock.MockProvider) {
	t.Helper()

	docRepo, segRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	provider := mock.NewMockProvider()
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	searcher, err := NewSearcher(docRepo, segRepo, provider)
	require.NoError(t, err)

	return searcher, docRepo, segRepo, provider
}

// vectorWithSimilarity builds a unit vector whose cosine similarity against
// the query vector [1, 0] equals sim.
func vectorWithSimilarity(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func addDocument(t *testing.T, docRepo storage.DocumentRepository, title, category string) *core.Document {
	t.Helper()
	doc := &core.Document{
		Type:     core.ResourceTypeArticle,
		Title:    title,
		Preview:  "preview of " + title,
		Category: category,
		Active:   true,
		Status:   core.EmbedStatusCompleted,
	}
	_, err := docRepo.AddDocuments(context.Background(), doc)
	require.NoError(t, err)
	return doc
}

func addSegments(t *testing.T, segRepo storage.SegmentRepository, docID core.ID, sims ...float64) {
	t.Helper()
	for i, sim := range sims {
		seg := &core.Segment{
			DocumentId: docID,
			Index:      i,
			Content:    fmt.Sprintf("segment %d of document %d", i, docID),
			Status:     core.EmbedStatusCompleted,
			Vector:     vectorWithSimilarity(sim),
		}
		require.NoError(t, segRepo.AddSegment(context.Background(), seg))
	}
}

func TestNewSearcher(t *testing.T) {
	docRepo, segRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	t.Run("requires document repository", func(t *testing.T) {
		_, err := NewSearcher(nil, segRepo, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)
	})

	t.Run("requires segment repository", func(t *testing.T) {
		_, err := NewSearcher(docRepo, nil, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrSegmentRepositoryRequired)
	})

	t.Run("requires provider", func(t *testing.T) {
		_, err := NewSearcher(docRepo, segRepo, nil)
		assert.ErrorIs(t, err, ErrProviderRequired)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("ranks documents by their best segment", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		docX := addDocument(t, docRepo, "Document X", "")
		addSegments(t, segRepo, docX.Id, 0.9, 0.8, 0.95)
		docY := addDocument(t, docRepo, "Document Y", "")
		addSegments(t, segRepo, docY.Id, 0.7)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, docX.Id, results[0].Document.Id)
		assert.InDelta(t, 0.95, results[0].Similarity, 0.001)
		assert.Equal(t, docY.Id, results[1].Document.Id)
		assert.InDelta(t, 0.7, results[1].Similarity, 0.001)
	})

	t.Run("joins at most three segments into the content", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		doc := addDocument(t, docRepo, "Document", "")
		addSegments(t, segRepo, doc.Id, 0.9, 0.85, 0.8, 0.75, 0.7)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Len(t, results[0].Segments, maxSegmentsPerDocument)
		assert.Contains(t, results[0].Content, segmentSeparator)
		for _, segment := range results[0].Segments {
			assert.Contains(t, results[0].Content, segment.Content)
		}
	})

	t.Run("truncates to maxHits", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		for i := range 5 {
			doc := addDocument(t, docRepo, fmt.Sprintf("Document %d", i), "")
			addSegments(t, segRepo, doc.Id, 0.9-float64(i)*0.05)
		}

		results, err := searcher.Search(ctx, "query", "", 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
		assert.InDelta(t, 0.9, results[0].Similarity, 0.001)
	})

	t.Run("non-positive maxHits defaults to five results", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		for i := range 7 {
			doc := addDocument(t, docRepo, fmt.Sprintf("Document %d", i), "")
			addSegments(t, segRepo, doc.Id, 0.9-float64(i)*0.05)
		}

		results, err := searcher.Search(ctx, "query", "", 0)
		require.NoError(t, err)
		assert.Len(t, results, defaultMaxHits)

		results, err = searcher.Search(ctx, "query", "", -3)
		require.NoError(t, err)
		assert.Len(t, results, defaultMaxHits)
	})

	t.Run("category filter keeps the requested category and general", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		engineering := addDocument(t, docRepo, "Engineering doc", "engineering")
		addSegments(t, segRepo, engineering.Id, 0.9)
		general := addDocument(t, docRepo, "General doc", core.CategoryGeneral)
		addSegments(t, segRepo, general.Id, 0.8)
		sales := addDocument(t, docRepo, "Sales doc", "sales")
		addSegments(t, segRepo, sales.Id, 0.95)

		results, err := searcher.Search(ctx, "query", "engineering", 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, engineering.Id, results[0].Document.Id)
		assert.Equal(t, general.Id, results[1].Document.Id)
	})

	t.Run("general category filter matches everything", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		sales := addDocument(t, docRepo, "Sales doc", "sales")
		addSegments(t, segRepo, sales.Id, 0.9)

		results, err := searcher.Search(ctx, "query", core.CategoryGeneral, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("empty category matches everything", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		sales := addDocument(t, docRepo, "Sales doc", "sales")
		addSegments(t, segRepo, sales.Id, 0.9)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("no matches returns empty results", func(t *testing.T) {
		searcher, _, _, _ := setupSearcher(t)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("query embedding error propagates", func(t *testing.T) {
		searcher, _, _, provider := setupSearcher(t)
		provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("provider unavailable")
		}

		_, err := searcher.Search(ctx, "query", "", 10)
		assert.ErrorIs(t, err, ErrQueryEmbedding)
	})
}

func TestSearchFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("uses document vectors when no segment matches", func(t *testing.T) {
		searcher, docRepo, _, _ := setupSearcher(t)

		doc := addDocument(t, docRepo, "Legacy document", "")
		doc.Vector = vectorWithSimilarity(0.85)
		_, err := docRepo.UpdateDocuments(ctx, doc)
		require.NoError(t, err)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)

		assert.Equal(t, doc.Id, results[0].Document.Id)
		assert.InDelta(t, 0.85, results[0].Similarity, 0.001)
		assert.Equal(t, doc.Preview, results[0].Content)
		assert.Empty(t, results[0].Segments)
	})

	t.Run("segment matches suppress the fallback", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		legacy := addDocument(t, docRepo, "Legacy document", "")
		legacy.Vector = vectorWithSimilarity(0.99)
		_, err := docRepo.UpdateDocuments(ctx, legacy)
		require.NoError(t, err)

		segmented := addDocument(t, docRepo, "Segmented document", "")
		addSegments(t, segRepo, segmented.Id, 0.5)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, segmented.Id, results[0].Document.Id)
	})

	t.Run("completed segments suppress the fallback even without matches", func(t *testing.T) {
		searcher, docRepo, segRepo, _ := setupSearcher(t)

		legacy := addDocument(t, docRepo, "Legacy document", "")
		legacy.Vector = vectorWithSimilarity(0.9)
		_, err := docRepo.UpdateDocuments(ctx, legacy)
		require.NoError(t, err)

		// The inactive parent keeps its completed segments out of the
		// segment search, but their existence still disables the fallback.
		disabled := addDocument(t, docRepo, "Disabled document", "")
		addSegments(t, segRepo, disabled.Id, 0.8)
		disabled.Active = false
		_, err = docRepo.UpdateDocuments(ctx, disabled)
		require.NoError(t, err)

		results, err := searcher.Search(ctx, "query", "", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("fallback applies the category filter", func(t *testing.T) {
		searcher, docRepo, _, _ := setupSearcher(t)

		sales := addDocument(t, docRepo, "Sales document", "sales")
		sales.Vector = vectorWithSimilarity(0.9)
		_, err := docRepo.UpdateDocuments(ctx, sales)
		require.NoError(t, err)

		results, err := searcher.Search(ctx, "query", "engineering", 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

type recordingMonitor struct {
	started       bool
	segmentHits   int
	grouped       int
	retrieved     int
	fellBack      bool
	finished      bool
	finalResults  int
}

func (m *recordingMonitor) Start(_, _ string)                        { m.started = true }
func (m *recordingMonitor) AfterSegmentSearch(s []*core.SegmentMatch) { m.segmentHits = len(s) }
func (m *recordingMonitor) AfterGrouping(ids []core.ID)              { m.grouped = len(ids) }
func (m *recordingMonitor) AfterDocumentRetrieval(d []*core.Document) { m.retrieved = len(d) }
func (m *recordingMonitor) FallbackToDocuments()                     { m.fellBack = true }
func (m *recordingMonitor) Finish(r []*core.DocumentResult) {
	m.finished = true
	m.finalResults = len(r)
}

func TestSearchWithMonitor(t *testing.T) {
	ctx := context.Background()
	searcher, docRepo, segRepo, _ := setupSearcher(t)

	doc := addDocument(t, docRepo, "Monitored", "")
	addSegments(t, segRepo, doc.Id, 0.9, 0.8)

	monitor := &recordingMonitor{}
	results, err := searcher.SearchWithMonitor(ctx, "query", "", 10, monitor)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, monitor.started)
	assert.Equal(t, 2, monitor.segmentHits)
	assert.Equal(t, 1, monitor.grouped)
	assert.Equal(t, 1, monitor.retrieved)
	assert.False(t, monitor.fellBack)
	assert.True(t, monitor.finished)
	assert.Equal(t, 1, monitor.finalResults)
}
