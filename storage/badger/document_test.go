package badger

import (
	"context"
	"testing"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) (storage.DocumentRepository, storage.SegmentRepository) {
	t.Helper()
	docRepo, segRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		segRepo.Close()
		docRepo.Close()
		backend.Close()
	})
	return docRepo, segRepo
}

func newTestDocument(title string) *core.Document {
	return &core.Document{
		Type:     core.ResourceTypeArticle,
		Title:    title,
		Category: core.CategoryGeneral,
		Active:   true,
		Status:   core.EmbedStatusPending,
	}
}

func TestAddDocuments(t *testing.T) {
	docRepo, _ := setupRepos(t)
	ctx := context.Background()

	t.Run("assigns sequence id and timestamps", func(t *testing.T) {
		added, err := docRepo.AddDocuments(ctx, newTestDocument("first"))
		require.NoError(t, err)
		require.Len(t, added, 1)
		assert.NotZero(t, added[0].Id)
		assert.False(t, added[0].InsertedAt.IsZero())
	})

	t.Run("keeps content-hashed id", func(t *testing.T) {
		doc := newTestDocument("hashed")
		doc.Id = core.IDFromContent("hashed body")
		added, err := docRepo.AddDocuments(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, core.IDFromContent("hashed body"), added[0].Id)
	})

	t.Run("defaults empty category to general", func(t *testing.T) {
		doc := newTestDocument("uncategorized")
		doc.Category = ""
		added, err := docRepo.AddDocuments(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, core.CategoryGeneral, added[0].Category)
	})
}

func TestGetDocument(t *testing.T) {
	docRepo, _ := setupRepos(t)
	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("findable"))
	require.NoError(t, err)

	t.Run("existing document", func(t *testing.T) {
		doc, err := docRepo.GetDocument(ctx, added[0].Id)
		require.NoError(t, err)
		assert.Equal(t, "findable", doc.Title)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := docRepo.GetDocument(ctx, core.ID(999999))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestUpdateDocuments(t *testing.T) {
	docRepo, _ := setupRepos(t)
	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("original"))
	require.NoError(t, err)

	doc := added[0]
	doc.Title = "updated"
	doc.Status = core.EmbedStatusProcessing

	_, err = docRepo.UpdateDocuments(ctx, doc)
	require.NoError(t, err)

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Title)
	assert.Equal(t, core.EmbedStatusProcessing, got.Status)

	t.Run("missing document", func(t *testing.T) {
		ghost := newTestDocument("ghost")
		ghost.Id = 424242
		_, err := docRepo.UpdateDocuments(ctx, ghost)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSetDocumentStatus(t *testing.T) {
	docRepo, _ := setupRepos(t)
	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("status"))
	require.NoError(t, err)

	require.NoError(t, docRepo.SetDocumentStatus(ctx, added[0].Id, core.EmbedStatusError))

	got, err := docRepo.GetDocument(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.EmbedStatusError, got.Status)
}

func TestDeleteDocuments_CascadesToSegments(t *testing.T) {
	docRepo, segRepo := setupRepos(t)
	ctx := context.Background()

	added, err := docRepo.AddDocuments(ctx, newTestDocument("doomed"))
	require.NoError(t, err)
	docID := added[0].Id

	for i := 0; i < 3; i++ {
		require.NoError(t, segRepo.AddSegment(ctx, &core.Segment{
			DocumentId: docID,
			Index:      i,
			Content:    "segment content",
			Status:     core.EmbedStatusCompleted,
			Vector:     []float32{1, 0},
		}))
	}

	require.NoError(t, docRepo.DeleteDocuments(ctx, docID))

	_, err = docRepo.GetDocument(ctx, docID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	segs, err := segRepo.GetSegmentsByDocument(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, segs, "no segment may reference a deleted document")
}

func TestListDocuments(t *testing.T) {
	docRepo, _ := setupRepos(t)
	ctx := context.Background()

	_, err := docRepo.AddDocuments(ctx,
		newTestDocument("one"), newTestDocument("two"), newTestDocument("three"))
	require.NoError(t, err)

	docs, err := docRepo.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestFindSimilarDocuments(t *testing.T) {
	docRepo, _ := setupRepos(t)
	ctx := context.Background()

	near := newTestDocument("near")
	near.Vector = []float32{1, 0, 0}
	far := newTestDocument("far")
	far.Vector = []float32{0, 1, 0}
	inactive := newTestDocument("inactive")
	inactive.Vector = []float32{1, 0, 0}
	inactive.Active = false

	_, err := docRepo.AddDocuments(ctx, near, far, inactive)
	require.NoError(t, err)

	matches, err := docRepo.FindSimilarDocuments(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2, "inactive documents are excluded")
	assert.Equal(t, "near", matches[0].Document.Title)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}
