package reindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepos(t *testing.T) (storage.DocumentRepository, storage.SegmentRepository) {
	t.Helper()
	docRepo, segRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	return docRepo, segRepo
}

func seedDocument(t *testing.T, docRepo storage.DocumentRepository, segRepo storage.SegmentRepository, title string, segmentStatuses ...core.EmbedStatus) *core.Document {
	t.Helper()
	ctx := context.Background()

	doc := &core.Document{
		Type:   core.ResourceTypeArticle,
		Title:  title,
		Active: true,
		Status: core.EmbedStatusCompleted,
	}
	_, err := docRepo.AddDocuments(ctx, doc)
	require.NoError(t, err)

	for i, status := range segmentStatuses {
		seg := &core.Segment{
			DocumentId: doc.Id,
			Index:      i,
			Content:    fmt.Sprintf("segment %d of %s", i, title),
			Status:     status,
		}
		if status == core.EmbedStatusCompleted {
			seg.Vector = []float32{1, 2, 3}
		}
		require.NoError(t, segRepo.AddSegment(ctx, seg))
	}

	return doc
}

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     0,
	}
}

func TestReindexerRun(t *testing.T) {
	ctx := context.Background()

	t.Run("reembeds every segment", func(t *testing.T) {
		docRepo, segRepo := setupRepos(t)
		doc := seedDocument(t, docRepo, segRepo, "First",
			core.EmbedStatusCompleted, core.EmbedStatusCompleted, core.EmbedStatusCompleted)

		var out bytes.Buffer
		reindexer := NewReindexer(docRepo, segRepo, mock.NewMockProvider().Embedder(), testConfig(), &out)
		require.NoError(t, reindexer.Run(ctx))

		segments, err := segRepo.GetSegmentsByDocument(ctx, doc.Id)
		require.NoError(t, err)
		require.Len(t, segments, 3)
		for _, segment := range segments {
			assert.Equal(t, core.EmbedStatusCompleted, segment.Status)
			assert.NotEqual(t, []float32{1, 2, 3}, segment.Vector)
			assert.Len(t, segment.Vector, 384)
		}
		assert.Contains(t, out.String(), "Reindex complete")
	})

	t.Run("repairs previously errored segments", func(t *testing.T) {
		docRepo, segRepo := setupRepos(t)
		doc := seedDocument(t, docRepo, segRepo, "Broken",
			core.EmbedStatusError, core.EmbedStatusError)
		require.NoError(t, docRepo.SetDocumentStatus(ctx, doc.Id, core.EmbedStatusError))

		var out bytes.Buffer
		reindexer := NewReindexer(docRepo, segRepo, mock.NewMockProvider().Embedder(), testConfig(), &out)
		require.NoError(t, reindexer.Run(ctx))

		segments, err := segRepo.GetSegmentsByDocument(ctx, doc.Id)
		require.NoError(t, err)
		for _, segment := range segments {
			assert.Equal(t, core.EmbedStatusCompleted, segment.Status)
			assert.NotEmpty(t, segment.Vector)
		}

		stored, err := docRepo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, core.EmbedStatusCompleted, stored.Status)
	})

	t.Run("empty database is a no-op", func(t *testing.T) {
		docRepo, segRepo := setupRepos(t)

		var out bytes.Buffer
		reindexer := NewReindexer(docRepo, segRepo, mock.NewMockProvider().Embedder(), testConfig(), &out)
		require.NoError(t, reindexer.Run(ctx))
		assert.Contains(t, out.String(), "No segments found")
	})

	t.Run("embedding failures surface after retries", func(t *testing.T) {
		docRepo, segRepo := setupRepos(t)
		seedDocument(t, docRepo, segRepo, "Unlucky", core.EmbedStatusCompleted)

		provider := mock.NewMockProvider()
		provider.GetMockEmbedder().EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("provider unavailable")
		}

		var out bytes.Buffer
		reindexer := NewReindexer(docRepo, segRepo, provider.Embedder(), testConfig(), &out)
		err := reindexer.Run(ctx)
		assert.Error(t, err)
	})

	t.Run("cancellation stops the run", func(t *testing.T) {
		docRepo, segRepo := setupRepos(t)
		seedDocument(t, docRepo, segRepo, "A", core.EmbedStatusCompleted)
		seedDocument(t, docRepo, segRepo, "B", core.EmbedStatusCompleted)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		var out bytes.Buffer
		reindexer := NewReindexer(docRepo, segRepo, mock.NewMockProvider().Embedder(), testConfig(), &out)
		err := reindexer.Run(cancelCtx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
