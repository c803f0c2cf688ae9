package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDocument() *Document {
	return &Document{
		Id:       1,
		Type:     ResourceTypeArticle,
		Title:    "A valid document",
		Category: CategoryGeneral,
		Active:   true,
		Status:   EmbedStatusPending,
	}
}

func TestValidateDocument(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(validDocument()))
	})

	t.Run("nil document", func(t *testing.T) {
		err := ValidateDocument(nil)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("empty title", func(t *testing.T) {
		doc := validDocument()
		doc.Title = ""
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrInvalidDocument)
		assert.ErrorIs(t, err, ErrEmptyTitle)
	})

	t.Run("bad resource type", func(t *testing.T) {
		doc := validDocument()
		doc.Type = ResourceType(42)
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrInvalidResourceType)
	})

	t.Run("category outside taxonomy", func(t *testing.T) {
		doc := validDocument()
		doc.Category = "astrology"
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("empty category allowed", func(t *testing.T) {
		doc := validDocument()
		doc.Category = ""
		assert.NoError(t, ValidateDocument(doc))
	})

	t.Run("bad status", func(t *testing.T) {
		doc := validDocument()
		doc.Status = EmbedStatus(9)
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrInvalidEmbedStatus)
	})
}

func TestValidateSegment(t *testing.T) {
	valid := func() *Segment {
		return &Segment{
			DocumentId: 7,
			Index:      0,
			Content:    "segment text",
			Status:     EmbedStatusPending,
		}
	}

	t.Run("valid segment", func(t *testing.T) {
		assert.NoError(t, ValidateSegment(valid()))
	})

	t.Run("nil segment", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSegment(nil), ErrInvalidSegment)
	})

	t.Run("missing document id", func(t *testing.T) {
		seg := valid()
		seg.DocumentId = 0
		assert.ErrorIs(t, ValidateSegment(seg), ErrInvalidSegment)
	})

	t.Run("negative index", func(t *testing.T) {
		seg := valid()
		seg.Index = -1
		assert.ErrorIs(t, ValidateSegment(seg), ErrNegativeIndex)
	})

	t.Run("empty content", func(t *testing.T) {
		seg := valid()
		seg.Content = ""
		assert.ErrorIs(t, ValidateSegment(seg), ErrEmptyContent)
	})
}

func TestDefaultCategory(t *testing.T) {
	assert.Equal(t, CategoryGeneral, DefaultCategory(""))
	assert.Equal(t, "research", DefaultCategory("research"))
}
