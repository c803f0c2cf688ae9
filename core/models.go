package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs, which makes
// document submission idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ResourceType identifies the kind of source a document was created from.
type ResourceType int

const (
	// ResourceTypeArticle represents a written article or web page.
	ResourceTypeArticle ResourceType = iota + 1
	// ResourceTypePDF represents an uploaded PDF document.
	ResourceTypePDF
	// ResourceTypeVideo represents a video whose transcript was captured.
	ResourceTypeVideo
	// ResourceTypeTranscript represents a standalone transcript.
	ResourceTypeTranscript
)

// EmbedStatus tracks the embedding lifecycle of a document or segment.
// Transitions: pending -> processing -> completed | error.
type EmbedStatus int

const (
	// EmbedStatusPending means no embedding work has started.
	EmbedStatusPending EmbedStatus = iota + 1
	// EmbedStatusProcessing means embedding work is in flight.
	EmbedStatusProcessing
	// EmbedStatusCompleted means an embedding vector is present.
	EmbedStatusCompleted
	// EmbedStatusError means embedding failed terminally.
	EmbedStatusError
)

// String returns the lowercase name of the status.
func (s EmbedStatus) String() string {
	switch s {
	case EmbedStatusPending:
		return "pending"
	case EmbedStatusProcessing:
		return "processing"
	case EmbedStatusCompleted:
		return "completed"
	case EmbedStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// CategoryGeneral is the default category. Documents in the general category
// are considered relevant to every category-filtered search.
const CategoryGeneral = "general"

// Categories defines the valid document categories.
var Categories = []string{
	CategoryGeneral,
	"engineering",
	"product",
	"research",
	"sales",
	"support",
}

// PreviewMaxLen bounds the raw-content preview retained on a document.
// The full text is not kept once it has been segmented.
const PreviewMaxLen = 500

// Document represents an ingestable resource (article, PDF, video transcript).
// The full body text is segmented at ingestion time and only a bounded
// preview is retained on the document itself.
type Document struct {
	Id          ID
	Type        ResourceType
	Title       string
	Description string
	Preview     string // bounded prefix of the raw body, not the full text
	Category    string
	Active      bool // soft-enable for search
	Status      EmbedStatus
	Vector      []float32 // document-level embedding, fallback search only
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// Segment is a bounded, overlapping substring of a document's text and the
// atomic unit of embedding and retrieval. A document exclusively owns its
// segments; deleting the document destroys them.
//
// Segment indices for a document are contiguous starting at 0 and reflect
// original document order.
type Segment struct {
	DocumentId   ID
	Index        int
	Content      string
	ApproxTokens int
	Vector       []float32 // present only when Status is completed
	Status       EmbedStatus
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// SegmentMatch represents a segment returned from vector similarity search.
// Similarity is 1 - cosine distance; higher is more similar.
type SegmentMatch struct {
	Segment    *Segment
	Similarity float32
}

// DocumentMatch represents a document returned from the document-level
// fallback similarity search.
type DocumentMatch struct {
	Document   *Document
	Similarity float32
}

// DocumentResult is a retrieval result aggregated back to the parent document.
// Content concatenates the best-matching segments; Similarity is the maximum
// similarity among the contributing segments.
type DocumentResult struct {
	Document   *Document
	Content    string
	Similarity float32
	Segments   []*Segment // contributing segments, in encounter order
}
