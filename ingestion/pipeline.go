package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/chunker"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

// Config holds the ingestion policy for a pipeline instance. Multiple
// pipelines may run with independent policies; there is no process-wide
// mutable configuration.
type Config struct {
	// MaxTokens is the token budget per segment.
	MaxTokens int

	// OverlapTokens is the token overlap between consecutive segments.
	OverlapTokens int

	// CharsPerToken is the characters-per-token approximation constant.
	CharsPerToken int

	// InterSegmentDelay is the pause after each segment's processing. It
	// bounds the outbound embedding call rate and transient memory pressure.
	InterSegmentDelay time.Duration

	// PerCallOverhead is the assumed fixed cost of one embedding call,
	// used only for remaining-time estimates.
	PerCallOverhead time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxTokens:         500,
		OverlapTokens:     50,
		CharsPerToken:     4,
		InterSegmentDelay: 1 * time.Second,
		PerCallOverhead:   500 * time.Millisecond,
	}
}

func (c *Config) chunkerConfig() chunker.Config {
	return chunker.Config{
		MaxTokens:     c.MaxTokens,
		OverlapTokens: c.OverlapTokens,
		CharsPerToken: c.CharsPerToken,
	}
}

// Pipeline orchestrates the ingestion of documents: segmentation, embedding
// generation, and status bookkeeping. Documents are processed concurrently up
// to the worker pool size, but each document's segments are processed
// strictly sequentially in index order, and ingestions of the same document
// never interleave.
type Pipeline struct {
	docRepo  storage.DocumentRepository
	segRepo  storage.SegmentRepository
	embedder ai.Embedder
	pool     *ants.Pool
	config   *Config
	locks    sync.Map // core.ID -> *sync.Mutex, serializes per-document ingestion
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConfig sets the ingestion policy.
// Default is DefaultConfig().
func WithConfig(config *Config) Option {
	return func(p *Pipeline) error {
		if config != nil {
			p.config = config
		}
		return nil
	}
}

// WithPoolSize sets the worker pool size, which caps how many documents are
// ingested concurrently (and therefore how many embedding call streams run
// against the provider at once).
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docRepo storage.DocumentRepository,
	segRepo storage.SegmentRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if docRepo == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if segRepo == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docRepo:  docRepo,
		segRepo:  segRepo,
		embedder: provider.Embedder(),
		pool:     pool,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Submission reports what was accepted for asynchronous ingestion.
type Submission struct {
	DocumentID        core.ID
	EstimatedSegments int
	EstimatedDuration time.Duration
}

// Submit stores the document and queues its ingestion asynchronously,
// returning immediately with segment-count and processing-time estimates.
// Submitting an already-known document re-ingests it, fully superseding its
// prior segments. Errors during async processing are reflected in document
// and segment statuses, not returned here.
func (p *Pipeline) Submit(ctx context.Context, doc *core.Document, body string) (*Submission, error) {
	if doc.Category == "" {
		doc.Category = core.CategoryGeneral
	}
	doc.Status = core.EmbedStatusPending
	if doc.Id == 0 {
		doc.Id = core.IDFromContent(doc.Title + "\n" + body)
	}

	// The full text is not retained; keep a bounded preview only.
	preview := chunker.Normalize(body)
	if len(preview) > core.PreviewMaxLen {
		preview = preview[:core.PreviewMaxLen]
	}
	doc.Preview = preview

	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if _, err := p.docRepo.GetDocument(ctx, doc.Id); err == nil {
		if _, err := p.docRepo.UpdateDocuments(ctx, doc); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.docRepo.AddDocuments(ctx, doc); err != nil {
			return nil, err
		}
	}

	segments, duration := p.Estimate(doc, body)

	id := doc.Id
	err := p.pool.Submit(func() {
		if err := p.Process(context.Background(), id, body); err != nil {
			p.logger.Error("error ingesting document", "document", id, "err", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return &Submission{
		DocumentID:        id,
		EstimatedSegments: segments,
		EstimatedDuration: duration,
	}, nil
}

// Estimate returns the expected segment count and processing time for a
// document body without ingesting anything.
func (p *Pipeline) Estimate(doc *core.Document, body string) (int, time.Duration) {
	text := assembleText(doc.Title, doc.Description, body)
	n := chunker.Count(text, p.config.chunkerConfig())
	return n, time.Duration(n) * (p.config.InterSegmentDelay + p.config.PerCallOverhead)
}

// Delete removes a document and all of its segments.
func (p *Pipeline) Delete(ctx context.Context, docID core.ID) error {
	lock := p.lockFor(docID)
	lock.Lock()
	defer lock.Unlock()
	return p.docRepo.DeleteDocuments(ctx, docID)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// lockFor returns the mutex serializing ingestion of one document.
func (p *Pipeline) lockFor(id core.ID) *sync.Mutex {
	v, _ := p.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// assembleText joins the optional title, description and body into the text
// to segment, separated by paragraph breaks.
func assembleText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}
