// Copyright 2025 Poiesic LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/retrievit/chunker"
	"github.com/poiesic/retrievit/core"
)

// Process runs the full ingestion of one stored document: it deletes any
// prior segments, re-segments the text, and embeds each segment in index
// order, pausing InterSegmentDelay after each one. It blocks until the
// document reaches a terminal status or ctx is cancelled.
//
// A segment whose embedding call fails is marked errored and processing
// continues with the next segment. The document completes if at least one
// segment embedded successfully; it errors only when every segment failed or
// the text produced no segments at all. Cancellation leaves the document in
// its current processing state so a later run can supersede it.
func (p *Pipeline) Process(ctx context.Context, docID core.ID, body string) (err error) {
	lock := p.lockFor(docID)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			p.forceError(docID)
			err = fmt.Errorf("panic during ingestion: %v", r)
		}
	}()

	logger := p.logger.With("document", docID)

	doc, err := p.docRepo.GetDocument(ctx, docID)
	if err != nil {
		return err
	}

	if err := p.docRepo.SetDocumentStatus(ctx, docID, core.EmbedStatusProcessing); err != nil {
		return err
	}

	// Re-ingestion fully supersedes prior segments.
	if removed, err := p.segRepo.DeleteSegmentsByDocument(ctx, docID); err != nil {
		p.forceError(docID)
		return err
	} else if removed > 0 {
		logger.Debug("removed prior segments", "count", removed)
	}

	text := assembleText(doc.Title, doc.Description, body)
	if text == "" {
		if err := p.docRepo.SetDocumentStatus(ctx, docID, core.EmbedStatusError); err != nil {
			return err
		}
		return ErrNoContent
	}

	total := 0
	completed := 0
	start := time.Now()

	for chunk := range chunker.Chunks(text, p.config.chunkerConfig()) {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		total++

		segment := &core.Segment{
			DocumentId:   docID,
			Index:        chunk.Index,
			Content:      chunk.Content,
			ApproxTokens: chunk.ApproxTokens,
			Status:       core.EmbedStatusProcessing,
		}
		if err := p.segRepo.AddSegment(ctx, segment); err != nil {
			p.forceError(docID)
			return err
		}

		vector, embedErr := p.embedder.EmbedText(ctx, chunk.Content)
		if embedErr != nil {
			logger.Warn("error embedding segment", "segment", chunk.Index, "err", embedErr)
			segment.Status = core.EmbedStatusError
		} else {
			segment.Vector = vector
			segment.Status = core.EmbedStatusCompleted
			completed++
		}
		if err := p.segRepo.UpdateSegment(ctx, segment); err != nil {
			p.forceError(docID)
			return err
		}

		if err := p.pause(ctx); err != nil {
			return err
		}
	}

	if total == 0 {
		if err := p.docRepo.SetDocumentStatus(ctx, docID, core.EmbedStatusError); err != nil {
			return err
		}
		return ErrNoSegments
	}

	status := core.EmbedStatusCompleted
	if completed == 0 {
		status = core.EmbedStatusError
	}
	if err := p.docRepo.SetDocumentStatus(ctx, docID, status); err != nil {
		return err
	}

	logger.Info("document ingested",
		"segments", total,
		"completed", completed,
		"errored", total-completed,
		"status", status,
		"elapsed", time.Since(start))
	return nil
}

// pause sleeps for the inter-segment delay, returning early if ctx is
// cancelled.
func (p *Pipeline) pause(ctx context.Context) error {
	if p.config.InterSegmentDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.config.InterSegmentDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// forceError moves the document to the error status during failure handling.
// It uses a fresh context so the transition happens even when the caller's
// context is already dead.
func (p *Pipeline) forceError(docID core.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.docRepo.SetDocumentStatus(ctx, docID, core.EmbedStatusError); err != nil {
		p.logger.Error("error forcing document status", "document", docID, "err", err)
	}
}

// Progress reports the segment-level state of one document's ingestion.
type Progress struct {
	Total              int
	Pending            int
	Processing         int
	Completed          int
	Errored            int
	Percent            float64
	EstimatedRemaining time.Duration
}

// GetProgress returns the current ingestion progress for a document. A
// document with no segments yet reports zero totals and zero percent.
func (p *Pipeline) GetProgress(ctx context.Context, docID core.ID) (*Progress, error) {
	counts, err := p.segRepo.CountSegmentsByStatus(ctx, docID)
	if err != nil {
		return nil, err
	}

	progress := &Progress{
		Pending:    counts[core.EmbedStatusPending],
		Processing: counts[core.EmbedStatusProcessing],
		Completed:  counts[core.EmbedStatusCompleted],
		Errored:    counts[core.EmbedStatusError],
	}
	progress.Total = progress.Pending + progress.Processing + progress.Completed + progress.Errored

	if progress.Total > 0 {
		// Percentage counts successes only; the remaining-time estimate
		// counts every segment not yet attempted.
		progress.Percent = float64(progress.Completed) / float64(progress.Total) * 100
		remaining := progress.Total - progress.Completed - progress.Errored
		progress.EstimatedRemaining = time.Duration(remaining) * (p.config.InterSegmentDelay + p.config.PerCallOverhead)
	}

	return progress, nil
}
