// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"slices"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Type must be a known ResourceType
//   - Category must be in the taxonomy (empty defaults to general upstream)
//   - Status must be a known EmbedStatus
//
// NOT validated (populated by the ingestion pipeline):
//   - Vector (fallback-only field, usually empty)
//   - ID (0 is valid until assigned)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if err := ValidateResourceType(doc.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Category != "" && !slices.Contains(Categories, doc.Category) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidCategory, doc.Category)
	}

	if err := ValidateEmbedStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateSegment validates a Segment according to domain rules.
//
// Validation rules:
//   - DocumentId must be set
//   - Index must not be negative
//   - Content must not be empty
//   - Status must be a known EmbedStatus
func ValidateSegment(seg *Segment) error {
	if seg == nil {
		return fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}

	if seg.DocumentId == 0 {
		return fmt.Errorf("%w: document id required", ErrInvalidSegment)
	}

	if seg.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrNegativeIndex)
	}

	if seg.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, ErrEmptyContent)
	}

	if err := ValidateEmbedStatus(seg.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, err)
	}

	return nil
}

// ValidateResourceType validates that a ResourceType has a valid value.
func ValidateResourceType(t ResourceType) error {
	switch t {
	case ResourceTypeArticle, ResourceTypePDF, ResourceTypeVideo, ResourceTypeTranscript:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidResourceType, t)
	}
}

// ValidateEmbedStatus validates that an EmbedStatus has a valid value.
func ValidateEmbedStatus(s EmbedStatus) error {
	switch s {
	case EmbedStatusPending, EmbedStatusProcessing, EmbedStatusCompleted, EmbedStatusError:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidEmbedStatus, s)
	}
}

// DefaultCategory returns the category to use for a document, falling back
// to the general category when none is set.
func DefaultCategory(category string) string {
	if category == "" {
		return CategoryGeneral
	}
	return category
}
