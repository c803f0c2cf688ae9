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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidSegment indicates a Segment failed validation.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrEmptyTitle indicates the document Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyContent indicates the segment Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidResourceType indicates an invalid ResourceType value.
	ErrInvalidResourceType = errors.New("invalid resource type")

	// ErrInvalidCategory indicates a category outside the taxonomy.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidEmbedStatus indicates an invalid EmbedStatus value.
	ErrInvalidEmbedStatus = errors.New("invalid embed status")

	// ErrNegativeIndex indicates a segment index below zero.
	ErrNegativeIndex = errors.New("segment index cannot be negative")
)
