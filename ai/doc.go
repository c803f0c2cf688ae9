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


// Package ai provides abstractions for the embedding services used in
// Retrievit.
//
// This package defines the Embedder and Provider interfaces so the ingestion
// pipeline and searcher depend on abstractions rather than on a concrete
// embedding API. Two implementation sub-packages are included:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// # Input handling contract
//
// All implementations observe the same input discipline: single-text embeds
// reject empty input with ErrInvalidInput, batch embeds silently drop empty
// entries, and over-long inputs are truncated to the configured character
// ceiling before submission. Provider failures are wrapped in ErrProvider and
// are never retried here; callers own the retry/skip policy.
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types to
// enable test assertions and behavior injection via the mock's public fields.
package ai
