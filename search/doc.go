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


// Package search provides semantic retrieval over ingested documents.
//
// The Searcher type embeds the query, finds the nearest segments, and
// groups the matches under their parent documents:
//   - A document ranks by its best-matching segment
//   - Up to three matched segments contribute to the result content
//   - Category filtering keeps the requested category plus general
//
// When no segment in the corpus matches (for example, segments have not
// finished embedding), retrieval falls back to document-level vectors and
// returns stored previews instead of segment content. The two paths are
// never mixed in one result set.
package search
