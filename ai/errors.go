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


package ai

import "errors"

var (
	// ErrInvalidInput indicates empty or whitespace-only text was offered
	// for embedding. This is a local error, never a provider failure.
	ErrInvalidInput = errors.New("invalid embedding input")

	// ErrProvider indicates the embedding provider call failed (timeout,
	// rate limit, malformed response). The underlying cause is wrapped.
	// The client does not retry; the caller decides retry or skip policy.
	ErrProvider = errors.New("embedding provider error")
)
