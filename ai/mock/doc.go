// Package mock provides test doubles for the ai package interfaces.
//
// The mock embedder produces deterministic vectors derived from an FNV hash
// of the input text, so tests get stable, repeatable embeddings without an
// external service. Behavior can be overridden per-test via the exported
// function fields.
package mock
