// Package ingestion turns raw documents into embedded, searchable segments.
//
// A Pipeline accepts documents via Submit, which stores the document record
// and queues asynchronous processing on a bounded worker pool. Processing
// segments the assembled text (title, description, body), embeds each
// segment sequentially through the configured provider, and tracks progress
// through document and segment embed statuses. Per-document locking
// guarantees that two ingestions of the same document never interleave,
// while distinct documents proceed concurrently up to the pool size.
package ingestion
