// Package storage defines the persistence interfaces for documents and
// segments, together with the binary serialization used by the backends.
//
// The interfaces are the vector store gateway of the system: exact-match
// reads and writes plus nearest-neighbor queries over embedding vectors.
// The BadgerDB implementation lives in storage/badger.
package storage
