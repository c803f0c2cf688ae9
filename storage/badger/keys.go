package badger

import (
	"fmt"

	"github.com/poiesic/retrievit/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
	documentIDSeq  = "docrecseq"
	segmentPrefix  = "segrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%020d", documentPrefix, id))
}

// makeSegmentKey generates a key for a segment by document ID and index.
// The index is zero-padded so a prefix scan visits segments in index order.
func makeSegmentKey(docID core.ID, index int) []byte {
	return []byte(fmt.Sprintf("%s:%020d:%010d", segmentPrefix, docID, index))
}

// makeSegmentScanPrefix generates the prefix covering every segment of a document.
func makeSegmentScanPrefix(docID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%020d:", segmentPrefix, docID))
}
