package search

import "github.com/poiesic/retrievit/core"

// SearchMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query, category string)
	AfterSegmentSearch(matches []*core.SegmentMatch)
	AfterGrouping(documentIds []core.ID)
	AfterDocumentRetrieval(docs []*core.Document)
	FallbackToDocuments()
	Finish(results []*core.DocumentResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)                          {}
func (n *noopMonitor) AfterSegmentSearch(_ []*core.SegmentMatch)  {}
func (n *noopMonitor) AfterGrouping(_ []core.ID)                  {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document)  {}
func (n *noopMonitor) FallbackToDocuments()                       {}
func (n *noopMonitor) Finish(_ []*core.DocumentResult)            {}
