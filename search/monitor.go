package search

// SearchMonitor provides hooks to observe a search.
type SearchMonitor interface {
	Start(query string)
	// AfterQueryEmbedding reports whether a query vector was available.
	AfterQueryEmbedding(embedded bool, err error)
	Finish(results []Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterQueryEmbedding(_ bool, _ error) {}
func (n *noopMonitor) Finish(_ []Result)                   {}
