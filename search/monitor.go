package search

import "github.com/mskvii/bot2-2/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to trace how many records each stage keeps.
type SearchMonitor interface {
	Start(query Query)
	AfterScan(kind core.Kind, scanned int)
	AfterKeywordFilter(kept int)
	AfterFieldFilters(kept int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                 {}
func (n *noopMonitor) AfterScan(_ core.Kind, _ int)  {}
func (n *noopMonitor) AfterKeywordFilter(_ int)      {}
func (n *noopMonitor) AfterFieldFilters(_ int)       {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
