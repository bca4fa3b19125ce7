package search

import "github.com/poiesic/memora/core"

// CycleMonitor provides hooks to observe one retrieval cycle.
// Implement this interface to track intermediate steps and results.
// RecordScored is called from concurrent scoring workers and must be
// safe for concurrent use.
type CycleMonitor interface {
	Start(query string)
	AfterExpansion(result *core.ExpansionResult)
	AfterQueryEmbedding(vectorLen int)
	RecordScored(record *core.MemoryRecord, score float32)
	AfterScoring(kept []*core.ScoredRecord)
	Finish(response *core.QueryResponse)
	Failed(err error)
}

// noopMonitor is a no-op implementation of CycleMonitor
type noopMonitor struct{}

var _ CycleMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterExpansion(_ *core.ExpansionResult)      {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                   {}
func (n *noopMonitor) RecordScored(_ *core.MemoryRecord, _ float32) {}
func (n *noopMonitor) AfterScoring(_ []*core.ScoredRecord)         {}
func (n *noopMonitor) Finish(_ *core.QueryResponse)                {}
func (n *noopMonitor) Failed(_ error)                              {}
