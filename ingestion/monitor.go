package ingestion

import "github.com/poiesic/memora/core"

// IngestMonitor provides hooks to observe one ingestion.
// Implement this interface to track intermediate steps.
type IngestMonitor interface {
	Start(text string)
	AfterMasking(masked string)
	AfterAnalysis(analysis *core.Analysis)
	AfterEmbedding(vectorLen int)
	Finish(record *core.MemoryRecord)
}

// noopMonitor is a no-op implementation of IngestMonitor
type noopMonitor struct{}

var _ IngestMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) AfterMasking(_ string)          {}
func (n *noopMonitor) AfterAnalysis(_ *core.Analysis) {}
func (n *noopMonitor) AfterEmbedding(_ int)           {}
func (n *noopMonitor) Finish(_ *core.MemoryRecord)    {}
