package mock

import (
	"context"

	"github.com/poiesic/memora/core"
)

// MockQueryExpander is a test double for ai.QueryExpander.
// It allows custom behavior injection via function fields.
type MockQueryExpander struct {
	// ExpandFunc is called by Expand if set.
	// If nil, returns the query unchanged with no concepts, mirroring the
	// production expander's degraded path.
	ExpandFunc func(ctx context.Context, query string) (*core.ExpansionResult, error)

	callCount int
}

// NewMockQueryExpander creates a mock expander with pass-through default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExpander().
func NewMockQueryExpander() *MockQueryExpander {
	return &MockQueryExpander{}
}

// Expand returns the configured expansion, or the query unchanged by default.
func (m *MockQueryExpander) Expand(ctx context.Context, query string) (*core.ExpansionResult, error) {
	m.callCount++

	if m.ExpandFunc != nil {
		return m.ExpandFunc(ctx, query)
	}

	return &core.ExpansionResult{ExpandedQuery: query}, nil
}

// CallCount returns the number of times Expand was called.
func (m *MockQueryExpander) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockQueryExpander) Reset() {
	m.callCount = 0
	m.ExpandFunc = nil
}
