package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/memora/core"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via function fields.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, returns a fixed summary line naming the top record.
	SynthesizeFunc func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error)

	callCount int
}

// NewMockSynthesizer creates a mock synthesizer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockSynthesizer().
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize returns the configured answer, or a deterministic summary line.
func (m *MockSynthesizer) Synthesize(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
	m.callCount++

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, query, records)
	}

	if len(records) == 0 {
		return "", nil
	}
	return fmt.Sprintf("Found %d relevant memories, led by %q.", len(records), records[0].Record.Title), nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.SynthesizeFunc = nil
}
