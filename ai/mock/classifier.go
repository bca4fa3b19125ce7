package mock

import (
	"context"
	"strings"

	"github.com/poiesic/memora/core"
)

// MockClassifier is a test double for ai.Classifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	// If nil, derives a simple analysis from the input text.
	ClassifyFunc func(ctx context.Context, text string, imageB64 string) (*core.Analysis, error)

	callCount int
}

// NewMockClassifier creates a mock classifier with default derived behavior.
// Note: Returns concrete type to allow test assertions via GetMockClassifier().
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify derives a simple deterministic analysis from the text.
// Default behavior: title from the first words, the text itself as summary,
// importance 5, category Other.
func (m *MockClassifier) Classify(ctx context.Context, text string, imageB64 string) (*core.Analysis, error) {
	m.callCount++

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text, imageB64)
	}

	words := strings.Fields(text)
	titleWords := words
	if len(titleWords) > 5 {
		titleWords = titleWords[:5]
	}

	return &core.Analysis{
		Title:      strings.Join(titleWords, " "),
		Summary:    text,
		Importance: 5,
		Category:   core.CategoryOther,
	}, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockClassifier) Reset() {
	m.callCount = 0
	m.ClassifyFunc = nil
}
