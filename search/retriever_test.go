package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/ai/mock"
	"github.com/poiesic/memora/core"
	"github.com/poiesic/memora/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retrieverFixture struct {
	retriever *Retriever
	provider  *mock.MockProvider
	cleanup   func()
}

func newRetrieverFixture(t *testing.T, records []*core.MemoryRecord, opts ...Option) *retrieverFixture {
	t.Helper()

	repo, backend, err := badger.NewTestRepository()
	require.NoError(t, err)

	if len(records) > 0 {
		_, err = repo.AddMemories(context.Background(), records...)
		require.NoError(t, err)
	}

	provider := mock.NewMockProvider().(*mock.MockProvider)
	// Lexical-only by default; individual tests opt back into vectors.
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbedTask) ([]float32, error) {
		return []float32{}, nil
	}

	retriever, err := NewRetriever(repo, provider, opts...)
	require.NoError(t, err)

	return &retrieverFixture{
		retriever: retriever,
		provider:  provider,
		cleanup: func() {
			retriever.Close()
			repo.Close()
			backend.Close()
		},
	}
}

func memoryRecord(title, text string, ts time.Time) *core.MemoryRecord {
	return &core.MemoryRecord{
		Title:        title,
		Summary:      text,
		OriginalText: text,
		MaskedText:   text,
		Category:     core.CategoryPersonal,
		Importance:   5,
		Timestamp:    ts,
	}
}

func TestEmptyQueryReturnsFullCollection(t *testing.T) {
	now := time.Now().UTC()
	f := newRetrieverFixture(t, []*core.MemoryRecord{
		memoryRecord("First", "First memory", now.Add(-time.Hour)),
		memoryRecord("Second", "Second memory", now),
	})
	defer f.cleanup()

	response := f.retriever.Retrieve(context.Background(), "   ")

	require.NotNil(t, response)
	assert.Len(t, response.Sources, 2)
	assert.Equal(t, float32(1), response.Confidence)
	assert.False(t, response.IsThinking)
	// Browse mode skips every collaborator.
	assert.Equal(t, 0, f.provider.GetMockExpander().CallCount())
	assert.Equal(t, 0, f.provider.GetMockSynthesizer().CallCount())
}

func TestNoMatchYieldsFallbackMessage(t *testing.T) {
	f := newRetrieverFixture(t, []*core.MemoryRecord{
		memoryRecord("Dentist", "Dentist appointment on Friday", time.Now().UTC()),
	})
	defer f.cleanup()

	response := f.retriever.Retrieve(context.Background(), "xyzzyunrelatedgibberish")

	require.NotNil(t, response)
	assert.Empty(t, response.Sources)
	assert.Equal(t, float32(0), response.Confidence)
	assert.Equal(t, noMatchMessage, response.Answer)
	// Nothing cleared the threshold, so synthesis is never attempted.
	assert.Equal(t, 0, f.provider.GetMockSynthesizer().CallCount())
}

func TestConceptBridgingWithoutVectors(t *testing.T) {
	f := newRetrieverFixture(t, []*core.MemoryRecord{
		memoryRecord("Birthday Party", "Sophie's celebration at the park on Saturday", time.Now().UTC()),
	})
	defer f.cleanup()

	f.provider.GetMockExpander().ExpandFunc = func(ctx context.Context, query string) (*core.ExpansionResult, error) {
		return &core.ExpansionResult{
			ExpandedQuery: "birthday cake party",
			Concepts:      []string{"birthday", "cake", "party"},
		}, nil
	}
	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return "The cake is at the birthday party.", nil
	}

	response := f.retriever.Retrieve(context.Background(), "When will I cut the cake?")

	require.NotNil(t, response)
	require.Len(t, response.Sources, 1)
	assert.Equal(t, "Birthday Party", response.Sources[0].Record.Title)
	assert.Greater(t, response.Sources[0].Score, float32(scoreThreshold))
	assert.Equal(t, response.Sources[0].Score, response.Confidence)
	assert.Equal(t, "The cake is at the birthday party.", response.Answer)
	assert.False(t, response.IsThinking)
}

func TestVectorSignalContributes(t *testing.T) {
	record := memoryRecord("Opaque", "nothing lexical in common", time.Now().UTC())
	record.Embedding = []float32{1, 0, 0}

	f := newRetrieverFixture(t, []*core.MemoryRecord{record})
	defer f.cleanup()

	f.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbedTask) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return "vector hit", nil
	}

	response := f.retriever.Retrieve(context.Background(), "qqqxyzunmatched")

	require.Len(t, response.Sources, 1)
	// Pure vector signal: cosine 1.0 weighted at 0.3.
	assert.InDelta(t, 0.3, float64(response.Sources[0].Score), 1e-5)
}

func TestScoresSortedAndCapped(t *testing.T) {
	now := time.Now().UTC()
	records := make([]*core.MemoryRecord, 0, 10)
	for i := 0; i < 10; i++ {
		records = append(records, memoryRecord(
			fmt.Sprintf("Note %d", i),
			fmt.Sprintf("budget planning entry number %d", i),
			now.Add(-time.Duration(i)*time.Minute)))
	}
	// One record also matches on the title for a higher score.
	records[7].Title = "budget"

	f := newRetrieverFixture(t, records)
	defer f.cleanup()

	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, scored []*core.ScoredRecord) (string, error) {
		return "summarized", nil
	}

	response := f.retriever.Retrieve(context.Background(), "budget")

	require.Len(t, response.Sources, maxResults)
	for i := 1; i < len(response.Sources); i++ {
		assert.GreaterOrEqual(t, response.Sources[i-1].Score, response.Sources[i].Score)
	}
	assert.Equal(t, "budget", response.Sources[0].Record.Title)
}

func TestKeepRankedThresholdIsStrict(t *testing.T) {
	now := time.Now().UTC()
	records := []*core.MemoryRecord{
		memoryRecord("At threshold", "a", now),
		memoryRecord("Just above", "b", now),
		memoryRecord("Unmatched", "c", now),
		memoryRecord("Strong", "d", now),
	}
	scores := []float32{0.08, 0.081, 0, 0.5}

	kept := keepRanked(records, scores)

	// Exactly 0.08 is excluded; 0.081 survives.
	require.Len(t, kept, 2)
	assert.Equal(t, "Strong", kept[0].Record.Title)
	assert.Equal(t, "Just above", kept[1].Record.Title)
}

func TestFusedScoreClampedToOne(t *testing.T) {
	record := memoryRecord("budget plan", "budget plan for the year", time.Now().UTC())
	record.Embedding = []float32{1, 0, 0}

	f := newRetrieverFixture(t, []*core.MemoryRecord{record})
	defer f.cleanup()

	f.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbedTask) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	f.provider.GetMockExpander().ExpandFunc = func(ctx context.Context, query string) (*core.ExpansionResult, error) {
		return &core.ExpansionResult{
			ExpandedQuery: query,
			Concepts:      []string{"budget", "plan"},
		}, nil
	}
	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return "maxed", nil
	}

	response := f.retriever.Retrieve(context.Background(), "budget plan")

	// Every component at its maximum: vector 1x0.3 + concept 1x0.5 +
	// keyword 1x0.2 + title boost 0.5 fuses to 1.5 and clamps to 1.
	require.Len(t, response.Sources, 1)
	assert.Equal(t, float32(1), response.Sources[0].Score)
	assert.Equal(t, float32(1), response.Confidence)
}

func TestSynthesizerFailureYieldsFailedResponse(t *testing.T) {
	f := newRetrieverFixture(t, []*core.MemoryRecord{
		memoryRecord("Budget", "budget planning", time.Now().UTC()),
	})
	defer f.cleanup()

	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return "", errors.New("model unavailable")
	}

	response := f.retriever.Retrieve(context.Background(), "budget")

	require.NotNil(t, response)
	assert.Equal(t, failureMessage, response.Answer)
	assert.Empty(t, response.Sources)
	assert.Equal(t, float32(0), response.Confidence)
	assert.False(t, response.IsThinking)
}

func TestExpanderFailureDegradesToOriginalQuery(t *testing.T) {
	f := newRetrieverFixture(t, []*core.MemoryRecord{
		memoryRecord("Budget", "budget planning", time.Now().UTC()),
	})
	defer f.cleanup()

	f.provider.GetMockExpander().ExpandFunc = func(ctx context.Context, query string) (*core.ExpansionResult, error) {
		return nil, errors.New("expander offline")
	}
	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return "still answered", nil
	}

	response := f.retriever.Retrieve(context.Background(), "budget")

	// Keyword signal alone still finds the record.
	require.Len(t, response.Sources, 1)
	assert.Equal(t, "still answered", response.Answer)
}

func TestSetQueryDebouncesBurst(t *testing.T) {
	var mu sync.Mutex
	var responses []*core.QueryResponse

	f := newRetrieverFixture(t,
		[]*core.MemoryRecord{memoryRecord("Budget", "budget planning", time.Now().UTC())},
		WithDebounceDelay(40*time.Millisecond),
		WithResponseHandler(func(r *core.QueryResponse) {
			mu.Lock()
			responses = append(responses, r)
			mu.Unlock()
		}),
	)
	defer f.cleanup()

	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return "done", nil
	}

	f.retriever.SetQuery("b")
	time.Sleep(10 * time.Millisecond)
	f.retriever.SetQuery("bud")
	time.Sleep(10 * time.Millisecond)
	f.retriever.SetQuery("budget")

	time.Sleep(250 * time.Millisecond)

	// Three edits, one cycle.
	assert.Equal(t, 1, f.provider.GetMockExpander().CallCount())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, responses, 2)
	assert.True(t, responses[0].IsThinking)
	assert.False(t, responses[1].IsThinking)
	assert.Equal(t, "done", responses[1].Answer)
}

func TestSetQueryBlankBypassesDebounce(t *testing.T) {
	var mu sync.Mutex
	var responses []*core.QueryResponse

	f := newRetrieverFixture(t,
		[]*core.MemoryRecord{memoryRecord("Budget", "budget planning", time.Now().UTC())},
		WithDebounceDelay(60*time.Millisecond),
		WithResponseHandler(func(r *core.QueryResponse) {
			mu.Lock()
			responses = append(responses, r)
			mu.Unlock()
		}),
	)
	defer f.cleanup()

	f.retriever.SetQuery("budget")
	f.retriever.SetQuery("")

	// Browse mode is published before the quiet period could have elapsed.
	mu.Lock()
	require.Len(t, responses, 1)
	assert.Len(t, responses[0].Sources, 1)
	assert.Equal(t, float32(1), responses[0].Confidence)
	assert.False(t, responses[0].IsThinking)
	mu.Unlock()

	// Clearing the box also cancelled the pending "budget" cycle.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, f.provider.GetMockExpander().CallCount())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, responses, 1)
}

func TestStaleCycleResultDiscarded(t *testing.T) {
	var mu sync.Mutex
	var answers []string

	f := newRetrieverFixture(t,
		[]*core.MemoryRecord{memoryRecord("Note", "first second note", time.Now().UTC())},
		WithDebounceDelay(10*time.Millisecond),
		WithResponseHandler(func(r *core.QueryResponse) {
			if !r.IsThinking {
				mu.Lock()
				answers = append(answers, r.Answer)
				mu.Unlock()
			}
		}),
	)
	defer f.cleanup()

	f.provider.GetMockExpander().ExpandFunc = func(ctx context.Context, query string) (*core.ExpansionResult, error) {
		if query == "first" {
			// Keep the first cycle in flight while the second query lands.
			time.Sleep(120 * time.Millisecond)
		}
		return &core.ExpansionResult{ExpandedQuery: query}, nil
	}
	f.provider.GetMockSynthesizer().SynthesizeFunc = func(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
		return query, nil
	}

	f.retriever.SetQuery("first")
	time.Sleep(40 * time.Millisecond) // first cycle is now in flight
	f.retriever.SetQuery("second")

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second"}, answers)
}

func TestRecordEmbeddingComputedOnceAndAttached(t *testing.T) {
	record := memoryRecord("Plain", "no precomputed vector", time.Now().UTC())

	f := newRetrieverFixture(t, nil)
	defer f.cleanup()

	calls := 0
	f.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbedTask) ([]float32, error) {
		calls++
		return []float32{0.1, 0.2}, nil
	}

	ctx := context.Background()
	first := f.retriever.recordEmbedding(ctx, record)
	second := f.retriever.recordEmbedding(ctx, record)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []float32{0.1, 0.2}, record.Embedding)
}

func TestNewRetrieverValidation(t *testing.T) {
	repo, backend, err := badger.NewTestRepository()
	require.NoError(t, err)
	defer func() { repo.Close(); backend.Close() }()

	_, err = NewRetriever(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrMemoryRepositoryRequired)

	_, err = NewRetriever(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
