package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/memora/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
//
// Embedding is a degraded-signal dependency: if the primary path for the
// task mode fails, the alternate path is tried once, and if that also fails
// an empty vector is returned with a nil error. Downstream scoring treats an
// empty vector as "no vector signal".
func (e *Embedder) EmbedText(ctx context.Context, text string, task ai.EmbedTask) ([]float32, error) {
	text = boundEmbedText(text)

	vec, err := e.embedForTask(ctx, text, task)
	if err == nil && len(vec) > 0 {
		return vec, nil
	}
	if err != nil {
		e.logger.Warn("primary embedding path failed, trying fallback", "task", task, "err", err)
	}

	// One fallback on the alternate task path. The weighting differs
	// slightly but a mismatched-task vector beats no vector at all.
	fallbackTask := ai.TaskQuery
	if task == ai.TaskQuery {
		fallbackTask = ai.TaskDocument
	}
	vec, err = e.embedForTask(ctx, text, fallbackTask)
	if err != nil {
		e.logger.Error("all embedding paths failed", "err", err)
		return []float32{}, nil
	}
	if vec == nil {
		vec = []float32{}
	}
	return vec, nil
}

func (e *Embedder) embedForTask(ctx context.Context, text string, task ai.EmbedTask) ([]float32, error) {
	if task == ai.TaskQuery {
		return e.embedder.EmbedQuery(ctx, text)
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}
