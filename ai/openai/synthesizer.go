package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// emptyAnswerFallback is returned when the model produces no usable text for
// a non-empty context.
const emptyAnswerFallback = "I found relevant records but couldn't synthesize a precise answer."

// Synthesizer implements ai.Synthesizer using OpenAI-compatible chat APIs.
type Synthesizer struct {
	client llms.Model
	now    func() time.Time
	logger *slog.Logger
}

// newSynthesizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ReasoningHost),
		openai.WithToken("none"),
		openai.WithModel(config.ReasoningModel),
	)
	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		client: client,
		now:    time.Now,
		logger: slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a new answer synthesizer using the provided configuration.
//
// Returns ai.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSynthesizer(config)
}

// Synthesize turns a query plus ranked records into a natural-language answer.
// Errors propagate to the retrieval orchestrator, which treats them as
// pipeline-fatal for the current cycle.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, records []*core.ScoredRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	prompt := buildSynthesisPrompt(query, records, s.now())

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := s.client.GenerateContent(ctx, content)
	if err != nil {
		s.logger.Error("synthesis failed", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		return emptyAnswerFallback, nil
	}
	answer := strings.TrimSpace(response.Choices[0].Content)
	if answer == "" {
		return emptyAnswerFallback, nil
	}
	return answer, nil
}
