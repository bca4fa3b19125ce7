// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// QueryExpander implements ai.QueryExpander using OpenAI-compatible chat APIs.
type QueryExpander struct {
	client llms.Model
	logger *slog.Logger
}

// expansionResponse is the structure expected from the LLM.
type expansionResponse struct {
	ExpandedQuery string   `json:"expandedQuery"`
	Concepts      []string `json:"concepts"`
}

// newQueryExpander is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newQueryExpander(config *ai.Config) (*QueryExpander, error) {
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

	return &QueryExpander{
		client: client,
		logger: slog.Default().With("component", "openai-expander"),
	}, nil
}

// NewQueryExpander creates a new query expander using the provided configuration.
//
// Returns ai.QueryExpander interface to enforce abstraction.
func NewQueryExpander(config *ai.Config) (ai.QueryExpander, error) {
	return newQueryExpander(config)
}

// Expand maps a conversational query onto an expanded query string and a list
// of bridging concepts.
//
// Expansion is a degraded-signal dependency: any transport or parse failure
// returns the original query with no concepts and a nil error. The retrieval
// pipeline must never fail solely because expansion failed.
func (x *QueryExpander) Expand(ctx context.Context, query string) (*core.ExpansionResult, error) {
	fallback := &core.ExpansionResult{ExpandedQuery: query}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(expanderSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(fmt.Sprintf("Deconstruct Query: %q", query)),
			},
		},
	}

	response, err := x.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		x.logger.Warn("query expansion failed, using raw query", "err", err)
		return fallback, nil
	}
	if len(response.Choices) < 1 {
		x.logger.Debug("no choices returned from model")
		return fallback, nil
	}

	responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

	var parsed expansionResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		x.logger.Warn("error parsing expansion response, using raw query",
			"response", responseText,
			"err", err)
		return fallback, nil
	}

	result := &core.ExpansionResult{
		ExpandedQuery: parsed.ExpandedQuery,
		Concepts:      parsed.Concepts,
	}
	if result.ExpandedQuery == "" {
		result.ExpandedQuery = query
	}
	return result, nil
}
