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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Classifier implements ai.Classifier using OpenAI-compatible chat APIs.
type Classifier struct {
	client llms.Model
	logger *slog.Logger
}

// classificationEntity matches the entity shape expected from the LLM.
type classificationEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// classificationResponse is the wrapper structure for the LLM's JSON response.
type classificationResponse struct {
	Title        string                 `json:"title"`
	Summary      string                 `json:"summary"`
	Importance   int                    `json:"importance"`
	Category     string                 `json:"category"`
	Entities     []classificationEntity `json:"entities"`
	PrivacyRisks []string               `json:"privacyRisks"`
}

// newClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newClassifier(config *ai.Config) (*Classifier, error) {
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

	return &Classifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewClassifier creates a new classifier using the provided configuration.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	return newClassifier(config)
}

// Classify analyzes masked memory text and an optional base64 JPEG image.
// Classification errors propagate: a memory that cannot be classified is not
// stored.
func (c *Classifier) Classify(ctx context.Context, text string, imageB64 string) (*core.Analysis, error) {
	humanParts := []llms.ContentPart{
		llms.TextPart(fmt.Sprintf("Process this memory entry: %q", text)),
	}
	if imageB64 != "" {
		imageData, err := base64.StdEncoding.DecodeString(imageB64)
		if err != nil {
			return nil, fmt.Errorf("invalid image payload: %w", err)
		}
		humanParts = append(humanParts, llms.BinaryPart("image/jpeg", imageData))
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(classifierSystemPrompt),
			},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: humanParts,
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result classificationResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			return nil, fmt.Errorf("classifier returned no choices")
		}

		responseText := repairJSON(stripCodeFences(response.Choices[0].Content))

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
		return nil, lastErr
	}

	return toAnalysis(&result), nil
}

// toAnalysis converts the raw LLM response into a validated core.Analysis.
// Malformed fields are normalized rather than trusted blindly.
func toAnalysis(r *classificationResponse) *core.Analysis {
	importance := r.Importance
	if importance < 1 {
		importance = 1
	}
	if importance > 10 {
		importance = 10
	}

	entities := make([]core.Entity, 0, len(r.Entities))
	for _, e := range r.Entities {
		if e.Name == "" {
			continue
		}
		kind := e.Type
		if kind == "" {
			kind = "Other"
		}
		entities = append(entities, core.Entity{Name: e.Name, Kind: kind})
	}

	return &core.Analysis{
		Title:        r.Title,
		Summary:      r.Summary,
		Importance:   importance,
		Category:     core.NormalizeCategory(r.Category),
		Entities:     entities,
		PrivacyRisks: r.PrivacyRisks,
	}
}
