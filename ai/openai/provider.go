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
	"log/slog"

	"github.com/poiesic/memora/ai"
)

// Provider implements ai.Provider using OpenAI-compatible services.
// It manages the embedder, expander, classifier and synthesizer instances.
type Provider struct {
	config      *ai.Config
	embedder    *ai.CachingEmbedder
	expander    *QueryExpander
	classifier  *Classifier
	synthesizer *Synthesizer
	logger      *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use. The embedder is wrapped
// in a content-addressed cache so repeated embeddings of the same text are
// computed once per process.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	cachingEmbedder, err := ai.NewCachingEmbedder(embedder, 0)
	if err != nil {
		return nil, err
	}

	expander, err := newQueryExpander(config)
	if err != nil {
		cachingEmbedder.Close()
		return nil, err
	}

	classifier, err := newClassifier(config)
	if err != nil {
		cachingEmbedder.Close()
		return nil, err
	}

	synthesizer, err := newSynthesizer(config)
	if err != nil {
		cachingEmbedder.Close()
		return nil, err
	}

	return &Provider{
		config:      config,
		embedder:    cachingEmbedder,
		expander:    expander,
		classifier:  classifier,
		synthesizer: synthesizer,
		logger:      slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// QueryExpander returns the query expansion service.
func (p *Provider) QueryExpander() ai.QueryExpander {
	return p.expander
}

// Classifier returns the memory classification service.
func (p *Provider) Classifier() ai.Classifier {
	return p.classifier
}

// Synthesizer returns the answer synthesis service.
func (p *Provider) Synthesizer() ai.Synthesizer {
	return p.synthesizer
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	p.embedder.Close()
	return nil
}
