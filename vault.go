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

// Package memora is a personal memory vault: memories go in as free text
// (optionally with an image), get masked, classified and embedded, and come
// back out through a concept-bridging retrieval pipeline that answers
// conversational questions against them.
package memora

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/memora/ai"
	"github.com/poiesic/memora/ai/openai"
	"github.com/poiesic/memora/ingestion"
	"github.com/poiesic/memora/reembed"
	"github.com/poiesic/memora/search"
	"github.com/poiesic/memora/storage"
	"github.com/poiesic/memora/storage/badger"
)

// Vault bundles the storage backend, the memory repository and the AI
// provider behind one handle, and hands out the pipelines built on them.
type Vault struct {
	backend    *badger.Backend
	memoryRepo storage.MemoryRepository
	provider   ai.Provider
	logger     *slog.Logger
}

// VaultOption configures a Vault.
type VaultOption func(*vaultOptions)

type vaultOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig overrides the default AI endpoint configuration.
func WithAIConfig(config *ai.Config) VaultOption {
	return func(o *vaultOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// OpenVault opens (or creates) a vault at the given path.
func OpenVault(filePath string, opts ...VaultOption) (*Vault, error) {
	options := &vaultOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	memoryRepo, err := badger.NewMemoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		memoryRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Vault{
		backend:    backend,
		memoryRepo: memoryRepo,
		provider:   provider,
		logger:     slog.Default(),
	}, nil
}

// Close releases the AI provider, repository and storage backend.
func (v *Vault) Close() error {
	if err := v.provider.Close(); err != nil {
		v.logger.Error("error closing AI provider", "err", err)
	}

	if err := v.memoryRepo.Close(); err != nil {
		v.logger.Error("error closing memory repository", "err", err)
		return err
	}

	if err := v.backend.Close(); err != nil {
		v.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// MemoryRepository returns the vault's record store.
func (v *Vault) MemoryRepository() storage.MemoryRepository {
	return v.memoryRepo
}

// NewIngestionPipeline builds an ingestion pipeline over the vault.
func (v *Vault) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(v.memoryRepo, v.provider, opts...)
}

// NewRetriever builds a retrieval pipeline over the vault.
func (v *Vault) NewRetriever(opts ...search.Option) (*search.Retriever, error) {
	return search.NewRetriever(v.memoryRepo, v.provider, opts...)
}

// VaultStats summarizes the stored collection.
type VaultStats struct {
	TotalMemories int
	HighPriority  int // Memories with importance 8 or above
}

// Stats counts the stored memories.
func (v *Vault) Stats(ctx context.Context) (*VaultStats, error) {
	records, err := v.memoryRepo.ListMemories(ctx)
	if err != nil {
		return nil, err
	}

	stats := &VaultStats{TotalMemories: len(records)}
	for _, record := range records {
		if record.Importance >= 8 {
			stats.HighPriority++
		}
	}
	return stats, nil
}

// NewReembedder builds a reembedding run over the vault.
func (v *Vault) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(v.memoryRepo, v.provider.Embedder(), config, progress)
}
