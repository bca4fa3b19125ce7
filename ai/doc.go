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


// Package ai provides abstractions for the AI services used in Memora.
//
// This package defines interfaces for the four external collaborators of the
// retrieval and ingestion pipelines:
//
//   - Embedder: generates vector embeddings (query and document task modes)
//   - QueryExpander: maps conversational queries onto bridging concepts
//   - Classifier: extracts title, summary, category, importance, entities
//     and privacy risks from masked memory text
//   - Synthesizer: turns a query plus ranked records into prose
//
// It follows the dependency inversion principle: the core domain and business
// logic depend on these abstractions rather than concrete implementations.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Degradation Contract
//
// Embedder and QueryExpander are degraded-signal dependencies: their
// production implementations absorb transport and parse failures and return
// neutral defaults (empty vector, original query) with a nil error. Classifier
// and Synthesizer failures propagate to their callers, which decide whether
// the operation is fatal.
//
// # Constructor Return Type Pattern
//
// Public constructors in ai/openai return INTERFACE types to enforce
// abstraction and prevent accidental coupling to concrete implementations.
// Test utility constructors in ai/mock return CONCRETE types to enable test
// assertions and behavior injection via the mocks' public function fields.
package ai
