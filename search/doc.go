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

// Package search implements the retrieval-ranking pipeline.
//
// The Retriever type runs a multi-stage cycle per query: concept expansion,
// query embedding, parallel per-record scoring that fuses vector similarity
// with keyword, concept and title signals, thresholded ranking, and answer
// synthesis over the survivors. Conceptual matching carries the largest
// fusion weight so conversational phrasing ("cut the cake") can reach
// records stored under different wording ("Birthday Party").
//
// Queries arriving in quick succession are debounced, and a cycle whose
// query has been superseded discards its result instead of publishing it.
package search
