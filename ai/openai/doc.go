// Package openai implements the ai service interfaces against any
// OpenAI-compatible endpoint, such as a local Ollama server.
//
// The embedder and query expander degrade on failure rather than erroring,
// so a retrieval cycle can continue with weaker signals. The classifier and
// synthesizer propagate errors to their callers.
package openai
