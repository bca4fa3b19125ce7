// Package ingestion provides pipeline orchestration for storing memories.
//
// The Pipeline type manages the ingestion workflow for memory records:
//   - Masking PII out of the raw text
//   - Classifying the masked text into title, summary, category and entities
//   - Generating a document embedding
//   - Persisting the finished record
//
// Batches are processed concurrently using a worker pool. A failed embedding
// degrades to a record without a vector (retrieval embeds it on demand);
// a failed classification fails that record's ingestion.
package ingestion
