// Package reembed regenerates document embeddings for stored memories,
// typically after switching embedding models. Records are processed in
// batches with retry and progress reporting.
package reembed
