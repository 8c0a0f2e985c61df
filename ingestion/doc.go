// Package ingestion persists captured clipboard content.
//
// The Pipeline drains the capture queue one item at a time, in arrival
// order. Each capture is:
//   - embedded, when the embedding service is ready
//   - inserted into storage, which assigns its id
//   - appended to the in-memory history
//
// Embedding failures leave the entry without a vector. A storage failure
// is logged and the entry is still kept in memory with id 0, so memory
// and storage can diverge until restart.
package ingestion
