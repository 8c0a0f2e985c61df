// Package reembed recomputes the vectors of stored clipboard entries.
//
// Run it after switching embedding models, since vectors from different
// models are not comparable, or with MissingOnly to backfill entries that
// were captured before the embedder finished loading. Text entries are
// embedded in batches and images one at a time; every model call is
// retried with exponential backoff.
package reembed
