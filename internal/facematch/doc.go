// Package facematch holds the in-memory face embedding index and the match
// engine that searches it.
//
// The Store keeps an immutable Snapshot of every persisted face embedding,
// normalized to unit length, and replaces it wholesale on Reload. The Engine
// keeps short-lived query embeddings (temp faces) keyed by random IDs and
// ranks stored faces against them by cosine similarity, returning at most one
// result per photo.
package facematch
