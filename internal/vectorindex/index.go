// Package vectorindex stores chunk embeddings for similarity search. The
// only backing implementation is Postgres with the pgvector extension; when
// no Postgres pool is configured the pipeline runs with the noop index and
// skips the embedding handoff.
package vectorindex

import (
	"context"

	"github.com/sells-group/esg-intel/internal/chunk"
)

// Result is one similarity hit.
type Result struct {
	DocumentID string  `json:"document_id"`
	Section    string  `json:"section"`
	Page       int     `json:"page"`
	Text       string  `json:"text"`
	Distance   float64 `json:"distance"`
}

// Index stores and queries chunk embeddings.
type Index interface {
	// Upsert replaces the stored chunks for the chunks' document.
	// len(embeddings) must equal len(chunks).
	Upsert(ctx context.Context, chunks []chunk.Chunk, embeddings [][]float32) error
	// Query returns the nearest stored chunks to the embedding.
	Query(ctx context.Context, embedding []float32, limit int) ([]Result, error)
	// Available reports whether the index is backed by real storage.
	Available() bool
}

// Noop is the index used when vector storage is not configured. Upserts
// succeed silently and queries return nothing.
type Noop struct{}

func (Noop) Upsert(ctx context.Context, chunks []chunk.Chunk, embeddings [][]float32) error {
	return nil
}

func (Noop) Query(ctx context.Context, embedding []float32, limit int) ([]Result, error) {
	return nil, nil
}

func (Noop) Available() bool { return false }
