package vectorindex

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-intel/internal/chunk"
	"github.com/sells-group/esg-intel/internal/db"
)

const chunksDDL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS document_chunks (
	document_id TEXT NOT NULL,
	ordinal     INTEGER NOT NULL,
	section     TEXT NOT NULL DEFAULT '',
	page        INTEGER NOT NULL DEFAULT 0,
	byte_offset INTEGER NOT NULL DEFAULT 0,
	content     TEXT NOT NULL,
	embedding   vector(%d),
	PRIMARY KEY (document_id, ordinal)
);
`

// Postgres stores embeddings in a pgvector column.
type Postgres struct {
	pool      db.Pool
	dimension int
}

// NewPostgres creates a pgvector-backed index. dimension is the embedding
// width and must match the embedding provider's output.
func NewPostgres(pool db.Pool, dimension int) *Postgres {
	return &Postgres{pool: pool, dimension: dimension}
}

// EnsureSchema creates the pgvector extension and chunk table.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ddl := strings.Replace(chunksDDL, "%d", strconv.Itoa(p.dimension), 1)
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrap(err, "vectorindex: create schema")
	}
	return nil
}

// Upsert replaces all stored chunks for the chunks' document. A document
// re-run overwrites its previous chunks rather than appending.
func (p *Postgres) Upsert(ctx context.Context, chunks []chunk.Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(embeddings) {
		return eris.Errorf("vectorindex: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}

	docID := chunks[0].DocumentID
	if _, err := p.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, docID); err != nil {
		return eris.Wrapf(err, "vectorindex: clear chunks for %s", docID)
	}

	rows := make([][]any, len(chunks))
	for i, c := range chunks {
		rows[i] = []any{c.DocumentID, c.Ordinal, c.Section, c.Page, c.Offset, c.Text, vectorLiteral(embeddings[i])}
	}

	columns := []string{"document_id", "ordinal", "section", "page", "byte_offset", "content", "embedding"}
	if _, err := db.CopyFrom(ctx, p.pool, "document_chunks", columns, rows); err != nil {
		return eris.Wrapf(err, "vectorindex: store chunks for %s", docID)
	}
	return nil
}

// Query returns the limit nearest chunks by cosine distance.
func (p *Postgres) Query(ctx context.Context, embedding []float32, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := p.pool.Query(ctx, `
		SELECT document_id, section, page, content, embedding <=> $1 AS distance
		FROM document_chunks
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vectorLiteral(embedding), limit)
	if err != nil {
		return nil, eris.Wrap(err, "vectorindex: query")
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.DocumentID, &r.Section, &r.Page, &r.Text, &r.Distance); err != nil {
			return nil, eris.Wrap(err, "vectorindex: scan result")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "vectorindex: iterate results")
	}
	return out, nil
}

func (p *Postgres) Available() bool { return p.pool != nil }

// vectorLiteral renders an embedding as the pgvector text format,
// e.g. "[0.1,0.2,0.3]".
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
