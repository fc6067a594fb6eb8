package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-intel/internal/db"
	"github.com/sells-group/esg-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_document":        `INSERT INTO documents (id, filename, content_type, status, byte_size, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"update_document_status": `UPDATE documents SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"get_document":           `SELECT id, filename, content_type, status, error, page_count, byte_size, word_count, ocr_applied, primary_framework, created_at, updated_at FROM documents WHERE id = $1`,
	"get_document_result":    `SELECT result FROM documents WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need
// direct query access (e.g., the vector index).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	filename          TEXT NOT NULL,
	content_type      TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	error             TEXT NOT NULL DEFAULT '',
	page_count        INTEGER NOT NULL DEFAULT 0,
	byte_size         BIGINT NOT NULL DEFAULT 0,
	word_count        INTEGER NOT NULL DEFAULT 0,
	ocr_applied       BOOLEAN NOT NULL DEFAULT false,
	primary_framework TEXT NOT NULL DEFAULT '',
	result            JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS metrics (
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	category         TEXT NOT NULL,
	match            TEXT NOT NULL,
	context          TEXT NOT NULL DEFAULT '',
	raw_value        TEXT NOT NULL DEFAULT '',
	raw_unit         TEXT NOT NULL DEFAULT '',
	normalized_value DOUBLE PRECISION,
	normalized_unit  TEXT NOT NULL DEFAULT '',
	can_normalize    BOOLEAN NOT NULL DEFAULT false,
	page             INTEGER NOT NULL DEFAULT 0,
	byte_offset      INTEGER NOT NULL DEFAULT 0,
	year             INTEGER NOT NULL DEFAULT 0,
	confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
	provenance       TEXT NOT NULL DEFAULT 'pattern'
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_framework ON documents(primary_framework);
CREATE INDEX IF NOT EXISTS idx_metrics_document_id ON metrics(document_id);
CREATE INDEX IF NOT EXISTS idx_metrics_category ON metrics(category);
CREATE INDEX IF NOT EXISTS idx_metrics_year ON metrics(year);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	now := time.Now().UTC()
	doc.Status = model.DocumentStatusPending
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, filename, content_type, status, byte_size, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Filename, doc.ContentType, string(doc.Status), doc.ByteSize, now, now,
	)
	return eris.Wrapf(err, "postgres: insert document %s", doc.ID)
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, docID string, status model.DocumentStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), docID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document status %s", docID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", docID)
	}
	return nil
}

func (s *PostgresStore) UpdateDocumentResult(ctx context.Context, doc *model.Document, result *model.DocumentResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET status = $1, error = '', page_count = $2, word_count = $3, ocr_applied = $4,
		     primary_framework = $5, result = $6, updated_at = $7
		 WHERE id = $8`,
		string(model.DocumentStatusProcessed), doc.PageCount, doc.WordCount, doc.OCRApplied,
		doc.PrimaryFramework, resultJSON, time.Now().UTC(), doc.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document result %s", doc.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", doc.ID)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	var d model.Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, content_type, status, error, page_count, byte_size, word_count,
		        ocr_applied, primary_framework, created_at, updated_at
		 FROM documents WHERE id = $1`,
		docID,
	).Scan(&d.ID, &d.Filename, &d.ContentType, &d.Status, &d.Error, &d.PageCount, &d.ByteSize,
		&d.WordCount, &d.OCRApplied, &d.PrimaryFramework, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", docID)
	}
	return &d, nil
}

func (s *PostgresStore) GetDocumentResult(ctx context.Context, docID string) (*model.DocumentResult, error) {
	var resultNull *[]byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM documents WHERE id = $1`, docID,
	).Scan(&resultNull)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("document not found: %s", docID)
		}
		return nil, eris.Wrapf(err, "postgres: get document result %s", docID)
	}
	if resultNull == nil {
		return nil, nil
	}

	var result model.DocumentResult
	if err := json.Unmarshal(*resultNull, &result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &result, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT id, filename, content_type, status, error, page_count, byte_size, word_count,
	                 ocr_applied, primary_framework, created_at, updated_at
	          FROM documents WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Framework != "" {
		query += fmt.Sprintf(` AND primary_framework = $%d`, argIdx)
		args = append(args, filter.Framework)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Filename, &d.ContentType, &d.Status, &d.Error, &d.PageCount,
			&d.ByteSize, &d.WordCount, &d.OCRApplied, &d.PrimaryFramework, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

// metricColumns is the column order used by ReplaceMetrics' bulk COPY.
var metricColumns = []string{
	"document_id", "category", "match", "context", "raw_value", "raw_unit",
	"normalized_value", "normalized_unit", "can_normalize", "page",
	"byte_offset", "year", "confidence", "provenance",
}

func (s *PostgresStore) ReplaceMetrics(ctx context.Context, docID string, metrics []model.ExtractedMetric) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM metrics WHERE document_id = $1`, docID); err != nil {
		return eris.Wrapf(err, "postgres: clear metrics for %s", docID)
	}

	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = []any{docID, string(m.Category), m.Match, m.Context, m.RawValue, m.RawUnit,
			m.NormalizedValue, m.NormalizedUnit, m.CanNormalize, m.Page,
			m.Offset, m.Year, m.Confidence, string(m.Provenance)}
	}

	if _, err := db.CopyFrom(ctx, s.pool, "metrics", metricColumns, rows); err != nil {
		return eris.Wrapf(err, "postgres: store metrics for %s", docID)
	}
	return nil
}

func (s *PostgresStore) ListMetrics(ctx context.Context, docID string) ([]model.ExtractedMetric, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, category, match, context, raw_value, raw_unit, normalized_value,
		        normalized_unit, can_normalize, page, byte_offset, year, confidence, provenance
		 FROM metrics WHERE document_id = $1 ORDER BY byte_offset`,
		docID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list metrics for %s", docID)
	}
	defer rows.Close()

	var metrics []model.ExtractedMetric
	for rows.Next() {
		var m model.ExtractedMetric
		if err := rows.Scan(&m.DocumentID, &m.Category, &m.Match, &m.Context, &m.RawValue,
			&m.RawUnit, &m.NormalizedValue, &m.NormalizedUnit, &m.CanNormalize, &m.Page,
			&m.Offset, &m.Year, &m.Confidence, &m.Provenance); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metric")
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "postgres: list metrics iterate")
}
