package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/esg-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	content_type      TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'pending',
	error             TEXT NOT NULL DEFAULT '',
	page_count        INTEGER NOT NULL DEFAULT 0,
	byte_size         INTEGER NOT NULL DEFAULT 0,
	word_count        INTEGER NOT NULL DEFAULT 0,
	ocr_applied       INTEGER NOT NULL DEFAULT 0,
	primary_framework TEXT NOT NULL DEFAULT '',
	result            TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS metrics (
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	category         TEXT NOT NULL,
	match            TEXT NOT NULL,
	context          TEXT NOT NULL DEFAULT '',
	raw_value        TEXT NOT NULL DEFAULT '',
	raw_unit         TEXT NOT NULL DEFAULT '',
	normalized_value REAL,
	normalized_unit  TEXT NOT NULL DEFAULT '',
	can_normalize    INTEGER NOT NULL DEFAULT 0,
	page             INTEGER NOT NULL DEFAULT 0,
	byte_offset      INTEGER NOT NULL DEFAULT 0,
	year             INTEGER NOT NULL DEFAULT 0,
	confidence       REAL NOT NULL DEFAULT 0,
	provenance       TEXT NOT NULL DEFAULT 'pattern'
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_framework ON documents(primary_framework);
CREATE INDEX IF NOT EXISTS idx_metrics_document_id ON metrics(document_id);
CREATE INDEX IF NOT EXISTS idx_metrics_category ON metrics(category);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	now := time.Now().UTC()
	doc.Status = model.DocumentStatusPending
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, content_type, status, byte_size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.ContentType, string(doc.Status), doc.ByteSize, now, now,
	)
	return eris.Wrapf(err, "sqlite: insert document %s", doc.ID)
}

func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, docID string, status model.DocumentStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), docID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document status %s", docID)
	}
	return checkRowsAffected(res, "document", docID)
}

func (s *SQLiteStore) UpdateDocumentResult(ctx context.Context, doc *model.Document, result *model.DocumentResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET status = ?, error = '', page_count = ?, word_count = ?, ocr_applied = ?,
		     primary_framework = ?, result = ?, updated_at = ?
		 WHERE id = ?`,
		string(model.DocumentStatusProcessed), doc.PageCount, doc.WordCount, doc.OCRApplied,
		doc.PrimaryFramework, string(resultJSON), time.Now().UTC(), doc.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document result %s", doc.ID)
	}
	return checkRowsAffected(res, "document", doc.ID)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, content_type, status, error, page_count, byte_size, word_count,
		        ocr_applied, primary_framework, created_at, updated_at
		 FROM documents WHERE id = ?`,
		docID,
	)
	return scanDocument(row)
}

func (s *SQLiteStore) GetDocumentResult(ctx context.Context, docID string) (*model.DocumentResult, error) {
	var resultJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM documents WHERE id = ?`, docID,
	).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("document not found: %s", docID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document result %s", docID)
	}
	if !resultJSON.Valid {
		return nil, nil
	}

	var result model.DocumentResult
	if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &result, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	query := `SELECT id, filename, content_type, status, error, page_count, byte_size, word_count,
	                 ocr_applied, primary_framework, created_at, updated_at
	          FROM documents WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Framework != "" {
		query += ` AND primary_framework = ?`
		args = append(args, filter.Framework)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) ReplaceMetrics(ctx context.Context, docID string, metrics []model.ExtractedMetric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM metrics WHERE document_id = ?`, docID); err != nil {
		return eris.Wrapf(err, "sqlite: clear metrics for %s", docID)
	}

	for _, m := range metrics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO metrics (document_id, category, match, context, raw_value, raw_unit,
			                      normalized_value, normalized_unit, can_normalize, page,
			                      byte_offset, year, confidence, provenance)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			docID, string(m.Category), m.Match, m.Context, m.RawValue, m.RawUnit,
			m.NormalizedValue, m.NormalizedUnit, m.CanNormalize, m.Page,
			m.Offset, m.Year, m.Confidence, string(m.Provenance),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert metric for %s", docID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit metrics")
}

func (s *SQLiteStore) ListMetrics(ctx context.Context, docID string) ([]model.ExtractedMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, category, match, context, raw_value, raw_unit, normalized_value,
		        normalized_unit, can_normalize, page, byte_offset, year, confidence, provenance
		 FROM metrics WHERE document_id = ? ORDER BY byte_offset`,
		docID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list metrics for %s", docID)
	}
	defer rows.Close()

	var metrics []model.ExtractedMetric
	for rows.Next() {
		var m model.ExtractedMetric
		var normalized sql.NullFloat64
		if err := rows.Scan(&m.DocumentID, &m.Category, &m.Match, &m.Context, &m.RawValue,
			&m.RawUnit, &normalized, &m.NormalizedUnit, &m.CanNormalize, &m.Page,
			&m.Offset, &m.Year, &m.Confidence, &m.Provenance); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metric")
		}
		if normalized.Valid {
			v := normalized.Float64
			m.NormalizedValue = &v
		}
		metrics = append(metrics, m)
	}
	return metrics, eris.Wrap(rows.Err(), "sqlite: list metrics iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	err := row.Scan(&d.ID, &d.Filename, &d.ContentType, &d.Status, &d.Error, &d.PageCount,
		&d.ByteSize, &d.WordCount, &d.OCRApplied, &d.PrimaryFramework, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan document")
	}
	return &d, nil
}
