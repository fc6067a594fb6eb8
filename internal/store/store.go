package store

import (
	"context"

	"github.com/sells-group/esg-intel/internal/model"
)

// DocumentFilter specifies criteria for listing documents.
type DocumentFilter struct {
	Status    model.DocumentStatus `json:"status,omitempty"`
	Framework string               `json:"framework,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
	Offset    int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the document pipeline.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) error
	UpdateDocumentStatus(ctx context.Context, docID string, status model.DocumentStatus, errMsg string) error
	UpdateDocumentResult(ctx context.Context, doc *model.Document, result *model.DocumentResult) error
	GetDocument(ctx context.Context, docID string) (*model.Document, error)
	GetDocumentResult(ctx context.Context, docID string) (*model.DocumentResult, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error)

	// Metrics are stored relationally so they can be queried across
	// documents; a re-run replaces the document's rows.
	ReplaceMetrics(ctx context.Context, docID string, metrics []model.ExtractedMetric) error
	ListMetrics(ctx context.Context, docID string) ([]model.ExtractedMetric, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
