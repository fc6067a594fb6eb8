package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/esg-intel/internal/model"
)

// BatchItem is the outcome of processing one file in a batch.
type BatchItem struct {
	Path     string                `json:"path"`
	Document *model.Document       `json:"document,omitempty"`
	Result   *model.DocumentResult `json:"result,omitempty"`
	Err      string                `json:"error,omitempty"`
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	Items     []BatchItem `json:"items"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
}

// ProcessBatch runs the pipeline over multiple files with bounded
// concurrency. One document failing does not stop the others; the only
// early exit is context cancellation.
func (p *Pipeline) ProcessBatch(ctx context.Context, paths []string, forceOCR bool) BatchSummary {
	limit := p.cfg.Batch.MaxConcurrentDocuments
	if limit <= 0 {
		limit = 4
	}

	items := make([]BatchItem, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			item := BatchItem{Path: path}
			doc, result, err := p.Process(gCtx, path, forceOCR)
			item.Document = doc
			item.Result = result
			if err != nil {
				item.Err = err.Error()
				zap.L().Error("batch: document failed",
					zap.String("path", path), zap.Error(err))
			}
			items[i] = item
			return gCtx.Err()
		})
	}

	// The only group error is context cancellation; partial results are
	// still reported.
	if err := g.Wait(); err != nil {
		zap.L().Warn("batch: interrupted", zap.Error(err))
	}

	summary := BatchSummary{Items: items}
	for _, item := range items {
		switch {
		case item.Err != "":
			summary.Failed++
		case item.Document != nil:
			summary.Processed++
		}
	}
	return summary
}
