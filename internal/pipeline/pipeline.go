// Package pipeline orchestrates the document intelligence stages: text
// extraction, structuring, metric and table extraction, framework
// detection, regulatory mapping, compliance assessment, and confidence
// aggregation, with persistence and the optional embedding handoff.
package pipeline

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/chunk"
	"github.com/sells-group/esg-intel/internal/compliance"
	"github.com/sells-group/esg-intel/internal/confidence"
	"github.com/sells-group/esg-intel/internal/config"
	"github.com/sells-group/esg-intel/internal/extract"
	"github.com/sells-group/esg-intel/internal/frameworks"
	"github.com/sells-group/esg-intel/internal/metrics"
	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/regmap"
	"github.com/sells-group/esg-intel/internal/resilience"
	"github.com/sells-group/esg-intel/internal/store"
	"github.com/sells-group/esg-intel/internal/structure"
	"github.com/sells-group/esg-intel/internal/tables"
	"github.com/sells-group/esg-intel/internal/vectorindex"
	"github.com/sells-group/esg-intel/pkg/anthropic"
	"github.com/sells-group/esg-intel/pkg/jina"
)

// Pipeline orchestrates all processing stages for a document.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	cat       *catalog.Compiled
	extractor *extract.Extractor
	matcher   *metrics.Matcher
	tables    *tables.Extractor
	detector  *frameworks.Detector
	mapper    *regmap.Mapper
	assessor  *compliance.Assessor
	aiMetrics *metrics.AIExtractor
	chunker   *chunk.Chunker
	anthropic anthropic.Client
	jina      jina.Client
	index     vectorindex.Index

	retryCfg     resilience.RetryConfig
	embedBreaker *resilience.CircuitBreaker
	aiLimiter    *rate.Limiter
}

// Options are the external collaborators injected at construction. Nil
// collaborators degrade to noops; the pipeline never requires them.
type Options struct {
	Anthropic anthropic.Client
	Jina      jina.Client
	Index     vectorindex.Index
}

// New wires a Pipeline from config, store, catalog, and collaborators.
// Strategy selection (rule-based vs AI-assisted, embed vs skip) happens
// here, once, from each collaborator's availability probe.
func New(cfg *config.Config, st store.Store, cat *catalog.Compiled, extractor *extract.Extractor, opts Options) (*Pipeline, error) {
	if cat == nil {
		return nil, eris.New("pipeline: nil catalog")
	}

	aiClient := opts.Anthropic
	if aiClient == nil {
		aiClient = anthropic.Noop{}
	}
	jinaClient := opts.Jina
	if jinaClient == nil {
		jinaClient = jina.Noop{}
	}
	index := opts.Index
	if index == nil {
		index = vectorindex.Noop{}
	}

	assessor := compliance.NewAssessor(cat, aiClient, compliance.Options{
		Model:        cfg.Anthropic.Model,
		MaxTokens:    cfg.Anthropic.MaxTokens,
		ExcerptChars: cfg.Pipeline.AIExcerptChars,
	})

	var aiMetrics *metrics.AIExtractor
	if aiClient.Available() {
		aiMetrics = metrics.NewAIExtractor(aiClient, metrics.AIOptions{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		})
	}

	ratePerSec := cfg.Anthropic.RatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 2.0
	}

	retryCfg := resilience.FromRetryConfig(
		cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMS, cfg.Retry.MaxBackoffMS,
		cfg.Retry.Multiplier, cfg.Retry.JitterFraction,
	)
	retryCfg.OnRetry = resilience.RetryLogger("jina", "embed")

	breakerCfg := resilience.FromCircuitConfig(cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeoutSecs)
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("pipeline: embeddings circuit state change",
			zap.String("from", from.String()), zap.String("to", to.String()))
	}

	return &Pipeline{
		cfg:          cfg,
		store:        st,
		cat:          cat,
		extractor:    extractor,
		matcher:      metrics.NewMatcher(cat),
		tables:       tables.NewExtractor(cat),
		detector:     frameworks.NewDetector(cat),
		mapper:       regmap.NewMapper(cat, cfg.Pipeline.MappingConfidenceThreshold),
		assessor:     assessor,
		aiMetrics:    aiMetrics,
		chunker:      chunk.New(cfg.Chunk.Size, cfg.Chunk.Overlap),
		anthropic:    aiClient,
		jina:         jinaClient,
		index:        index,
		retryCfg:     retryCfg,
		embedBreaker: resilience.NewCircuitBreaker(breakerCfg),
		aiLimiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}, nil
}

// Process runs the full pipeline for one file. The document record moves
// pending -> processing -> processed, or to failed with the error recorded.
// Cancellation mid-run leaves the document failed, never processed.
func (p *Pipeline) Process(ctx context.Context, path string, forceOCR bool) (*model.Document, *model.DocumentResult, error) {
	doc := &model.Document{
		ID:          uuid.New().String(),
		Filename:    filenameOf(path),
		ContentType: contentTypeOf(path),
	}
	if fi, err := os.Stat(path); err == nil {
		doc.ByteSize = fi.Size()
	}

	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: create document")
	}

	result, err := p.run(ctx, doc, path, forceOCR)
	if err != nil {
		p.markFailed(doc.ID, err)
		return doc, nil, err
	}
	return doc, result, nil
}

// markFailed records a failure with a context detached from the cancelled
// run so the status write itself cannot be cancelled away.
func (p *Pipeline) markFailed(docID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.UpdateDocumentStatus(ctx, docID, model.DocumentStatusFailed, cause.Error()); err != nil {
		zap.L().Warn("pipeline: failed to record failure",
			zap.String("document_id", docID), zap.Error(err))
	}
}

func (p *Pipeline) run(ctx context.Context, doc *model.Document, path string, forceOCR bool) (*model.DocumentResult, error) {
	log := zap.L().With(zap.String("document_id", doc.ID), zap.String("filename", doc.Filename))
	log.Info("pipeline: processing document")
	started := time.Now()

	if err := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocumentStatusProcessing, ""); err != nil {
		return nil, eris.Wrap(err, "pipeline: update status")
	}

	// Spreadsheets carry no prose: sheets go straight to the table
	// extractor and the text stages are skipped.
	if strings.EqualFold(extOf(path), ".xlsx") {
		return p.runWorkbook(ctx, doc, path, log, started)
	}

	// Stage 1: extraction with OCR fallback.
	extracted := p.extractor.Extract(ctx, path, forceOCR)
	if extracted.Err != "" {
		return nil, eris.Errorf("pipeline: extract %s: %s", doc.Filename, extracted.Err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return nil, eris.Errorf("pipeline: no text extracted from %s", doc.Filename)
	}

	text := extract.CleanText(extracted.Text)
	doc.Text = text
	doc.PageCount = extracted.PageCount
	doc.WordCount = extracted.WordCount
	doc.OCRApplied = extracted.OCRApplied

	// Stage 2: structure. Later stages share its page index.
	ds := structure.Build(doc.ID, text, doc.PageCount)
	idx := structure.NewIndex(ds.PageOffsets)

	// Stages 3-5 read the same immutable text and run concurrently.
	var (
		extractedMetrics []model.ExtractedMetric
		tableRecords     []model.TableRecord
		detections       []model.FrameworkDetection
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mentions := p.matcher.Match(text)
		extractedMetrics = metrics.Normalize(doc.ID, mentions, idx)
		if p.aiMetrics != nil {
			if err := p.aiLimiter.Wait(gCtx); err != nil {
				return err
			}
			extra := p.aiMetrics.Extract(gCtx, doc.ID, text, idx, extractedMetrics)
			extractedMetrics = append(extractedMetrics, extra...)
		}
		return nil
	})

	g.Go(func() error {
		tableRecords = p.tables.FromText(doc.ID, text, idx)
		return nil
	})

	g.Go(func() error {
		detections = p.detector.Detect(doc.ID, text)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: analysis stages")
	}

	doc.PrimaryFramework = frameworks.Primary(p.cat, detections)

	// Stage 6: regulatory mapping over the joined detections.
	mappings := p.mapper.Map(doc.ID, text, detections, idx)

	// Stage 7: compliance assessment. The AI-refined path rate-limits its
	// own calls through the shared limiter.
	assessments, overall := p.assessWithLimit(ctx, doc.ID, text, mappings)

	// Stage 8: confidence aggregation.
	scores := confidence.Aggregate(doc.ID, doc.WordCount, extractedMetrics, detections)

	result := &model.DocumentResult{
		Structure:         ds,
		Metrics:           extractedMetrics,
		Tables:            tableRecords,
		Detections:        detections,
		Mappings:          mappings,
		Assessments:       assessments,
		Confidence:        &scores,
		OverallCompliance: overall,
		ProcessedAt:       time.Now().UTC(),
		DurationMS:        time.Since(started).Milliseconds(),
	}

	// Stage 9: persistence. The status flip to processed is last; if the
	// context is already cancelled these writes fail and the document is
	// marked failed by the caller.
	if err := p.store.ReplaceMetrics(ctx, doc.ID, extractedMetrics); err != nil {
		return nil, eris.Wrap(err, "pipeline: store metrics")
	}
	if err := p.store.UpdateDocumentResult(ctx, doc, result); err != nil {
		return nil, eris.Wrap(err, "pipeline: store result")
	}
	doc.Status = model.DocumentStatusProcessed

	// Embedding handoff is best-effort and never fails the run.
	if p.cfg.Pipeline.EmbedChunks {
		p.embedChunks(ctx, text, ds)
	}

	log.Info("pipeline: document processed",
		zap.Int("pages", doc.PageCount),
		zap.Int("words", doc.WordCount),
		zap.Bool("ocr", doc.OCRApplied),
		zap.Int("metrics", len(extractedMetrics)),
		zap.Int("tables", len(tableRecords)),
		zap.Int("frameworks", len(detections)),
		zap.String("primary_framework", doc.PrimaryFramework),
		zap.Float64("overall_confidence", scores.Overall),
		zap.Int64("duration_ms", result.DurationMS),
	)
	return result, nil
}

// runWorkbook processes an XLSX input. Each sheet becomes one table record
// and the normalized triples form the result; framework detection, mapping,
// and assessment need running text and do not apply.
func (p *Pipeline) runWorkbook(ctx context.Context, doc *model.Document, path string, log *zap.Logger, started time.Time) (*model.DocumentResult, error) {
	records, err := p.tables.FromXLSX(doc.ID, path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: extract workbook %s", doc.Filename)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("pipeline: no tables extracted from %s", doc.Filename)
	}

	for _, r := range records {
		if r.Page > doc.PageCount {
			doc.PageCount = r.Page
		}
	}
	doc.PrimaryFramework = frameworks.Primary(p.cat, nil)

	scores := confidence.Aggregate(doc.ID, 0, nil, nil)
	result := &model.DocumentResult{
		Tables:      records,
		Confidence:  &scores,
		ProcessedAt: time.Now().UTC(),
		DurationMS:  time.Since(started).Milliseconds(),
	}

	if err := p.store.ReplaceMetrics(ctx, doc.ID, nil); err != nil {
		return nil, eris.Wrap(err, "pipeline: store metrics")
	}
	if err := p.store.UpdateDocumentResult(ctx, doc, result); err != nil {
		return nil, eris.Wrap(err, "pipeline: store result")
	}
	doc.Status = model.DocumentStatusProcessed

	log.Info("pipeline: workbook processed",
		zap.Int("sheets", doc.PageCount),
		zap.Int("tables", len(records)),
		zap.Int64("duration_ms", result.DurationMS),
	)
	return result, nil
}

func (p *Pipeline) assessWithLimit(ctx context.Context, docID, text string, mappings []model.RegulatoryMapping) ([]model.ComplianceAssessment, float64) {
	if p.assessor.Mode() == compliance.ModeAIAssisted {
		if err := p.aiLimiter.Wait(ctx); err != nil {
			zap.L().Warn("pipeline: rate limiter interrupted", zap.Error(err))
		}
	}

	assessCtx := ctx
	if secs := p.cfg.Anthropic.TimeoutSecs; secs > 0 {
		var cancel context.CancelFunc
		assessCtx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}
	return p.assessor.Assess(assessCtx, docID, text, mappings)
}

// embedChunks splits the document, embeds the chunks via Jina, and upserts
// them into the vector index. Embedding calls retry on transient errors
// and flow through a circuit breaker so a dead embeddings API cannot stall
// a whole batch.
func (p *Pipeline) embedChunks(ctx context.Context, text string, ds *model.DocumentStructure) {
	if !p.jina.Available() || !p.index.Available() {
		return
	}

	chunks := p.chunker.Split(text, ds)
	if len(chunks) == 0 {
		return
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embedCtx := ctx
	if secs := p.cfg.Vector.TimeoutSecs; secs > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	embeddings, err := resilience.ExecuteVal(embedCtx, p.embedBreaker, func(ctx context.Context) ([][]float32, error) {
		return resilience.DoVal(ctx, p.retryCfg, func(ctx context.Context) ([][]float32, error) {
			return p.jina.Embed(ctx, texts)
		})
	})
	if err != nil {
		zap.L().Warn("pipeline: embedding handoff skipped",
			zap.String("document_id", ds.DocumentID),
			zap.String("breaker", p.embedBreaker.State().String()),
			zap.Error(err))
		return
	}

	if err := p.index.Upsert(ctx, chunks, embeddings); err != nil {
		zap.L().Warn("pipeline: vector upsert failed",
			zap.String("document_id", ds.DocumentID), zap.Error(err))
	}
}

func filenameOf(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func contentTypeOf(path string) string {
	switch strings.ToLower(extOf(path)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func extOf(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}
