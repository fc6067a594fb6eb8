// Package extract converts source documents into plain text with page
// boundaries. Native extraction is attempted first; a words-per-page
// heuristic triggers a single OCR retry through the OCR engine collaborator.
package extract

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"

	"github.com/sells-group/esg-intel/internal/config"
	"github.com/sells-group/esg-intel/internal/ocr"
)

// PageBreak separates pages in extracted text. pdftotext emits form feeds
// natively; the OCR engines join pages the same way so downstream page
// recovery is uniform.
const PageBreak = "\f"

// Result is the outcome of text extraction. Extraction never fails loudly:
// when no extraction path is available, Text is empty, PageCount is 0, and
// Err carries the captured failure. Callers must check for empty text.
type Result struct {
	Text       string
	PageCount  int
	WordCount  int
	OCRApplied bool
	Err        string
}

// Extractor extracts text from document files.
type Extractor struct {
	cfg    config.ExtractConfig
	engine ocr.Engine
}

// New creates an Extractor. A nil engine disables the OCR fallback.
func New(cfg config.ExtractConfig, engine ocr.Engine) *Extractor {
	if cfg.PdfToTextPath == "" {
		cfg.PdfToTextPath = "pdftotext"
	}
	if cfg.MinWordsPerPage == 0 {
		cfg.MinWordsPerPage = 50
	}
	if cfg.MinPagesForOCR == 0 {
		cfg.MinPagesForOCR = 3
	}
	if engine == nil {
		engine = ocr.Noop{}
	}
	return &Extractor{cfg: cfg, engine: engine}
}

// Extract converts the file at path into plain text plus page boundaries.
// If forceOCR is false, native extraction runs first and OCR is applied
// only when the needs-OCR heuristic fires. The OCR retry is bounded to one
// pass.
func (e *Extractor) Extract(ctx context.Context, path string, forceOCR bool) Result {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(ctx, path, forceOCR)
	case ".txt", ".md":
		return e.extractPlain(path)
	default:
		return Result{Err: "extract: unsupported file type " + filepath.Ext(path)}
	}
}

// ExtractBytes writes data to a temporary working file, extracts it, and
// removes the file before returning.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, ext string, forceOCR bool) Result {
	tmp, err := os.CreateTemp("", "esgintel-*"+ext)
	if err != nil {
		return Result{Err: "extract: create temp file: " + err.Error()}
	}
	path := tmp.Name()
	defer os.Remove(path)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return Result{Err: "extract: write temp file: " + err.Error()}
	}
	if err := tmp.Close(); err != nil {
		return Result{Err: "extract: close temp file: " + err.Error()}
	}

	return e.Extract(ctx, path, forceOCR)
}

func (e *Extractor) extractPDF(ctx context.Context, path string, forceOCR bool) Result {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		zap.L().Warn("extract: page count failed, falling back to form feeds",
			zap.String("path", path),
			zap.Error(err),
		)
		pageCount = 0
	}

	var res Result
	if !forceOCR {
		res = e.native(ctx, path, pageCount)
		if !e.needsOCR(res.Text, res.PageCount) {
			return res
		}
	}

	if !e.engine.Available() {
		if forceOCR {
			return Result{PageCount: pageCount, Err: "extract: OCR requested but no engine configured"}
		}
		zap.L().Debug("extract: OCR needed but no engine available, proceeding with native text",
			zap.String("path", path),
			zap.Int("pages", res.PageCount),
			zap.Int("words", res.WordCount),
		)
		return res
	}

	ocrText, err := e.engine.ExtractText(ctx, path)
	if err != nil {
		zap.L().Warn("extract: OCR pass failed", zap.String("path", path), zap.Error(err))
		if res.Text != "" {
			return res
		}
		return Result{PageCount: pageCount, Err: "extract: " + err.Error()}
	}

	text := CleanText(ocrText)
	return Result{
		Text:       text,
		PageCount:  pageCountOf(text, pageCount),
		WordCount:  len(strings.Fields(text)),
		OCRApplied: true,
	}
}

func (e *Extractor) native(ctx context.Context, path string, pageCount int) Result {
	cmd := exec.CommandContext(ctx, e.cfg.PdfToTextPath, "-layout", path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		zap.L().Warn("extract: pdftotext failed",
			zap.String("path", path),
			zap.String("stderr", stderr.String()),
			zap.Error(err),
		)
		return Result{PageCount: pageCount, Err: "extract: pdftotext: " + err.Error()}
	}

	text := CleanText(stdout.String())
	return Result{
		Text:      text,
		PageCount: pageCountOf(text, pageCount),
		WordCount: len(strings.Fields(text)),
	}
}

func (e *Extractor) extractPlain(path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Err: "extract: read file: " + err.Error()}
	}
	text := CleanText(string(data))
	pages := strings.Count(text, PageBreak) + 1
	return Result{
		Text:      text,
		PageCount: pages,
		WordCount: len(strings.Fields(text)),
	}
}

// needsOCR implements the fallback policy: OCR is needed when extracted
// words-per-page is below the configured minimum AND the document has more
// than MinPagesForOCR pages, or when no text was extracted at all.
func (e *Extractor) needsOCR(text string, pageCount int) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	if pageCount <= e.cfg.MinPagesForOCR {
		return false
	}
	wordsPerPage := len(strings.Fields(text)) / pageCount
	return wordsPerPage < e.cfg.MinWordsPerPage
}

// pageCountOf prefers the authoritative PDF page count and falls back to
// counting form feed markers in the extracted text.
func pageCountOf(text string, pdfPages int) int {
	if pdfPages > 0 {
		return pdfPages
	}
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return strings.Count(text, PageBreak) + 1
}
