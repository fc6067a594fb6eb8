package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/config"
	"github.com/sells-group/esg-intel/internal/extract"
	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/store"
)

// memStore is an in-memory Store recording status transitions per document.
type memStore struct {
	mu          sync.Mutex
	docs        map[string]*model.Document
	results     map[string]*model.DocumentResult
	metrics     map[string][]model.ExtractedMetric
	transitions map[string][]model.DocumentStatus

	failStatusUpdate bool
	failReplace      bool
}

func newMemStore() *memStore {
	return &memStore{
		docs:        make(map[string]*model.Document),
		results:     make(map[string]*model.DocumentResult),
		metrics:     make(map[string][]model.ExtractedMetric),
		transitions: make(map[string][]model.DocumentStatus),
	}
}

func (s *memStore) CreateDocument(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Status = model.DocumentStatusPending
	copied := *doc
	s.docs[doc.ID] = &copied
	s.transitions[doc.ID] = append(s.transitions[doc.ID], model.DocumentStatusPending)
	return nil
}

func (s *memStore) UpdateDocumentStatus(_ context.Context, docID string, status model.DocumentStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatusUpdate && status == model.DocumentStatusProcessing {
		return errors.New("store unavailable")
	}
	doc, ok := s.docs[docID]
	if !ok {
		return errors.New("document not found")
	}
	doc.Status = status
	doc.Error = errMsg
	s.transitions[docID] = append(s.transitions[docID], status)
	return nil
}

func (s *memStore) UpdateDocumentResult(_ context.Context, doc *model.Document, result *model.DocumentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[doc.ID]
	if !ok {
		return errors.New("document not found")
	}
	*stored = *doc
	stored.Status = model.DocumentStatusProcessed
	s.results[doc.ID] = result
	s.transitions[doc.ID] = append(s.transitions[doc.ID], model.DocumentStatusProcessed)
	return nil
}

func (s *memStore) GetDocument(_ context.Context, docID string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, errors.New("document not found")
	}
	copied := *doc
	return &copied, nil
}

func (s *memStore) GetDocumentResult(_ context.Context, docID string) (*model.DocumentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[docID], nil
}

func (s *memStore) ListDocuments(_ context.Context, _ store.DocumentFilter) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Document
	for _, doc := range s.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (s *memStore) ReplaceMetrics(_ context.Context, docID string, metrics []model.ExtractedMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReplace {
		return errors.New("insert failed")
	}
	s.metrics[docID] = metrics
	return nil
}

func (s *memStore) ListMetrics(_ context.Context, docID string) ([]model.ExtractedMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics[docID], nil
}

func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

func (s *memStore) statusHistory(docID string) []model.DocumentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitions[docID]
}

const sampleReport = `Climate Strategy

This report is prepared in accordance with the GRI Standards and with GRI 305.
Scope 1 emissions were 2,400 tCO2e in 2023 and Scope 2 emissions fell as well.
Renewable energy reached 45% of total consumption.

Indicator            Value      Unit
Gross emissions      2,400      tCO2e
Energy consumption   5,200      MWh
`

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{MappingConfidenceThreshold: 0.3},
		Batch:    config.BatchConfig{MaxConcurrentDocuments: 2},
		Chunk:    config.ChunkConfig{Size: 1200, Overlap: 150},
	}
}

func newTestPipeline(t *testing.T, st store.Store) *Pipeline {
	t.Helper()
	p, err := New(testConfig(), st, catalog.MustCompileDefault(),
		extract.New(config.ExtractConfig{}, nil), Options{})
	require.NoError(t, err)
	return p
}

func writeReport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Emissions")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestProcess(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(t, st)
	path := writeReport(t, "report.txt", sampleReport)

	doc, result, err := p.Process(context.Background(), path, false)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.NotNil(t, result)

	assert.Equal(t, "report.txt", doc.Filename)
	assert.Equal(t, "text/plain", doc.ContentType)
	assert.Equal(t, int64(len(sampleReport)), doc.ByteSize)
	assert.Equal(t, model.DocumentStatusProcessed, doc.Status)
	assert.Equal(t, "gri", doc.PrimaryFramework)
	assert.Greater(t, doc.WordCount, 0)

	assert.Equal(t, []model.DocumentStatus{
		model.DocumentStatusPending,
		model.DocumentStatusProcessing,
		model.DocumentStatusProcessed,
	}, st.statusHistory(doc.ID))

	require.NotNil(t, result.Structure)
	assert.NotEmpty(t, result.Structure.Sections)
	assert.NotEmpty(t, result.Metrics)
	assert.NotEmpty(t, result.Detections)
	assert.NotEmpty(t, result.Mappings)
	assert.NotEmpty(t, result.Assessments)
	require.NotNil(t, result.Confidence)
	assert.Greater(t, result.Confidence.Overall, 0.0)
	assert.Greater(t, result.OverallCompliance, 0.0)
	assert.False(t, result.ProcessedAt.IsZero())

	// Tables from the layout block.
	require.NotEmpty(t, result.Tables)
	assert.NotEmpty(t, result.Tables[0].Normalized)

	// Metrics are persisted relationally.
	stored, err := st.ListMetrics(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Metrics, stored)
}

func TestProcess_Workbook(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(t, st)
	path := writeWorkbook(t, [][]string{
		{"Indicator", "Value", "Unit"},
		{"Scope 1 emissions", "2400", "tCO2e"},
		{"Energy consumption", "5200", "MWh"},
	})

	doc, result, err := p.Process(context.Background(), path, false)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "metrics.xlsx", doc.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", doc.ContentType)
	assert.Equal(t, model.DocumentStatusProcessed, doc.Status)
	assert.Equal(t, model.FrameworkUnknown, doc.PrimaryFramework)
	assert.Equal(t, 1, doc.PageCount)
	assert.Greater(t, doc.ByteSize, int64(0))

	assert.Equal(t, []model.DocumentStatus{
		model.DocumentStatusPending,
		model.DocumentStatusProcessing,
		model.DocumentStatusProcessed,
	}, st.statusHistory(doc.ID))

	require.Len(t, result.Tables, 1)
	tr := result.Tables[0]
	assert.Equal(t, []string{"Indicator", "Value", "Unit"}, tr.Headers)
	assert.NotEmpty(t, tr.Normalized)

	// No running text: the text-driven stages do not apply.
	assert.Empty(t, result.Metrics)
	assert.Empty(t, result.Detections)
	assert.Empty(t, result.Mappings)
	require.NotNil(t, result.Confidence)

	stored, err := st.ListMetrics(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestProcess_EmptyWorkbookMarksFailed(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(t, st)
	path := writeWorkbook(t, [][]string{{"Indicator", "Value", "Unit"}})

	doc, result, err := p.Process(context.Background(), path, false)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "no tables extracted")

	got, gerr := st.GetDocument(context.Background(), doc.ID)
	require.NoError(t, gerr)
	assert.Equal(t, model.DocumentStatusFailed, got.Status)
}

func TestProcess_UnsupportedFileMarksFailed(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(t, st)
	path := writeReport(t, "report.docx", "irrelevant")

	doc, result, err := p.Process(context.Background(), path, false)
	require.Error(t, err)
	assert.Nil(t, result)
	require.NotNil(t, doc)

	got, err := st.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusFailed, got.Status)
	assert.Contains(t, got.Error, "unsupported file type")
}

func TestProcess_EmptyFileMarksFailed(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(t, st)
	path := writeReport(t, "empty.txt", "   \n  ")

	_, _, err := p.Process(context.Background(), path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text extracted")
}

func TestProcess_StoreFailurePropagates(t *testing.T) {
	st := newMemStore()
	st.failReplace = true
	p := newTestPipeline(t, st)
	path := writeReport(t, "report.txt", sampleReport)

	doc, _, err := p.Process(context.Background(), path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store metrics")

	got, gerr := st.GetDocument(context.Background(), doc.ID)
	require.NoError(t, gerr)
	assert.Equal(t, model.DocumentStatusFailed, got.Status)
}

func TestProcess_StatusUpdateFailure(t *testing.T) {
	st := newMemStore()
	st.failStatusUpdate = true
	p := newTestPipeline(t, st)
	path := writeReport(t, "report.txt", sampleReport)

	_, _, err := p.Process(context.Background(), path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update status")
}

func TestProcessBatch(t *testing.T) {
	st := newMemStore()
	p := newTestPipeline(t, st)
	good1 := writeReport(t, "one.txt", sampleReport)
	good2 := writeReport(t, "two.txt", sampleReport)
	bad := writeReport(t, "bad.docx", "unsupported")

	summary := p.ProcessBatch(context.Background(), []string{good1, bad, good2}, false)

	require.Len(t, summary.Items, 3)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Failed)

	assert.Equal(t, good1, summary.Items[0].Path)
	assert.Empty(t, summary.Items[0].Err)
	assert.NotNil(t, summary.Items[0].Result)

	assert.NotEmpty(t, summary.Items[1].Err)
	assert.Nil(t, summary.Items[1].Result)
}

func TestNew_NilCatalog(t *testing.T) {
	_, err := New(testConfig(), newMemStore(), nil, extract.New(config.ExtractConfig{}, nil), Options{})
	assert.Error(t, err)
}

func TestFilenameOf(t *testing.T) {
	assert.Equal(t, "report.pdf", filenameOf("/data/in/report.pdf"))
	assert.Equal(t, "report.pdf", filenameOf(`C:\data\report.pdf`))
	assert.Equal(t, "report.pdf", filenameOf("report.pdf"))
}

func TestContentTypeOf(t *testing.T) {
	assert.Equal(t, "application/pdf", contentTypeOf("a.PDF"))
	assert.Equal(t, "text/plain", contentTypeOf("a.txt"))
	assert.Equal(t, "text/markdown", contentTypeOf("a.md"))
	assert.Equal(t, "application/octet-stream", contentTypeOf("a.bin"))
}
