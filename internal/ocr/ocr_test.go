package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-intel/internal/config"
)

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	return path
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(config.OCRConfig{Provider: ""})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, e)

	e, err = NewEngine(config.OCRConfig{Provider: "none"})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, e)

	e, err = NewEngine(config.OCRConfig{Provider: "tesseract"})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, e)

	e, err = NewEngine(config.OCRConfig{Provider: "mistral", MistralKey: "key"})
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, e)

	_, err = NewEngine(config.OCRConfig{Provider: "mistral"})
	assert.Error(t, err)

	_, err = NewEngine(config.OCRConfig{Provider: "textract"})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	assert.False(t, Noop{}.Available())
	_, err := Noop{}.ExtractText(context.Background(), "any.pdf")
	assert.Error(t, err)
}

func TestTesseract_PathDefaults(t *testing.T) {
	te := NewTesseract("", "")
	assert.Equal(t, "pdftoppm", te.pdftoppmPath)
	assert.Equal(t, "tesseract", te.tesseractPath)
}

func TestTesseract_UnavailableWithMissingBinaries(t *testing.T) {
	te := NewTesseract("definitely-not-a-binary", "also-not-a-binary")
	assert.False(t, te.Available())
}

func TestMistralOCR_Available(t *testing.T) {
	assert.True(t, NewMistralOCR("key", "").Available())
	assert.False(t, NewMistralOCR("", "").Available())
}

func TestMistralOCR_ExtractText(t *testing.T) {
	pdfPath := writeTempPDF(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pixtral-large-latest", req.Model)
		assert.Equal(t, "document_url", req.Document.Type)
		assert.True(t, strings.HasPrefix(req.Document.DocumentURL, "data:application/pdf;base64,"))

		resp := mistralOCRResponse{Pages: []mistralOCRPage{
			{Index: 0, Markdown: "page one"},
			{Index: 1, Markdown: "page two"},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	m := NewMistralOCR("key", "")
	m.endpoint = srv.URL

	text, err := m.ExtractText(context.Background(), pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "page one\fpage two", text)
}

func TestMistralOCR_APIError(t *testing.T) {
	pdfPath := writeTempPDF(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMistralOCR("bad-key", "")
	m.endpoint = srv.URL

	_, err := m.ExtractText(context.Background(), pdfPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestMistralOCR_MissingFile(t *testing.T) {
	m := NewMistralOCR("key", "")
	_, err := m.ExtractText(context.Background(), "does-not-exist.pdf")
	assert.Error(t, err)
}
