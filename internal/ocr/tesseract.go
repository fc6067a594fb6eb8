package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Tesseract runs local OCR by rasterizing PDF pages with pdftoppm and
// recognizing each page image with the tesseract CLI. Page images live in
// a temporary directory that is always removed before returning.
type Tesseract struct {
	pdftoppmPath  string
	tesseractPath string
}

// NewTesseract creates a Tesseract engine. Empty paths default to the
// binaries on PATH.
func NewTesseract(pdftoppmPath, tesseractPath string) *Tesseract {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	return &Tesseract{pdftoppmPath: pdftoppmPath, tesseractPath: tesseractPath}
}

// Available reports whether both CLI tools resolve on PATH.
func (t *Tesseract) Available() bool {
	if _, err := exec.LookPath(t.pdftoppmPath); err != nil {
		return false
	}
	_, err := exec.LookPath(t.tesseractPath)
	return err == nil
}

// ExtractText rasterizes the PDF and OCRs every page, joining pages with
// form feeds so page boundaries survive into downstream structuring.
func (t *Tesseract) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	workDir, err := os.MkdirTemp("", "esgintel-ocr-*")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create temp dir")
	}
	defer os.RemoveAll(workDir)

	prefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, t.pdftoppmPath, "-png", "-r", "300", pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftoppm failed for %s: %s", pdfPath, stderr.String())
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", eris.Wrap(err, "ocr: glob page images")
	}
	if len(images) == 0 {
		return "", eris.Errorf("ocr: pdftoppm produced no pages for %s", pdfPath)
	}
	sort.Strings(images)

	var pages []string
	for _, img := range images {
		text, err := t.recognize(ctx, img)
		if err != nil {
			return "", err
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\f"), nil
}

func (t *Tesseract) recognize(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, t.tesseractPath, imagePath, "stdout")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed for %s: %s", imagePath, stderr.String())
	}
	return stdout.String(), nil
}
