// Package ocr provides the OCR engine collaborator used when native PDF
// text extraction yields too little text. Engines are idempotent and
// side-effect-free on the source document.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-intel/internal/config"
)

// Engine extracts text from a scanned PDF.
type Engine interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
	// Available reports whether this engine can actually perform OCR.
	// The pipeline skips the OCR retry when it returns false.
	Available() bool
}

// NewEngine creates an Engine based on config. The "none" provider returns
// a no-op engine so callers never need nil checks.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	switch cfg.Provider {
	case "none", "":
		return Noop{}, nil
	case "tesseract":
		return NewTesseract(cfg.PdfToPpmPath, cfg.TesseractPath), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_api_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// Noop is the null OCR engine substituted when no provider is configured.
type Noop struct{}

func (Noop) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	return "", eris.New("ocr: no engine configured")
}

func (Noop) Available() bool { return false }
