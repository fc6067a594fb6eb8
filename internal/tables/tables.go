// Package tables extracts tabular structures from source documents and
// normalizes rows into metric/value/unit triples.
package tables

import (
	"strings"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
)

// Extractor pulls tables from native document formats and from the layout
// text of PDFs.
type Extractor struct {
	cat *catalog.Compiled
}

// NewExtractor creates a table Extractor over the compiled catalog; the
// catalog's category keyword families drive topic inference.
func NewExtractor(cat *catalog.Compiled) *Extractor {
	return &Extractor{cat: cat}
}

// InferTopic matches header text against the category keyword families and
// returns the first category whose keywords appear, or nil.
func (e *Extractor) InferTopic(headers []string) *model.MetricCategory {
	joined := strings.ToLower(strings.Join(headers, " "))
	if joined == "" {
		return nil
	}
	for _, cc := range e.cat.Categories {
		for _, kw := range cc.Keywords {
			if strings.Contains(joined, kw) {
				cat := cc.Category
				return &cat
			}
		}
	}
	return nil
}

// headerRole classifies a header cell for column resolution.
func headerRole(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	switch {
	case containsAny(h, "metric", "indicator", "kpi", "measure", "description", "category", "item"):
		return "metric"
	case containsAny(h, "unit", "uom"):
		return "unit"
	case containsAny(h, "value", "amount", "total", "quantity") || yearHeader(h):
		return "value"
	default:
		return ""
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func yearHeader(h string) bool {
	h = strings.TrimSpace(h)
	if len(h) != 4 || !strings.HasPrefix(h, "20") {
		return false
	}
	for _, r := range h {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
