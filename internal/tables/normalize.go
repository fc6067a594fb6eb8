package tables

import (
	"strconv"
	"strings"

	"github.com/sells-group/esg-intel/internal/model"
)

// Normalize fills tr.Topic and tr.Normalized from its headers and rows.
// Column resolution: the first metric-like header holds the metric name,
// the first value-like header the value, any unit-like header the unit.
// Without headers, columns 0/1/2 are used positionally. Rows lacking a
// resolvable metric name or a parseable value are dropped silently.
func (e *Extractor) Normalize(tr *model.TableRecord) {
	tr.Topic = e.InferTopic(tr.Headers)

	metricCol, valueCol, unitCol := resolveColumns(tr.Headers)

	var triples []model.TableTriple
	for _, row := range tr.Rows {
		triple, ok := normalizeRow(row, metricCol, valueCol, unitCol)
		if !ok {
			continue
		}
		triples = append(triples, triple)
	}
	tr.Normalized = triples
}

// resolveColumns maps header roles to column indexes, falling back to
// positions 0/1/2 when a role has no matching header.
func resolveColumns(headers []string) (metricCol, valueCol, unitCol int) {
	metricCol, valueCol, unitCol = 0, 1, 2

	foundMetric, foundValue, foundUnit := false, false, false
	for i, h := range headers {
		switch headerRole(h) {
		case "metric":
			if !foundMetric {
				metricCol, foundMetric = i, true
			}
		case "value":
			if !foundValue {
				valueCol, foundValue = i, true
			}
		case "unit":
			if !foundUnit {
				unitCol, foundUnit = i, true
			}
		}
	}
	return metricCol, valueCol, unitCol
}

func normalizeRow(row []string, metricCol, valueCol, unitCol int) (model.TableTriple, bool) {
	metric := cellAt(row, metricCol)
	value := cellAt(row, valueCol)
	if metric == "" || value == "" {
		return model.TableTriple{}, false
	}

	numeric, ok := parseNumeric(value)
	if !ok {
		return model.TableTriple{}, false
	}

	return model.TableTriple{
		Metric:       metric,
		Value:        value,
		Unit:         cellAt(row, unitCol),
		NumericValue: &numeric,
	}, true
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseNumeric extracts a float from a table cell, tolerating thousands
// separators and trailing unit noise ("1,234 tCO2e").
func parseNumeric(cell string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" {
		return 0, false
	}
	// Trim a trailing unit token if present.
	if i := strings.IndexAny(cleaned, " \t"); i > 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.TrimSuffix(cleaned, "%")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
