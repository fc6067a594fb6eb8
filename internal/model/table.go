package model

// TableTriple is one metric/value/unit triple normalized from a table row.
type TableTriple struct {
	Metric       string   `json:"metric"`
	Value        string   `json:"value"`
	Unit         string   `json:"unit,omitempty"`
	NumericValue *float64 `json:"numeric_value,omitempty"`
}

// TableRecord is a tabular structure extracted from one page of a document.
// When Headers is non-empty every row has the same cell count as Headers.
type TableRecord struct {
	DocumentID string          `json:"document_id"`
	Page       int             `json:"page"`
	Headers    []string        `json:"headers,omitempty"`
	Rows       [][]string      `json:"rows"`
	Topic      *MetricCategory `json:"topic,omitempty"`
	Normalized []TableTriple   `json:"normalized,omitempty"`
}
