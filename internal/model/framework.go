package model

// FrameworkUnknown is the primary framework for documents with no detections.
const FrameworkUnknown = "unknown"

// FrameworkDetection scores a document against one regulatory framework.
// Confidence is derived from mention density and is monotonically
// non-decreasing with mention count, capped at 1.0. Frameworks with zero
// mentions are never recorded.
type FrameworkDetection struct {
	DocumentID string  `json:"document_id"`
	Framework  string  `json:"framework"`
	Mentions   int     `json:"mentions"`
	Confidence float64 `json:"confidence"`
}

// Match anchors a disclosure-code detection to its source location.
// Offset always references a byte position within the document's text.
type Match struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Phrase  string `json:"phrase"`
	Page    int    `json:"page"`
	Offset  int    `json:"offset"`
	Context string `json:"context"`
}

// RegulatoryMapping links a detected framework's disclosure codes to
// textual evidence in the document.
type RegulatoryMapping struct {
	DocumentID string  `json:"document_id"`
	Framework  string  `json:"framework"`
	Confidence float64 `json:"confidence"`
	Matches    []Match `json:"matches"`
}
