package model

// ConfidenceScores aggregates extraction-stage confidences for one document.
// Overall is the weighted average of the three components (0.4/0.3/0.3) and
// is recomputed whenever any upstream stage reruns.
type ConfidenceScores struct {
	DocumentID        string                     `json:"document_id"`
	ByCategory        map[MetricCategory]float64 `json:"by_category,omitempty"`
	ByFramework       map[string]float64         `json:"by_framework,omitempty"`
	MetricAverage     float64                    `json:"metric_average"`
	FrameworkAverage  float64                    `json:"framework_average"`
	ExtractionQuality float64                    `json:"extraction_quality"`
	Overall           float64                    `json:"overall"`
}
