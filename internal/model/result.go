package model

import "time"

// DocumentResult is the full output of one pipeline run over a document.
// It is persisted as a single JSON value; a re-run replaces it.
type DocumentResult struct {
	Structure         *DocumentStructure     `json:"structure,omitempty"`
	Metrics           []ExtractedMetric      `json:"metrics,omitempty"`
	Tables            []TableRecord          `json:"tables,omitempty"`
	Detections        []FrameworkDetection   `json:"detections,omitempty"`
	Mappings          []RegulatoryMapping    `json:"mappings,omitempty"`
	Assessments       []ComplianceAssessment `json:"assessments,omitempty"`
	Confidence        *ConfidenceScores      `json:"confidence,omitempty"`
	OverallCompliance float64                `json:"overall_compliance"`
	ProcessedAt       time.Time              `json:"processed_at"`
	DurationMS        int64                  `json:"duration_ms"`
}
