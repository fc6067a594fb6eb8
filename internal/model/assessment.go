package model

// ComplianceLevel buckets an overall compliance score.
type ComplianceLevel string

const (
	LevelNonCompliant    ComplianceLevel = "Non-compliant"
	LevelPartial         ComplianceLevel = "Partially compliant"
	LevelMostlyCompliant ComplianceLevel = "Mostly compliant"
	LevelFullyCompliant  ComplianceLevel = "Fully compliant"
)

// BucketLevel maps a 0-100 score to its compliance level. Bucket edges are
// fixed at 40/60/80 and apply uniformly within one assessment run.
func BucketLevel(score float64) ComplianceLevel {
	switch {
	case score < 40:
		return LevelNonCompliant
	case score < 60:
		return LevelPartial
	case score < 80:
		return LevelMostlyCompliant
	default:
		return LevelFullyCompliant
	}
}

// EvidenceLink anchors a finding to its source location in the document.
type EvidenceLink struct {
	Finding string `json:"finding"`
	Page    int    `json:"page"`
	Offset  int    `json:"offset"`
	Context string `json:"context,omitempty"`
}

// ComplianceAssessment holds the per-framework compliance result for one
// document. Recomputed, not appended, when the pipeline re-runs.
type ComplianceAssessment struct {
	DocumentID      string             `json:"document_id"`
	Framework       string             `json:"framework"`
	Score           float64            `json:"score"`
	Level           ComplianceLevel    `json:"level"`
	CategoryScores  map[string]float64 `json:"category_scores"`
	Strengths       []string           `json:"strengths,omitempty"`
	Gaps            []string           `json:"gaps,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	EvidenceLinks   []EvidenceLink     `json:"evidence_links,omitempty"`
	Provenance      Provenance         `json:"provenance"`
}
