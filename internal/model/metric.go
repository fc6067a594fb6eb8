package model

// MetricCategory classifies a sustainability metric mention.
type MetricCategory string

const (
	CategoryEmissions  MetricCategory = "emissions"
	CategoryEnergy     MetricCategory = "energy"
	CategoryWater      MetricCategory = "water"
	CategoryWaste      MetricCategory = "waste"
	CategorySocial     MetricCategory = "social"
	CategoryGovernance MetricCategory = "governance"
)

// MetricCategories lists all categories in declaration order.
var MetricCategories = []MetricCategory{
	CategoryEmissions,
	CategoryEnergy,
	CategoryWater,
	CategoryWaste,
	CategorySocial,
	CategoryGovernance,
}

// Provenance tags how a derived entity was produced.
type Provenance string

const (
	ProvenancePattern    Provenance = "pattern"
	ProvenanceAIAssisted Provenance = "ai-assisted"
)

// MetricMention is a raw category-tagged match before normalization.
type MetricMention struct {
	Category MetricCategory `json:"category"`
	Match    string         `json:"match"`
	Context  string         `json:"context"`
	Offset   int            `json:"offset"`
}

// ExtractedMetric is a normalized sustainability metric belonging to one
// document. NormalizedValue is set only when a parseable numeric substring
// exists in the mention context; mentions lacking both value and unit are
// retained with CanNormalize=false and excluded from cross-document
// aggregation.
type ExtractedMetric struct {
	DocumentID      string         `json:"document_id"`
	Category        MetricCategory `json:"category"`
	Match           string         `json:"match"`
	Context         string         `json:"context"`
	RawValue        string         `json:"raw_value,omitempty"`
	RawUnit         string         `json:"raw_unit,omitempty"`
	NormalizedValue *float64       `json:"normalized_value,omitempty"`
	NormalizedUnit  string         `json:"normalized_unit,omitempty"`
	CanNormalize    bool           `json:"can_normalize"`
	Page            int            `json:"page"`
	Offset          int            `json:"offset"`
	Year            int            `json:"year,omitempty"`
	Confidence      float64        `json:"confidence"`
	Provenance      Provenance     `json:"provenance"`
}
