package metrics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
)

// Prioritized value patterns. The first matching pattern wins; later
// patterns only run when earlier ones found nothing.
var valuePatterns = []*regexp.Regexp{
	// percentage
	regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d+)?)\s*(?:%|percent)`),
	// mass with CO2 unit, optional magnitude word
	regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(thousand|million|billion)?\s*(?:kt|mt|kg|t|tonnes?)\s?(?:of\s+)?co2(?:[\s-]?e(?:q(?:uivalent)?)?)?`),
	// energy unit, optional magnitude word
	regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(thousand|million|billion)?\s*(?:[kmg]wh|[gtp]j)`),
	// scaled bare number
	regexp.MustCompile(`(?i)([\d,]+(?:\.\d+)?)\s*(thousand|million|billion)`),
	// bare number
	regexp.MustCompile(`([\d,]+(?:\.\d+)?)`),
}

// yearPattern matches reporting years 2000-2029.
var yearPattern = regexp.MustCompile(`\b(20[0-2]\d)\b`)

var magnitudeScale = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
}

// unitRule maps a raw unit token found in context to its canonical unit
// and scale factor. Rules are checked in order; more specific tokens come
// first.
type unitRule struct {
	token     string
	canonical string
	scale     float64
}

var unitRules = []unitRule{
	{"ktco2e", "tCO2e", 1000},
	{"kt co2e", "tCO2e", 1000},
	{"kgco2e", "tCO2e", 0.001},
	{"kg co2e", "tCO2e", 0.001},
	{"kg of co2", "tCO2e", 0.001},
	{"mtco2e", "tCO2e", 1e6},
	{"tco2e", "tCO2e", 1},
	{"t co2e", "tCO2e", 1},
	{"tonnes co2e", "tCO2e", 1},
	{"tonnes of co2", "tCO2e", 1},
	{"tonnes co2", "tCO2e", 1},
	{"gwh", "MWh", 1000},
	{"kwh", "MWh", 0.001},
	{"mwh", "MWh", 1},
	{"tj", "GJ", 1000},
	{"gj", "GJ", 1},
	{"megalitres", "ML", 1},
	{"megaliters", "ML", 1},
	{"cubic metres", "m3", 1},
	{"cubic meters", "m3", 1},
	{"m3", "m3", 1},
	{"tonnes", "t", 1},
	{"percent", "%", 1},
	{"%", "%", 1},
}

// Normalize turns raw mentions into ExtractedMetric records: value and unit
// extraction from the mention context, magnitude and unit-family rescaling,
// year attachment, and the completeness-based confidence score. Duplicate
// mentions (same category, offset, and match text from overlapping
// patterns) collapse to one metric.
func Normalize(docID string, mentions map[model.MetricCategory][]model.MetricMention, idx *structure.Index) []model.ExtractedMetric {
	var out []model.ExtractedMetric

	for _, cat := range model.MetricCategories {
		seen := make(map[string]bool)
		for _, mention := range mentions[cat] {
			key := strconv.Itoa(mention.Offset) + "|" + strings.ToLower(mention.Match)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, normalizeMention(docID, mention, idx))
		}
	}

	return out
}

func normalizeMention(docID string, mention model.MetricMention, idx *structure.Index) model.ExtractedMetric {
	m := model.ExtractedMetric{
		DocumentID: docID,
		Category:   mention.Category,
		Match:      mention.Match,
		Context:    mention.Context,
		Offset:     mention.Offset,
		Page:       idx.PageFor(mention.Offset),
		Provenance: model.ProvenancePattern,
	}

	rawValue, magnitude, isPercent := extractValue(mention.Context)
	m.RawValue = rawValue

	unit, unitScale := extractUnit(mention.Context)
	if isPercent {
		unit, unitScale = "%", 1
	}
	m.RawUnit = unit

	if rawValue != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(rawValue, ",", ""), 64); err == nil {
			scaled := v * magnitude * unitScale
			m.NormalizedValue = &scaled
		}
	}
	if unit != "" {
		m.NormalizedUnit = canonicalUnit(unit)
	}

	if y := yearPattern.FindString(mention.Context); y != "" {
		m.Year, _ = strconv.Atoi(y)
	}

	m.CanNormalize = m.NormalizedValue != nil || m.RawUnit != ""
	m.Confidence = scoreMention(mention.Context, m.NormalizedValue != nil, m.RawUnit != "", m.Year != 0)

	return m
}

// extractValue applies the prioritized value patterns to the context and
// returns the raw numeric substring, the magnitude multiplier from any
// scale word, and whether the value is a percentage.
func extractValue(context string) (raw string, magnitude float64, isPercent bool) {
	magnitude = 1
	for i, re := range valuePatterns {
		for _, sub := range re.FindAllStringSubmatch(context, -1) {
			candidate := sub[1]
			// The bare-number fallback must not capture a reporting year.
			if i == len(valuePatterns)-1 && looksLikeYear(candidate) {
				continue
			}
			raw = candidate
			if len(sub) > 2 {
				if scale, ok := magnitudeScale[strings.ToLower(sub[2])]; ok {
					magnitude = scale
				}
			}
			return raw, magnitude, i == 0
		}
	}
	return "", 1, false
}

func looksLikeYear(s string) bool {
	if len(s) != 4 || strings.ContainsAny(s, ",.") {
		return false
	}
	return yearPattern.MatchString(s)
}

// extractUnit finds the first unit token from the fixed unit table in the
// context and returns it with its canonical-family scale factor.
func extractUnit(context string) (string, float64) {
	lower := strings.ToLower(context)
	for _, rule := range unitRules {
		if strings.Contains(lower, rule.token) {
			return rule.token, rule.scale
		}
	}
	return "", 1
}

func canonicalUnit(token string) string {
	for _, rule := range unitRules {
		if rule.token == token {
			return rule.canonical
		}
	}
	return token
}

// scoreMention computes extraction confidence from tuple completeness:
// 0.5 base, +0.1 full sentence in context, +0.2 value, +0.1 unit,
// +0.1 year, capped at 1.0.
func scoreMention(context string, hasValue, hasUnit, hasYear bool) float64 {
	conf := 0.5
	if strings.Contains(context, ".") && len(strings.Fields(context)) >= 5 {
		conf += 0.1
	}
	if hasValue {
		conf += 0.2
	}
	if hasUnit {
		conf += 0.1
	}
	if hasYear {
		conf += 0.1
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
