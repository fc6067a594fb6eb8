// Package regmap links detected frameworks to specific disclosure codes
// backed by textual evidence. The resulting matches are the evidence
// substrate the compliance assessor consumes.
package regmap

import (
	"regexp"
	"sort"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
)

// DefaultThreshold is the minimum detection confidence for a framework to
// be mapped. Lower-confidence detections stay unmapped.
const DefaultThreshold = 0.3

// evidenceWindow is the context captured on each side of a code match.
const evidenceWindow = 60

// Mapper maps detected frameworks to disclosure-code evidence.
type Mapper struct {
	cat       *catalog.Compiled
	threshold float64
	keywords  map[string][]*regexp.Regexp
}

// NewMapper creates a Mapper. A non-positive threshold uses
// DefaultThreshold.
func NewMapper(cat *catalog.Compiled, threshold float64) *Mapper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := &Mapper{cat: cat, threshold: threshold, keywords: make(map[string][]*regexp.Regexp)}
	// Frameworks without a sub-code schema fall back to keyword evidence.
	for _, fw := range cat.Frameworks {
		if len(fw.Codes) > 0 {
			continue
		}
		res := make([]*regexp.Regexp, 0, len(fw.Keywords))
		for _, kw := range fw.Keywords {
			res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		m.keywords[fw.ID] = res
	}
	return m
}

// Map produces one RegulatoryMapping per detected framework at or above
// the confidence threshold. Matches are ordered by text position and every
// offset references a byte position within the document text.
func (m *Mapper) Map(docID, text string, detections []model.FrameworkDetection, idx *structure.Index) []model.RegulatoryMapping {
	var out []model.RegulatoryMapping
	if text == "" {
		return out
	}

	for _, det := range detections {
		if det.Confidence < m.threshold {
			continue
		}
		fw := m.cat.Framework(det.Framework)
		if fw == nil {
			continue
		}

		var matches []model.Match
		if len(fw.Codes) > 0 {
			matches = m.matchCodes(text, fw, idx)
		} else {
			matches = m.matchKeywords(text, fw.ID, idx)
		}
		if len(matches) == 0 {
			continue
		}

		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Offset < matches[j].Offset })
		out = append(out, model.RegulatoryMapping{
			DocumentID: docID,
			Framework:  det.Framework,
			Confidence: det.Confidence,
			Matches:    matches,
		})
	}

	return out
}

func (m *Mapper) matchCodes(text string, fw *catalog.CompiledFramework, idx *structure.Index) []model.Match {
	var matches []model.Match
	for _, code := range fw.Codes {
		for _, re := range code.Patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				matches = append(matches, model.Match{
					Code:    code.Code,
					Title:   code.Title,
					Phrase:  text[loc[0]:loc[1]],
					Offset:  loc[0],
					Page:    idx.PageFor(loc[0]),
					Context: structure.ContextWindow(text, loc[0], loc[1], evidenceWindow),
				})
			}
		}
	}
	return matches
}

// matchKeywords records bare keyword matches without a disclosure code for
// frameworks whose sub-code schema is unknown.
func (m *Mapper) matchKeywords(text, frameworkID string, idx *structure.Index) []model.Match {
	var matches []model.Match
	for _, re := range m.keywords[frameworkID] {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			matches = append(matches, model.Match{
				Phrase:  text[loc[0]:loc[1]],
				Offset:  loc[0],
				Page:    idx.PageFor(loc[0]),
				Context: structure.ContextWindow(text, loc[0], loc[1], evidenceWindow),
			})
		}
	}
	return matches
}
