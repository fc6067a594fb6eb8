// Package frameworks scores documents against the fixed catalog of
// sustainability disclosure frameworks by weighted keyword density.
package frameworks

import (
	"regexp"
	"sort"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
)

// Confidence parameters: a single mention starts at the base and each
// further mention adds density weight until the cap.
const (
	baseConfidence = 0.3
	densityWeight  = 0.7
	mentionDivisor = 10.0
)

// Detector detects framework references in document text.
type Detector struct {
	cat      *catalog.Compiled
	keywords map[string][]*regexp.Regexp
}

// NewDetector compiles whole-word matchers for every framework keyword in
// the catalog.
func NewDetector(cat *catalog.Compiled) *Detector {
	d := &Detector{cat: cat, keywords: make(map[string][]*regexp.Regexp)}
	for _, fw := range cat.Frameworks {
		res := make([]*regexp.Regexp, 0, len(fw.Keywords))
		for _, kw := range fw.Keywords {
			res = append(res, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
		}
		d.keywords[fw.ID] = res
	}
	return d
}

// Detect returns one detection per framework with at least one keyword
// mention. Confidence is min(1.0, 0.3 + mentions/10 * 0.7): monotonically
// non-decreasing with mention count and capped at 1.0. Frameworks with
// zero mentions are omitted entirely.
func (d *Detector) Detect(docID, text string) []model.FrameworkDetection {
	var out []model.FrameworkDetection
	if text == "" {
		return out
	}

	for _, fw := range d.cat.Frameworks {
		mentions := 0
		for _, re := range d.keywords[fw.ID] {
			mentions += len(re.FindAllStringIndex(text, -1))
		}
		if mentions == 0 {
			continue
		}
		out = append(out, model.FrameworkDetection{
			DocumentID: docID,
			Framework:  fw.ID,
			Mentions:   mentions,
			Confidence: Confidence(mentions),
		})
	}

	return out
}

// Confidence computes detection confidence from a mention count.
func Confidence(mentions int) float64 {
	if mentions <= 0 {
		return 0
	}
	c := baseConfidence + float64(mentions)/mentionDivisor*densityWeight
	if c > 1.0 {
		c = 1.0
	}
	return c
}

// Primary returns the framework id with the highest confidence, breaking
// ties by catalog declaration order. Returns model.FrameworkUnknown for an
// empty detection set.
func Primary(cat *catalog.Compiled, detections []model.FrameworkDetection) string {
	if len(detections) == 0 {
		return model.FrameworkUnknown
	}

	order := make(map[string]int, len(cat.Frameworks))
	for i, fw := range cat.Frameworks {
		order[fw.ID] = i
	}

	sorted := make([]model.FrameworkDetection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return order[sorted[i].Framework] < order[sorted[j].Framework]
	})

	return sorted[0].Framework
}
