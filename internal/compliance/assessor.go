// Package compliance turns regulatory mappings and extracted metrics into
// per-framework compliance assessments. Scoring is rule-based with an
// optional AI-refined pass; the AI collaborator is never required and its
// failures always degrade to the rule-based result or a neutral default.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/pkg/anthropic"
)

// Rule-based category scoring: baseline plus bonuses for the category's
// full name and code literals appearing in the text, capped at 100.
const (
	baselineScore  = 50.0
	nameBonus      = 20.0
	codeBonus      = 10.0
	maxScore       = 100.0
	strengthCutoff = 80.0
	gapCutoff      = 60.0
	neutralAIScore = 50.0
)

// Mode selects the assessment strategy for one pipeline invocation. It is
// chosen once at construction so a single run's provenance stays
// consistent.
type Mode string

const (
	ModeRuleBased  Mode = "rule-based"
	ModeAIAssisted Mode = "ai-assisted"
)

// Assessor computes compliance assessments for detected frameworks.
type Assessor struct {
	cat    *catalog.Compiled
	client anthropic.Client
	mode   Mode
	opts   Options
}

// Options tunes the assessor.
type Options struct {
	Model        string
	MaxTokens    int64
	ExcerptChars int
}

// NewAssessor creates an Assessor. The strategy is AI-assisted only when
// the client probe reports it available.
func NewAssessor(cat *catalog.Compiled, client anthropic.Client, opts Options) *Assessor {
	if client == nil {
		client = anthropic.Noop{}
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = 8000
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	mode := ModeRuleBased
	if client.Available() {
		mode = ModeAIAssisted
	}
	return &Assessor{cat: cat, client: client, mode: mode, opts: opts}
}

// Mode returns the strategy selected for this assessor instance.
func (a *Assessor) Mode() Mode { return a.mode }

// Assess produces one assessment per mapped framework plus the overall
// document score (arithmetic mean of per-framework scores). Re-running on
// the same inputs recomputes assessments rather than appending.
func (a *Assessor) Assess(ctx context.Context, docID, text string, mappings []model.RegulatoryMapping) ([]model.ComplianceAssessment, float64) {
	var assessments []model.ComplianceAssessment
	total := 0.0

	for _, mapping := range mappings {
		fw := a.cat.Framework(mapping.Framework)
		if fw == nil {
			continue
		}

		assessment := a.ruleBased(docID, text, fw, mapping)
		if a.mode == ModeAIAssisted {
			a.refine(ctx, text, fw, &assessment)
		}
		assessment.Level = model.BucketLevel(assessment.Score)

		assessments = append(assessments, assessment)
		total += assessment.Score
	}

	if len(assessments) == 0 {
		return nil, 0
	}
	return assessments, total / float64(len(assessments))
}

// ruleBased scores each framework category from literal evidence in the
// text and derives findings, recommendations, and evidence links.
func (a *Assessor) ruleBased(docID, text string, fw *catalog.CompiledFramework, mapping model.RegulatoryMapping) model.ComplianceAssessment {
	assessment := model.ComplianceAssessment{
		DocumentID:     docID,
		Framework:      fw.ID,
		CategoryScores: make(map[string]float64),
		Provenance:     model.ProvenancePattern,
	}

	lower := strings.ToLower(text)
	categories := assessmentCategories(fw)

	total := 0.0
	for _, cat := range categories {
		score := baselineScore
		if cat.name != "" && strings.Contains(lower, strings.ToLower(cat.name)) {
			score += nameBonus
		}
		if cat.code != "" && strings.Contains(lower, strings.ToLower(cat.code)) {
			score += codeBonus
		}
		if score > maxScore {
			score = maxScore
		}
		assessment.CategoryScores[cat.key()] = score
		total += score

		switch {
		case score >= strengthCutoff:
			finding := fmt.Sprintf("Addresses %s", cat.display())
			assessment.Strengths = append(assessment.Strengths, finding)
			if link, ok := evidenceFor(mapping, cat.code, finding); ok {
				assessment.EvidenceLinks = append(assessment.EvidenceLinks, link)
			}
		case score < gapCutoff:
			assessment.Gaps = append(assessment.Gaps, fmt.Sprintf("No evidence of %s disclosure", cat.display()))
			assessment.Recommendations = append(assessment.Recommendations,
				fmt.Sprintf("Add explicit %s disclosure aligned with %s", cat.display(), fw.Name))
		}
	}

	if len(categories) > 0 {
		assessment.Score = total / float64(len(categories))
	}
	return assessment
}

// assessmentCategory is one scoring unit: a disclosure code for frameworks
// with a sub-code schema, or the framework itself for those without.
type assessmentCategory struct {
	code string
	name string
}

func (c assessmentCategory) key() string {
	if c.code != "" {
		return c.code
	}
	return c.name
}

func (c assessmentCategory) display() string {
	if c.name != "" {
		return c.name
	}
	return c.code
}

func assessmentCategories(fw *catalog.CompiledFramework) []assessmentCategory {
	if len(fw.Codes) == 0 {
		return []assessmentCategory{{name: fw.Name}}
	}
	out := make([]assessmentCategory, len(fw.Codes))
	for i, code := range fw.Codes {
		out[i] = assessmentCategory{code: code.Code, name: code.Title}
	}
	return out
}

// evidenceFor links a finding to the first mapping match for its code.
func evidenceFor(mapping model.RegulatoryMapping, code, finding string) (model.EvidenceLink, bool) {
	for _, match := range mapping.Matches {
		if code != "" && match.Code != code {
			continue
		}
		return model.EvidenceLink{
			Finding: finding,
			Page:    match.Page,
			Offset:  match.Offset,
			Context: match.Context,
		}, true
	}
	return model.EvidenceLink{}, false
}

func logRefineFallback(framework string, err error) {
	zap.L().Warn("compliance: AI refinement failed, using neutral default",
		zap.String("framework", framework),
		zap.Error(err),
	)
}
