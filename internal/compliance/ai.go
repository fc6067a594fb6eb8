package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/pkg/anthropic"
)

const assessSystemPrompt = `You are an analyst reviewing a sustainability disclosure document against a reporting framework. Respond with a single JSON object and nothing else:
{"compliance_score": <float 0.0-1.0>, "key_findings": ["..."], "gaps": ["..."], "recommendations": ["..."]}`

// aiAssessment is the shape the model is asked to return.
type aiAssessment struct {
	ComplianceScore float64  `json:"compliance_score"`
	KeyFindings     []string `json:"key_findings"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

// refine overlays an AI judgment on a rule-based assessment. Any failure,
// including a malformed response, replaces the score with the neutral
// default rather than surfacing an error. Category scores stay rule-based.
func (a *Assessor) refine(ctx context.Context, text string, fw *catalog.CompiledFramework, assessment *model.ComplianceAssessment) {
	parsed, err := a.askModel(ctx, text, fw)
	if err != nil {
		logRefineFallback(fw.ID, err)
		assessment.Score = neutralAIScore
		assessment.Provenance = model.ProvenanceAIAssisted
		return
	}

	score := parsed.ComplianceScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	assessment.Score = score * maxScore
	assessment.Provenance = model.ProvenanceAIAssisted

	if len(parsed.KeyFindings) > 0 {
		assessment.Strengths = parsed.KeyFindings
	}
	if len(parsed.Gaps) > 0 {
		assessment.Gaps = parsed.Gaps
	}
	if len(parsed.Recommendations) > 0 {
		assessment.Recommendations = parsed.Recommendations
	}
}

func (a *Assessor) askModel(ctx context.Context, text string, fw *catalog.CompiledFramework) (*aiAssessment, error) {
	excerpt := text
	if len(excerpt) > a.opts.ExcerptChars {
		excerpt = excerpt[:a.opts.ExcerptChars]
	}

	prompt := fmt.Sprintf("Framework: %s (%s)\n\nDocument excerpt:\n%s", fw.Name, strings.ToUpper(fw.ID), excerpt)

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.opts.Model,
		MaxTokens: a.opts.MaxTokens,
		System:    assessSystemPrompt,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "compliance: assessment request")
	}
	resp.Usage.LogCost(resp.Model, "compliance-assessment")

	var parsed aiAssessment
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		return nil, eris.Wrap(err, "compliance: parse assessment response")
	}
	return &parsed, nil
}

// cleanJSON strips markdown code fences models sometimes wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
