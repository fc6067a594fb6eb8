package metrics

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
	"github.com/sells-group/esg-intel/pkg/anthropic"
)

const extractSystemPrompt = `You extract sustainability metrics from corporate disclosure text. Return a JSON array and nothing else. Each element:
{"category": "emissions|energy|water|waste|social|governance", "phrase": "<exact phrase from the text>", "context": "<surrounding sentence>"}
Only include metrics with a quantity nearby. Only use phrases that appear verbatim in the text.`

// aiMention is one element of the model's response.
type aiMention struct {
	Category string `json:"category"`
	Phrase   string `json:"phrase"`
	Context  string `json:"context"`
}

// AIExtractor asks the model for metrics the pattern pass missed. It is a
// supplement: its failures never fail a pipeline run, and its output is
// deduplicated against pattern-matched metrics.
type AIExtractor struct {
	client anthropic.Client
	opts   AIOptions
}

// AIOptions tunes the AI-assisted extraction pass.
type AIOptions struct {
	Model        string
	MaxTokens    int64
	ExcerptChars int
}

// NewAIExtractor creates an AIExtractor. Callers should check the client's
// Available probe before wiring the pass in.
func NewAIExtractor(client anthropic.Client, opts AIOptions) *AIExtractor {
	if client == nil {
		client = anthropic.Noop{}
	}
	if opts.ExcerptChars <= 0 {
		opts.ExcerptChars = 12000
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	return &AIExtractor{client: client, opts: opts}
}

// Extract returns supplemental metrics not already covered by existing.
// Any request or parse failure logs a warning and returns nil.
func (e *AIExtractor) Extract(ctx context.Context, docID, text string, idx *structure.Index, existing []model.ExtractedMetric) []model.ExtractedMetric {
	mentions, err := e.askModel(ctx, text)
	if err != nil {
		zap.L().Warn("metrics: AI-assisted extraction skipped", zap.Error(err))
		return nil
	}

	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[dedupKey(m.Category, m.Match)] = true
	}

	var out []model.ExtractedMetric
	for _, am := range mentions {
		cat, ok := parseCategory(am.Category)
		if !ok || am.Phrase == "" {
			continue
		}
		key := dedupKey(cat, am.Phrase)
		if seen[key] {
			continue
		}
		seen[key] = true

		// Anchor the phrase to the document; hallucinated phrases that do
		// not appear verbatim are dropped.
		offset := indexFold(text, am.Phrase)
		if offset < 0 {
			continue
		}

		mention := model.MetricMention{
			Category: cat,
			Match:    am.Phrase,
			Context:  am.Context,
			Offset:   offset,
		}
		if mention.Context == "" {
			mention.Context = structure.ContextWindow(text, offset, offset+len(am.Phrase), 50)
		}

		metric := normalizeMention(docID, mention, idx)
		metric.Provenance = model.ProvenanceAIAssisted
		out = append(out, metric)
	}
	return out
}

func (e *AIExtractor) askModel(ctx context.Context, text string) ([]aiMention, error) {
	excerpt := text
	if len(excerpt) > e.opts.ExcerptChars {
		excerpt = excerpt[:e.opts.ExcerptChars]
	}

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.opts.Model,
		MaxTokens: e.opts.MaxTokens,
		System:    extractSystemPrompt,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: excerpt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "metrics: extraction request")
	}
	resp.Usage.LogCost(resp.Model, "metric-extraction")

	var mentions []aiMention
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &mentions); err != nil {
		return nil, eris.Wrap(err, "metrics: parse extraction response")
	}
	return mentions, nil
}

func parseCategory(s string) (model.MetricCategory, bool) {
	for _, cat := range model.MetricCategories {
		if string(cat) == strings.ToLower(strings.TrimSpace(s)) {
			return cat, true
		}
	}
	return "", false
}

func dedupKey(cat model.MetricCategory, match string) string {
	return string(cat) + "|" + strings.ToLower(match)
}

// indexFold is a case-insensitive strings.Index.
func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
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
