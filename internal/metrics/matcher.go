// Package metrics scans document text for sustainability metric mentions
// and normalizes them into canonical units.
package metrics

import (
	"sort"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
)

// contextWindow is the number of characters captured on each side of a
// match for value, unit, and year resolution.
const contextWindow = 50

// Matcher finds category-tagged metric mentions using the catalog's
// per-category patterns.
type Matcher struct {
	cat *catalog.Compiled
}

// NewMatcher creates a Matcher over the given compiled catalog.
func NewMatcher(cat *catalog.Compiled) *Matcher {
	return &Matcher{cat: cat}
}

// Match scans text and returns mentions grouped by category. Matching is
// case-insensitive; mentions within a category are ordered by position in
// the text, not by pattern declaration order. No cross-category
// deduplication happens here; duplicates collapse during normalization.
func (m *Matcher) Match(text string) map[model.MetricCategory][]model.MetricMention {
	out := make(map[model.MetricCategory][]model.MetricMention)
	if text == "" {
		return out
	}

	for _, cc := range m.cat.Categories {
		var mentions []model.MetricMention
		for _, re := range cc.Patterns {
			for _, loc := range re.FindAllStringIndex(text, -1) {
				mentions = append(mentions, model.MetricMention{
					Category: cc.Category,
					Match:    text[loc[0]:loc[1]],
					Context:  structure.ContextWindow(text, loc[0], loc[1], contextWindow),
					Offset:   loc[0],
				})
			}
		}
		if len(mentions) == 0 {
			continue
		}
		sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].Offset < mentions[j].Offset })
		out[cc.Category] = mentions
	}

	return out
}
