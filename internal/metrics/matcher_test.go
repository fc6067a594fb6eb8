package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-intel/internal/catalog"
	"github.com/sells-group/esg-intel/internal/model"
)

func defaultMatcher(t *testing.T) *Matcher {
	t.Helper()
	return NewMatcher(catalog.MustCompileDefault())
}

func TestMatch_CategorizesMentions(t *testing.T) {
	m := defaultMatcher(t)
	text := "Scope 1 emissions were 2,400 tCO2e in 2023 while renewable energy " +
		"reached 45% of total consumption"

	mentions := m.Match(text)

	require.Contains(t, mentions, model.CategoryEmissions)
	require.Contains(t, mentions, model.CategoryEnergy)
	assert.NotContains(t, mentions, model.CategoryWater)

	em := mentions[model.CategoryEmissions]
	require.Len(t, em, 1)
	assert.Equal(t, "Scope 1", em[0].Match)
	assert.Equal(t, 0, em[0].Offset)
	assert.Contains(t, em[0].Context, "2,400 tCO2e")
}

func TestMatch_OrdersByOffsetWithinCategory(t *testing.T) {
	m := defaultMatcher(t)
	// "net zero" is declared after "scope 1" in the pattern list but appears
	// first in the text.
	text := "our net zero commitment covers Scope 2 and Scope 3 emissions"

	em := m.Match(text)[model.CategoryEmissions]
	require.Len(t, em, 3)
	assert.Equal(t, "net zero", em[0].Match)
	assert.Equal(t, "Scope 2", em[1].Match)
	assert.Equal(t, "Scope 3", em[2].Match)
	assert.Less(t, em[0].Offset, em[1].Offset)
	assert.Less(t, em[1].Offset, em[2].Offset)
}

func TestMatch_EmptyText(t *testing.T) {
	assert.Empty(t, defaultMatcher(t).Match(""))
}
