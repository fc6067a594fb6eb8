package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/esg-intel/internal/model"
)

func structureFor(text string, sections ...model.Section) *model.DocumentStructure {
	return &model.DocumentStructure{
		DocumentID:  "doc-1",
		PageOffsets: []int{0},
		Sections:    sections,
	}
}

func TestNew_Fallbacks(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, DefaultSize, c.size)
	assert.Equal(t, 0, c.overlap)

	c = New(100, 100)
	assert.Equal(t, 100, c.size)
	assert.Equal(t, 25, c.overlap)

	c = New(100, -1)
	assert.Equal(t, 100, c.size)
	assert.Equal(t, 25, c.overlap)
}

func TestSplit_ShortSectionYieldsOneChunk(t *testing.T) {
	text := "A short section body."
	ds := structureFor(text, model.Section{Title: "Intro", StartOffset: 0, EndOffset: len(text)})

	chunks := New(100, 20).Split(text, ds)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short section body.", chunks[0].Text)
	assert.Equal(t, "Intro", chunks[0].Section)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, 1, chunks[0].Page)
}

func TestSplit_OverlappingWindows(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	ds := structureFor(text, model.Section{Title: "Body", StartOffset: 0, EndOffset: len(text)})

	chunks := New(40, 10).Split(text, ds)
	require.Len(t, chunks, 3)

	// Step is size minus overlap; the final window is clamped to the
	// section end.
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Equal(t, 30, chunks[1].Offset)
	assert.Equal(t, 60, chunks[2].Offset)

	assert.Len(t, chunks[0].Text, 40)
	assert.Len(t, chunks[2].Text, 40)

	// Consecutive chunks share the overlap region.
	assert.Equal(t, chunks[0].Text[30:], chunks[1].Text[:10])
}

func TestSplit_ChunksNeverCrossSections(t *testing.T) {
	section1 := strings.Repeat("a", 50)
	section2 := strings.Repeat("b", 50)
	text := section1 + section2
	ds := structureFor(text,
		model.Section{Title: "First", StartOffset: 0, EndOffset: 50},
		model.Section{Title: "Second", StartOffset: 50, EndOffset: 100},
	)

	chunks := New(80, 10).Split(text, ds)
	require.Len(t, chunks, 2)
	assert.NotContains(t, chunks[0].Text, "b")
	assert.NotContains(t, chunks[1].Text, "a")
	assert.Equal(t, "First", chunks[0].Section)
	assert.Equal(t, "Second", chunks[1].Section)
	assert.Equal(t, []int{0, 1}, []int{chunks[0].Ordinal, chunks[1].Ordinal})
}

func TestSplit_WhitespaceOnlyPiecesDropped(t *testing.T) {
	text := "content" + strings.Repeat(" ", 60)
	ds := structureFor(text, model.Section{Title: "Pad", StartOffset: 0, EndOffset: len(text)})

	chunks := New(40, 0).Split(text, ds)
	require.Len(t, chunks, 1)
	assert.Equal(t, "content", chunks[0].Text)
}

func TestSplit_InvalidSectionBoundsSkipped(t *testing.T) {
	text := "short"
	ds := structureFor(text,
		model.Section{Title: "Bad", StartOffset: 10, EndOffset: 5},
		model.Section{Title: "Beyond", StartOffset: 0, EndOffset: 100},
	)

	assert.Empty(t, New(40, 0).Split(text, ds))
}

func TestSplit_PageAttribution(t *testing.T) {
	text := strings.Repeat("x", 60)
	ds := &model.DocumentStructure{
		DocumentID:  "doc-1",
		PageOffsets: []int{0, 30},
		Sections:    []model.Section{{Title: "Body", StartOffset: 0, EndOffset: 60}},
	}

	chunks := New(30, 0).Split(text, ds)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[1].Page)
}
