// Package structure segments extracted text into pages, headings, and
// sections, and supplies the offset-to-page lookup used by every
// downstream stage.
package structure

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sells-group/esg-intel/internal/extract"
	"github.com/sells-group/esg-intel/internal/model"
)

// maxHeadingLen bounds heading candidates; disclosure report headings are
// short lines, anything longer is body text.
const maxHeadingLen = 80

// Build segments text into the document structure. Page boundaries are
// recovered from the page break markers the extractor inserted.
func Build(docID, text string, pageCount int) *model.DocumentStructure {
	ds := &model.DocumentStructure{
		DocumentID:  docID,
		PageCount:   pageCount,
		PageOffsets: pageOffsets(text),
	}
	if text == "" {
		return ds
	}

	idx := NewIndex(ds.PageOffsets)
	ds.Headings = detectHeadings(text, idx)
	ds.Sections = buildSections(text, ds.Headings, idx)
	return ds
}

// pageOffsets returns the start offset of each page. Offset 0 always opens
// page one.
func pageOffsets(text string) []int {
	offsets := []int{0}
	for i, r := range text {
		if r == '\f' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// Index maps character offsets to 1-based page numbers via binary search
// over page start offsets.
type Index struct {
	offsets []int
}

// NewIndex creates an Index from monotonically increasing page start
// offsets. An empty slice yields an index that maps everything to page 1.
func NewIndex(offsets []int) *Index {
	if len(offsets) == 0 {
		offsets = []int{0}
	}
	return &Index{offsets: offsets}
}

// PageFor returns the 1-based page containing the given offset.
func (ix *Index) PageFor(offset int) int {
	// First offset strictly greater than the target; its predecessor's
	// page contains the offset.
	n := sort.Search(len(ix.offsets), func(i int) bool { return ix.offsets[i] > offset })
	if n == 0 {
		return 1
	}
	return n
}

func detectHeadings(text string, idx *Index) []model.Heading {
	var headings []model.Heading
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.Trim(line, " \t\n\f\r")
		if isHeading(trimmed) {
			lineStart := offset + strings.Index(line, trimmed)
			headings = append(headings, model.Heading{
				Title:  trimmed,
				Offset: lineStart,
				Page:   idx.PageFor(lineStart),
			})
		}
		offset += len(line)
	}
	return headings
}

// isHeading applies the heading heuristic: a short, capitalized line with
// no sentence punctuation.
func isHeading(line string) bool {
	if len(line) < 3 || len(line) > maxHeadingLen {
		return false
	}
	if strings.ContainsAny(line, ".;!?") {
		return false
	}

	first := []rune(line)[0]
	if !unicode.IsUpper(first) && !unicode.IsDigit(first) {
		return false
	}

	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 10 {
		return false
	}

	capitalized := 0
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			capitalized++
		}
	}
	// Title-case lines keep small connectives lowercase; require a clear
	// majority of capitalized words.
	return capitalized*3 >= len(words)*2
}

func buildSections(text string, headings []model.Heading, idx *Index) []model.Section {
	if len(headings) == 0 {
		return []model.Section{{
			Title:       "Document",
			StartOffset: 0,
			EndOffset:   len(text),
			StartPage:   1,
			EndPage:     idx.PageFor(len(text) - 1),
		}}
	}

	sections := make([]model.Section, 0, len(headings))
	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].Offset
		}
		sections = append(sections, model.Section{
			Title:       h.Title,
			StartOffset: h.Offset,
			EndOffset:   end,
			StartPage:   h.Page,
			EndPage:     idx.PageFor(max(h.Offset, end-1)),
		})
	}
	return sections
}

// ContextWindow returns up to window characters of text on each side of
// [start,end), clamped to text bounds. Shared by the matching stages for
// evidence context.
func ContextWindow(text string, start, end, window int) string {
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(text) {
		hi = len(text)
	}
	return strings.Trim(text[lo:hi], extract.PageBreak)
}
