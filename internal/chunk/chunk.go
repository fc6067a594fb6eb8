// Package chunk splits structured document text into overlapping chunks
// sized for embedding. Chunks never cross section boundaries so that a
// retrieved chunk carries one coherent topic.
package chunk

import (
	"strings"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
)

const (
	DefaultSize    = 1200
	DefaultOverlap = 150
)

// Chunk is one embeddable slice of a document.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Ordinal    int    `json:"ordinal"`
	Section    string `json:"section"`
	Page       int    `json:"page"`
	Offset     int    `json:"offset"`
	Text       string `json:"text"`
}

// Chunker produces fixed-size overlapping chunks.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Non-positive or inconsistent sizes fall back to
// the defaults.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks the document text section by section. Empty sections yield
// no chunks; a section shorter than the chunk size yields exactly one.
func (c *Chunker) Split(text string, ds *model.DocumentStructure) []Chunk {
	idx := structure.NewIndex(ds.PageOffsets)

	var out []Chunk
	for _, section := range ds.Sections {
		start, end := section.StartOffset, section.EndOffset
		if start < 0 || end > len(text) || start >= end {
			continue
		}
		for _, piece := range c.splitSpan(text, start, end) {
			out = append(out, Chunk{
				DocumentID: ds.DocumentID,
				Ordinal:    len(out),
				Section:    section.Title,
				Page:       idx.PageFor(piece.offset),
				Offset:     piece.offset,
				Text:       piece.text,
			})
		}
	}
	return out
}

type span struct {
	offset int
	text   string
}

// splitSpan walks [start, end) in windows of the chunk size, stepping by
// size minus overlap, and trims surrounding whitespace from each piece.
func (c *Chunker) splitSpan(text string, start, end int) []span {
	var out []span
	step := c.size - c.overlap

	for pos := start; pos < end; pos += step {
		limit := pos + c.size
		if limit > end {
			limit = end
		}
		piece := strings.TrimSpace(text[pos:limit])
		if piece != "" {
			out = append(out, span{offset: pos, text: piece})
		}
		if limit == end {
			break
		}
	}
	return out
}
