package tables

import (
	"regexp"
	"strings"

	"github.com/sells-group/esg-intel/internal/model"
	"github.com/sells-group/esg-intel/internal/structure"
)

// columnGap splits layout-preserved text lines into cells on runs of two
// or more spaces, the column separator pdftotext -layout produces.
var columnGap = regexp.MustCompile(`\s{2,}`)

// minTableRows is the minimum number of consecutive multi-column lines
// that form a table block.
const minTableRows = 2

// FromText detects tabular blocks in layout-preserved page text: runs of
// consecutive lines that each split into the same two-or-more columns.
// The first row of a block becomes the header row when none of its cells
// parse as numbers.
func (e *Extractor) FromText(docID, text string, idx *structure.Index) []model.TableRecord {
	var records []model.TableRecord
	if text == "" {
		return records
	}

	offset := 0
	for _, pageText := range strings.Split(text, "\f") {
		pageRecords := e.scanPage(docID, pageText, idx.PageFor(offset))
		records = append(records, pageRecords...)
		offset += len(pageText) + 1
	}
	return records
}

func (e *Extractor) scanPage(docID, pageText string, page int) []model.TableRecord {
	var records []model.TableRecord
	var block [][]string

	flush := func() {
		if tr := blockToRecord(docID, page, block); tr != nil {
			e.Normalize(tr)
			records = append(records, *tr)
		}
		block = nil
	}

	for _, line := range strings.Split(pageText, "\n") {
		cells := splitColumns(line)
		if len(cells) >= 2 {
			block = append(block, cells)
			continue
		}
		flush()
	}
	flush()

	return records
}

func splitColumns(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	cells := columnGap.Split(trimmed, -1)
	out := cells[:0]
	for _, c := range cells {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func blockToRecord(docID string, page int, block [][]string) *model.TableRecord {
	if len(block) < minTableRows {
		return nil
	}

	width := len(block[0])
	for _, row := range block[1:] {
		if len(row) != width {
			// Ragged blocks are prose laid out in columns, not tables.
			return nil
		}
	}

	tr := &model.TableRecord{DocumentID: docID, Page: page}
	if isHeaderRow(block[0]) {
		tr.Headers = block[0]
		tr.Rows = block[1:]
	} else {
		tr.Rows = block
	}
	if len(tr.Rows) == 0 {
		return nil
	}
	return tr
}

// isHeaderRow reports whether no cell in the row parses as a number.
func isHeaderRow(row []string) bool {
	for _, cell := range row {
		if _, ok := parseNumeric(cell); ok {
			return false
		}
	}
	return true
}
