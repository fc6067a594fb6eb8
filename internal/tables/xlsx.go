package tables

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/esg-intel/internal/model"
)

// FromXLSX reads every sheet of an XLSX workbook as one table. The first
// non-empty row of a sheet becomes the header row; sheets map to pages in
// order.
func (e *Extractor) FromXLSX(docID, path string) ([]model.TableRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tables: open xlsx %s", path)
	}

	var records []model.TableRecord
	for sheetIdx, sheet := range f.Sheets {
		tr := sheetToRecord(docID, sheetIdx+1, sheet)
		if tr == nil {
			continue
		}
		e.Normalize(tr)
		records = append(records, *tr)
	}
	return records, nil
}

func sheetToRecord(docID string, page int, sheet *xlsx.Sheet) *model.TableRecord {
	var headers []string
	var rows [][]string

	for _, row := range sheet.Rows {
		cells := rowToStrings(row)
		if isEmptyRow(cells) {
			continue
		}
		if headers == nil {
			headers = cells
			continue
		}
		rows = append(rows, padRow(cells, len(headers)))
	}

	if headers == nil || len(rows) == 0 {
		return nil
	}

	return &model.TableRecord{
		DocumentID: docID,
		Page:       page,
		Headers:    headers,
		Rows:       rows,
	}
}

func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = strings.TrimSpace(cell.Value)
	}
	return out
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// padRow keeps row length consistent with the header length.
func padRow(cells []string, width int) []string {
	if len(cells) >= width {
		return cells[:width]
	}
	padded := make([]string, width)
	copy(padded, cells)
	return padded
}
