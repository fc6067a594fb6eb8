package tables

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/esg-intel/internal/model"
)

func writeWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Data")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "metrics.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestFromXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Metric", "Value", "Unit"},
		{"Scope 1 emissions", "2400", "tCO2e"},
		{"", "", ""},
		{"Water withdrawal", "300", "ML"},
	})

	records, err := testExtractor(t).FromXLSX("doc-1", path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	tr := records[0]
	assert.Equal(t, 1, tr.Page)
	assert.Equal(t, []string{"Metric", "Value", "Unit"}, tr.Headers)
	require.Len(t, tr.Rows, 2)
	require.Len(t, tr.Normalized, 2)
	assert.Equal(t, "Scope 1 emissions", tr.Normalized[0].Metric)
	require.NotNil(t, tr.Normalized[0].NumericValue)
	assert.InDelta(t, 2400, *tr.Normalized[0].NumericValue, 1e-9)
}

func TestFromXLSX_ShortRowsArePadded(t *testing.T) {
	path := writeWorkbook(t, [][]string{
		{"Metric", "Value", "Unit"},
		{"Hazardous waste", "12"},
	})

	records, err := testExtractor(t).FromXLSX("doc-1", path)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.Len(t, records[0].Rows, 1)
	assert.Equal(t, []string{"Hazardous waste", "12", ""}, records[0].Rows[0])
	require.Len(t, records[0].Normalized, 1)
	assert.Empty(t, records[0].Normalized[0].Unit)
}

func TestFromXLSX_HeaderOnlySheetSkipped(t *testing.T) {
	path := writeWorkbook(t, [][]string{{"Metric", "Value", "Unit"}})

	records, err := testExtractor(t).FromXLSX("doc-1", path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFromXLSX_MissingFile(t *testing.T) {
	_, err := testExtractor(t).FromXLSX("doc-1", filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}

func TestInferTopic(t *testing.T) {
	e := testExtractor(t)

	topic := e.InferTopic([]string{"Indicator", "GHG emissions (tCO2e)", "2023"})
	require.NotNil(t, topic)
	assert.Equal(t, model.CategoryEmissions, *topic)

	topic = e.InferTopic([]string{"Energy consumption", "MWh"})
	require.NotNil(t, topic)
	assert.Equal(t, model.CategoryEnergy, *topic)

	assert.Nil(t, e.InferTopic([]string{"Region", "Headcount"}))
	assert.Nil(t, e.InferTopic(nil))
}
