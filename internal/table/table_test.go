package table

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{Cells: [][]string{
		{"item", "qty", "price"},
		{"bolts", "12", "3.40"},
		{"nuts", "100", "1.99"},
		{"washers", "50", "0.75"},
		{"screws", "8", "2.10"},
	}}
}

func TestValidate(t *testing.T) {
	require.NoError(t, sampleTable().Validate())

	assert.ErrorIs(t, Table{}.Validate(), ErrEmptyTable)
	assert.ErrorIs(t, Table{Cells: [][]string{{}}}.Validate(), ErrEmptyTable)

	ragged := Table{Cells: [][]string{{"a", "b"}, {"c"}}}
	assert.ErrorIs(t, ragged.Validate(), ErrRaggedTable)
}

func TestDisplayLabelsOneBased(t *testing.T) {
	labels := sampleTable().DisplayLabels()

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, labels.Rows)
	assert.Equal(t, []string{"1", "2", "3"}, labels.Columns)
}

func TestDisplayLabelsIdempotent(t *testing.T) {
	tbl := sampleTable()

	first := tbl.DisplayLabels()
	second := tbl.DisplayLabels()

	assert.Equal(t, first, second)
	// Labeling never touches the cell values.
	assert.Equal(t, sampleTable().Cells, tbl.Cells)
}

func TestCacheRoundTrip(t *testing.T) {
	cached, err := sampleTable().MarshalCache()
	require.NoError(t, err)

	got, err := UnmarshalCache(cached)
	require.NoError(t, err)
	assert.Equal(t, sampleTable().Cells, got.Cells)
}

func TestMarshalCacheCapped(t *testing.T) {
	big := Table{Cells: [][]string{{strings.Repeat("x", MaxCachedChars)}}}

	_, err := big.MarshalCache()
	assert.ErrorIs(t, err, ErrTableTooLarge)
}

func TestUnmarshalCacheRejectsGarbage(t *testing.T) {
	_, err := UnmarshalCache("not json")
	assert.Error(t, err)

	_, err = UnmarshalCache("[]")
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestExportsContainSameCells(t *testing.T) {
	tbl := sampleTable()

	var csvBuf bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&csvBuf))

	csvRows, err := csv.NewReader(bytes.NewReader(csvBuf.Bytes())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, tbl.Cells, csvRows)

	var xlsxBuf bytes.Buffer
	require.NoError(t, tbl.WriteXLSX(&xlsxBuf))

	f, err := excelize.OpenReader(bytes.NewReader(xlsxBuf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	xlsxRows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, tbl.Cells, xlsxRows)
}

func TestCSVHasNoHeaderOrIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleTable().WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "item,qty,price", lines[0])
}
