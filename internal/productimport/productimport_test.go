package productimport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"waybilltrack/backend/internal/domain"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseSkipsHeaderAndIncompleteRows(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Category", "Product Name"},
		{"Beverage", "Teh Botol 350ml"},
		{"", "Orphan Product"},
		{" Grocery ", " Beras 5kg "},
		{"Snack"},
	})

	rows, skipped, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, []domain.ProductImportRow{
		{Row: 2, Category: "Beverage", ProductName: "Teh Botol 350ml"},
		{Row: 4, Category: "Grocery", ProductName: "Beras 5kg"},
	}, rows)
	assert.Equal(t, []int{3, 5}, skipped)
}

func TestParseRejectsNonWorkbook(t *testing.T) {
	_, _, err := Parse(bytes.NewBufferString("category,product\nA,B\n"))
	require.Error(t, err)
}
