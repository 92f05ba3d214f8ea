// Package productimport reads product catalogue spreadsheets. The first sheet
// holds one product per row: category in column A, product name in column B,
// with a header in row 1.
package productimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"waybilltrack/backend/internal/domain"
)

var ErrNoSheet = errors.New("workbook has no sheets")

// Parse returns the usable rows of the first sheet and the 1-based numbers of
// rows skipped because category or product name was blank.
func Parse(r io.Reader) ([]domain.ProductImportRow, []int, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrNoSheet
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	parsed := make([]domain.ProductImportRow, 0, len(rows))
	skipped := make([]int, 0)
	for i := 1; i < len(rows); i++ {
		rowNumber := i + 1
		category := cell(rows[i], 0)
		productName := cell(rows[i], 1)
		if category == "" || productName == "" {
			skipped = append(skipped, rowNumber)
			continue
		}
		parsed = append(parsed, domain.ProductImportRow{
			Row:         rowNumber,
			Category:    category,
			ProductName: productName,
		})
	}
	return parsed, skipped, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
