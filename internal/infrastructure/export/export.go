// Package export renders report tables as CSV or XLSX downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"

	"github.com/xuri/excelize/v2"

	"procura/internal/domain/reports"
)

// Formats accepted by report endpoints.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// WriteCSV streams the table as a CSV attachment.
func WriteCSV(w http.ResponseWriter, table reports.Table) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", slug(table.Name)))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(table.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range table.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	return nil
}

// WriteExcel streams the table as an XLSX attachment with a styled
// header row.
func WriteExcel(w http.ResponseWriter, table reports.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheet(table.Name)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range table.Headers {
		cell := fmt.Sprintf("%s1", column(i))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range table.Rows {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", column(colIdx), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range table.Headers {
		col := column(i)
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", slug(table.Name)))

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func column(i int) string {
	name, _ := excelize.ColumnNumberToName(i + 1)
	return name
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// Excel limits sheet names to 31 characters.
func sheet(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
