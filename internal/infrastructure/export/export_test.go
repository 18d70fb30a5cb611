package export

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"procura/internal/domain/reports"
)

func sampleTable() reports.Table {
	return reports.Table{
		Name:    "Supplier Performance",
		Headers: []string{"Code", "Name", "Confirmation Rate"},
		Rows: [][]string{
			{"SUP-001", "Acme Metals", "92.0%"},
			{"SUP-002", "Borealis Plastics", "75.0%"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	rec := httptest.NewRecorder()

	if err := WriteCSV(rec, sampleTable()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "supplier_performance.csv") {
		t.Errorf("Content-Disposition = %q, want filename supplier_performance.csv", disposition)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 csv lines, got %d", len(lines))
	}
	if lines[0] != "Code,Name,Confirmation Rate" {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[2], "Borealis Plastics") {
		t.Errorf("row line = %q, want supplier name", lines[2])
	}
}

func TestWriteExcel(t *testing.T) {
	rec := httptest.NewRecorder()

	if err := WriteExcel(rec, sampleTable()); err != nil {
		t.Fatalf("WriteExcel() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q, want spreadsheetml", ct)
	}
	if disposition := rec.Header().Get("Content-Disposition"); !strings.Contains(disposition, "supplier_performance.xlsx") {
		t.Errorf("Content-Disposition = %q, want filename supplier_performance.xlsx", disposition)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open generated workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Supplier Performance" {
		t.Fatalf("sheets = %v, want single Supplier Performance sheet", sheets)
	}

	header, err := f.GetCellValue("Supplier Performance", "C1")
	if err != nil {
		t.Fatalf("read header cell: %v", err)
	}
	if header != "Confirmation Rate" {
		t.Errorf("C1 = %q, want Confirmation Rate", header)
	}

	value, err := f.GetCellValue("Supplier Performance", "B3")
	if err != nil {
		t.Fatalf("read data cell: %v", err)
	}
	if value != "Borealis Plastics" {
		t.Errorf("B3 = %q, want Borealis Plastics", value)
	}
}

func TestSheetNameTruncated(t *testing.T) {
	long := strings.Repeat("x", 40)
	if got := sheet(long); len(got) != 31 {
		t.Errorf("sheet() length = %d, want 31", len(got))
	}
}
