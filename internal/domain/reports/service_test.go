package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"procura/internal/core/id"
	"procura/internal/core/types"
)

type fakeRepo struct {
	perfFilter    SupplierPerformanceFilter
	volumeFilter  OrderVolumeFilter
	capFilter     CapacityUtilizationFilter
	journalFilter OrderJournalFilter

	perfRows    []SupplierPerformanceRow
	volumeRows  []OrderVolumeRow
	counts      []StatusCount
	capRows     []CapacityUtilizationRow
	journalRows []OrderJournalRow
	summary     JournalSummary
	total       int64
}

func (f *fakeRepo) GetSupplierPerformance(_ context.Context, filter SupplierPerformanceFilter) ([]SupplierPerformanceRow, error) {
	f.perfFilter = filter
	return f.perfRows, nil
}

func (f *fakeRepo) GetOrderVolume(_ context.Context, filter OrderVolumeFilter) ([]OrderVolumeRow, error) {
	f.volumeFilter = filter
	return f.volumeRows, nil
}

func (f *fakeRepo) GetOrderStatusCounts(_ context.Context, filter OrderVolumeFilter) ([]StatusCount, error) {
	return f.counts, nil
}

func (f *fakeRepo) GetCapacityUtilization(_ context.Context, filter CapacityUtilizationFilter) ([]CapacityUtilizationRow, int64, error) {
	f.capFilter = filter
	return f.capRows, f.total, nil
}

func (f *fakeRepo) GetOrderJournal(_ context.Context, filter OrderJournalFilter) ([]OrderJournalRow, int64, error) {
	f.journalFilter = filter
	return f.journalRows, f.total, nil
}

func (f *fakeRepo) GetOrderJournalSummary(_ context.Context, filter OrderJournalFilter) (JournalSummary, error) {
	return f.summary, nil
}

func TestSupplierPerformanceDefaultsPeriod(t *testing.T) {
	repo := &fakeRepo{perfRows: []SupplierPerformanceRow{{SupplierName: "Acme"}}}
	svc := NewService(repo)

	report, err := svc.SupplierPerformance(context.Background(), SupplierPerformanceFilter{})
	if err != nil {
		t.Fatalf("SupplierPerformance() error = %v", err)
	}
	if repo.perfFilter.DateFrom == nil || repo.perfFilter.DateTo == nil {
		t.Fatal("expected a default period")
	}
	if !repo.perfFilter.DateFrom.Before(*repo.perfFilter.DateTo) {
		t.Errorf("default period inverted: %v .. %v", repo.perfFilter.DateFrom, repo.perfFilter.DateTo)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
	if len(report.Rows) != 1 || report.Rows[0].SupplierName != "Acme" {
		t.Errorf("unexpected rows: %+v", report.Rows)
	}
}

func TestSupplierPerformanceRejectsInvertedPeriod(t *testing.T) {
	svc := NewService(&fakeRepo{})
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.SupplierPerformance(context.Background(), SupplierPerformanceFilter{
		Period: Period{DateFrom: &from, DateTo: &to},
	})
	if err == nil {
		t.Fatal("expected error for inverted period")
	}
}

func TestOrderVolumeIncludesStatusCounts(t *testing.T) {
	repo := &fakeRepo{
		volumeRows: []OrderVolumeRow{{ProductSKU: "SKU-1"}},
		counts:     []StatusCount{{Status: "created", Count: 3}},
	}
	svc := NewService(repo)

	report, err := svc.OrderVolume(context.Background(), OrderVolumeFilter{})
	if err != nil {
		t.Fatalf("OrderVolume() error = %v", err)
	}
	if repo.volumeFilter.DateFrom == nil {
		t.Error("expected a default period")
	}
	if len(report.StatusCounts) != 1 || report.StatusCounts[0].Count != 3 {
		t.Errorf("unexpected status counts: %+v", report.StatusCounts)
	}
}

func TestCapacityUtilizationBucketsMonth(t *testing.T) {
	repo := &fakeRepo{total: 7}
	svc := NewService(repo)

	report, err := svc.CapacityUtilization(context.Background(), CapacityUtilizationFilter{
		Month: time.Date(2026, 9, 17, 13, 45, 0, 0, time.UTC),
		Limit: 5000,
	})
	if err != nil {
		t.Fatalf("CapacityUtilization() error = %v", err)
	}
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !repo.capFilter.Month.Equal(want) {
		t.Errorf("month = %v, want %v", repo.capFilter.Month, want)
	}
	if repo.capFilter.Limit != 1000 {
		t.Errorf("limit = %d, want capped at 1000", repo.capFilter.Limit)
	}
	if report.TotalCount != 7 {
		t.Errorf("total = %d, want 7", report.TotalCount)
	}
}

func TestOrderJournalValidatesDocumentType(t *testing.T) {
	svc := NewService(&fakeRepo{})

	_, err := svc.OrderJournal(context.Background(), OrderJournalFilter{DocumentType: "shipment"})
	if err == nil {
		t.Fatal("expected error for unknown document type")
	}
}

func TestOrderJournalDefaultsAndSummary(t *testing.T) {
	repo := &fakeRepo{
		journalRows: []OrderJournalRow{{Number: "ORD-2026-00001"}},
		summary:     JournalSummary{CustomerOrders: 4, PurchaseOrders: 9},
		total:       13,
	}
	svc := NewService(repo)

	report, err := svc.OrderJournal(context.Background(), OrderJournalFilter{Offset: -4})
	if err != nil {
		t.Fatalf("OrderJournal() error = %v", err)
	}
	if repo.journalFilter.Limit != 50 {
		t.Errorf("limit = %d, want default 50", repo.journalFilter.Limit)
	}
	if repo.journalFilter.Offset != 0 {
		t.Errorf("offset = %d, want 0", repo.journalFilter.Offset)
	}
	if report.Summary.PurchaseOrders != 9 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.TotalCount != 13 {
		t.Errorf("total = %d, want 13", report.TotalCount)
	}
}

func TestSupplierPerformanceTable(t *testing.T) {
	report := &SupplierPerformanceReport{
		Rows: []SupplierPerformanceRow{{
			SupplierID:       id.MustParse("018f0000-0000-7000-8000-00000000000a"),
			SupplierCode:     "SUP-001",
			SupplierName:     "Acme Metals",
			TotalOrders:      10,
			Confirmed:        8,
			Rejected:         2,
			Delivered:        6,
			ConfirmationRate: 0.8,
			OnTimeRate:       0.75,
			TotalQuantity:    types.NewQuantityFromFloat64(1250),
			AvgQualityScore:  0.92,
		}},
	}

	table := report.Table()
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	if len(table.Rows[0]) != len(table.Headers) {
		t.Fatalf("row width %d does not match %d headers", len(table.Rows[0]), len(table.Headers))
	}
	row := strings.Join(table.Rows[0], "|")
	for _, want := range []string{"Acme Metals", "80.0%", "75.0%", "1250.0000", "0.92"} {
		if !strings.Contains(row, want) {
			t.Errorf("row %q missing %q", row, want)
		}
	}
}

func TestOrderJournalTable(t *testing.T) {
	report := &OrderJournalReport{
		Rows: []OrderJournalRow{{
			DocumentType:  JournalPurchaseOrder,
			Number:        "PO-2026-00042",
			Date:          time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
			Party:         "Acme Metals",
			Status:        "confirmed",
			TotalQuantity: types.NewQuantityFromFloat64(40),
		}},
	}

	table := report.Table()
	if len(table.Rows) != 1 || len(table.Rows[0]) != len(table.Headers) {
		t.Fatalf("unexpected table shape: %+v", table)
	}
	if table.Rows[0][2] != "2026-08-12" {
		t.Errorf("date cell = %q", table.Rows[0][2])
	}
	if table.Rows[0][0] != "purchase_order" {
		t.Errorf("type cell = %q", table.Rows[0][0])
	}
}
