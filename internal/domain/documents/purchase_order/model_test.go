package purchase_order

import (
	"context"
	"testing"
	"time"

	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/status"
)

func validPO() *PurchaseOrder {
	doc := NewPurchaseOrder(id.New(), id.New())
	doc.OrderNumber = "ORD-2026-00001"
	doc.RequiredDate = time.Now().AddDate(0, 1, 0)
	doc.AddItem(id.New(), types.NewQuantityFromFloat64(60), types.MinorUnits(1250))
	doc.AddItem(id.New(), types.NewQuantityFromFloat64(40), types.MinorUnits(900))
	return doc
}

func TestAddItemTotals(t *testing.T) {
	doc := validPO()

	if got, want := doc.TotalQuantity.Float64(), 100.0; got != want {
		t.Errorf("TotalQuantity = %v, want %v", got, want)
	}
	// 60 * 12.50 + 40 * 9.00 = 750.00 + 360.00 = 1110.00
	if got, want := doc.TotalAmount, types.MinorUnits(111000); got != want {
		t.Errorf("TotalAmount = %d, want %d", got, want)
	}
	for i, item := range doc.Items {
		if item.ConfirmedQuantity != item.Quantity {
			t.Errorf("item %d: ConfirmedQuantity = %v, want %v", i, item.ConfirmedQuantity, item.Quantity)
		}
	}
}

func TestPurchaseOrderValidate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(doc *PurchaseOrder)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(doc *PurchaseOrder) {},
			wantErr: false,
		},
		{
			name:    "missing order reference",
			mutate:  func(doc *PurchaseOrder) { doc.OrderID = id.Nil() },
			wantErr: true,
		},
		{
			name:    "missing supplier",
			mutate:  func(doc *PurchaseOrder) { doc.SupplierID = id.Nil() },
			wantErr: true,
		},
		{
			name:    "no items",
			mutate:  func(doc *PurchaseOrder) { doc.Items = nil },
			wantErr: true,
		},
		{
			name: "confirmed above ordered",
			mutate: func(doc *PurchaseOrder) {
				doc.Items[0].ConfirmedQuantity = doc.Items[0].Quantity + 1
			},
			wantErr: true,
		},
		{
			name: "negative price",
			mutate: func(doc *PurchaseOrder) {
				doc.Items[1].UnitPrice = types.MinorUnits(-1)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validPO()
			tt.mutate(doc)

			err := doc.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfirmedTotal(t *testing.T) {
	doc := validPO()
	doc.Items[0].ConfirmedQuantity = types.NewQuantityFromFloat64(45)

	if got, want := doc.ConfirmedTotal().Float64(), 85.0; got != want {
		t.Errorf("ConfirmedTotal = %v, want %v", got, want)
	}
}

func TestPurchaseOrderLifecycleHelpers(t *testing.T) {
	doc := validPO()

	if err := doc.CanModify(); err != nil {
		t.Errorf("CanModify() in Created = %v, want nil", err)
	}
	if !doc.IsActive() {
		t.Error("IsActive() in Created = false, want true")
	}

	doc.Status = status.PORejected
	if doc.IsActive() {
		t.Error("IsActive() in Rejected = true, want false")
	}
	if err := doc.CanModify(); err == nil {
		t.Error("CanModify() in Rejected = nil, want error")
	}
}
