package customer_order

import (
	"context"
	"testing"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/status"
)

func validOrder() *CustomerOrder {
	doc := NewCustomerOrder(id.New())
	doc.RequiredDate = time.Now().AddDate(0, 1, 0)
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(100), "")
	doc.AddLine(id.New(), types.NewQuantityFromFloat64(50), "rush")
	return doc
}

func TestNewCustomerOrderDefaults(t *testing.T) {
	doc := NewCustomerOrder(id.New())

	if doc.Status != status.OrderCreated {
		t.Errorf("Status = %s, want %s", doc.Status, status.OrderCreated)
	}
	if doc.Priority != PriorityNormal {
		t.Errorf("Priority = %s, want %s", doc.Priority, PriorityNormal)
	}
	if len(doc.Lines) != 0 {
		t.Errorf("Lines = %d, want 0", len(doc.Lines))
	}
}

func TestAddLineTotals(t *testing.T) {
	doc := validOrder()

	if got, want := doc.TotalQuantity.Float64(), 150.0; got != want {
		t.Errorf("TotalQuantity = %v, want %v", got, want)
	}
	if doc.Lines[0].LineNo != 1 || doc.Lines[1].LineNo != 2 {
		t.Errorf("LineNo sequence = %d, %d, want 1, 2", doc.Lines[0].LineNo, doc.Lines[1].LineNo)
	}
	if id.IsNil(doc.Lines[0].LineID) {
		t.Error("LineID not generated")
	}
}

func TestCustomerOrderValidate(t *testing.T) {
	ctx := context.Background()
	productID := id.New()

	tests := []struct {
		name    string
		mutate  func(doc *CustomerOrder)
		wantErr bool
	}{
		{
			name:    "valid order",
			mutate:  func(doc *CustomerOrder) {},
			wantErr: false,
		},
		{
			name:    "missing customer",
			mutate:  func(doc *CustomerOrder) { doc.CustomerID = id.Nil() },
			wantErr: true,
		},
		{
			name:    "missing required date",
			mutate:  func(doc *CustomerOrder) { doc.RequiredDate = time.Time{} },
			wantErr: true,
		},
		{
			name:    "unknown priority",
			mutate:  func(doc *CustomerOrder) { doc.Priority = "asap" },
			wantErr: true,
		},
		{
			name:    "no lines",
			mutate:  func(doc *CustomerOrder) { doc.Lines = nil },
			wantErr: true,
		},
		{
			name: "zero quantity line",
			mutate: func(doc *CustomerOrder) {
				doc.Lines[1].Quantity = types.Quantity(0)
			},
			wantErr: true,
		},
		{
			name: "nil product line",
			mutate: func(doc *CustomerOrder) {
				doc.Lines[0].ProductID = id.Nil()
			},
			wantErr: true,
		},
		{
			name: "duplicate product",
			mutate: func(doc *CustomerOrder) {
				doc.Lines[0].ProductID = productID
				doc.Lines[1].ProductID = productID
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validOrder()
			tt.mutate(doc)

			err := doc.Validate(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperror.IsAppError(err) {
				t.Errorf("Validate() returned non-AppError: %v", err)
			}
		})
	}
}

func TestCanModify(t *testing.T) {
	doc := validOrder()

	if err := doc.CanModify(); err != nil {
		t.Errorf("CanModify() in Created = %v, want nil", err)
	}

	doc.Status = status.OrderPurchaseOrdersCreated
	if err := doc.CanModify(); err == nil {
		t.Error("CanModify() after distribution = nil, want error")
	}
}

func TestLineFor(t *testing.T) {
	doc := validOrder()
	want := doc.Lines[1]

	got, ok := doc.LineFor(want.ProductID)
	if !ok {
		t.Fatal("LineFor() not found")
	}
	if got.LineID != want.LineID {
		t.Errorf("LineFor() = %v, want %v", got.LineID, want.LineID)
	}

	if _, ok := doc.LineFor(id.New()); ok {
		t.Error("LineFor() found line for unknown product")
	}
}
