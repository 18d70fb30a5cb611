package status

import (
	"testing"

	"procura/internal/core/apperror"
)

func TestCustomerOrderTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    CustomerOrderStatus
		to      CustomerOrderStatus
		allowed bool
	}{
		{"create to planned", OrderCreated, OrderPurchaseOrdersCreated, true},
		{"create to cancelled", OrderCreated, OrderCancelled, true},
		{"create to confirmed skips planning", OrderCreated, OrderConfirmed, false},
		{"planned to partially confirmed", OrderPurchaseOrdersCreated, OrderPartiallyConfirmed, true},
		{"planned to confirmed", OrderPurchaseOrdersCreated, OrderConfirmed, true},
		{"planned back to created", OrderPurchaseOrdersCreated, OrderCreated, true},
		{"partial to confirmed", OrderPartiallyConfirmed, OrderConfirmed, true},
		{"partial back to planned", OrderPartiallyConfirmed, OrderPurchaseOrdersCreated, true},
		{"confirmed to production", OrderConfirmed, OrderInProduction, true},
		{"production to delivered", OrderInProduction, OrderDelivered, true},
		{"delivered to completed", OrderDelivered, OrderCompleted, true},
		{"delivered cannot cancel", OrderDelivered, OrderCancelled, false},
		{"completed is terminal", OrderCompleted, OrderCancelled, false},
		{"cancelled is terminal", OrderCancelled, OrderCreated, false},
		{"no backwards from production", OrderInProduction, OrderConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CustomerOrders.Can(string(tt.from), string(tt.to))
			if got != tt.allowed {
				t.Errorf("Can(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestPurchaseOrderTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    PurchaseOrderStatus
		to      PurchaseOrderStatus
		allowed bool
	}{
		{"created to sent", POCreated, POSentToSupplier, true},
		{"created to confirmed skips send", POCreated, POConfirmed, false},
		{"sent to confirmed", POSentToSupplier, POConfirmed, true},
		{"sent to rejected", POSentToSupplier, PORejected, true},
		{"confirmed to production", POConfirmed, POInProduction, true},
		{"confirmed cannot reject", POConfirmed, PORejected, false},
		{"rejected to cancelled", PORejected, POCancelled, true},
		{"rejected cannot confirm", PORejected, POConfirmed, false},
		{"production to ready", POInProduction, POReadyForShipment, true},
		{"ready to shipped", POReadyForShipment, POShipped, true},
		{"ready cannot cancel", POReadyForShipment, POCancelled, false},
		{"shipped to delivered", POShipped, PODelivered, true},
		{"delivered to closed", PODelivered, POClosed, true},
		{"closed is terminal", POClosed, POCancelled, false},
		{"cancelled is terminal", POCancelled, POCreated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PurchaseOrders.Can(string(tt.from), string(tt.to))
			if got != tt.allowed {
				t.Errorf("Can(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestMachineValidate(t *testing.T) {
	err := PurchaseOrders.Validate(string(POCreated), string(POConfirmed))
	if err == nil {
		t.Fatal("expected error for forbidden transition")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != apperror.CodeInvalidTransition {
		t.Errorf("code = %s, want %s", appErr.Code, apperror.CodeInvalidTransition)
	}

	err = PurchaseOrders.Validate(string(POCreated), "Shredded")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	appErr, _ = apperror.AsAppError(err)
	if appErr.Code != apperror.CodeValidation {
		t.Errorf("code = %s, want %s", appErr.Code, apperror.CodeValidation)
	}

	if err := CustomerOrders.Validate(string(OrderCreated), string(OrderPurchaseOrdersCreated)); err != nil {
		t.Errorf("allowed transition returned error: %v", err)
	}
}

func TestMachinePath(t *testing.T) {
	tests := []struct {
		name string
		from CustomerOrderStatus
		to   CustomerOrderStatus
		want []string
	}{
		{"same status", OrderConfirmed, OrderConfirmed, []string{}},
		{"single hop", OrderCreated, OrderPurchaseOrdersCreated, []string{"PurchaseOrdersCreated"}},
		{"multi hop to delivered", OrderConfirmed, OrderDelivered, []string{"InProduction", "Delivered"}},
		{"unreachable from production", OrderInProduction, OrderCreated, nil},
		{"unreachable from terminal", OrderCompleted, OrderCreated, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CustomerOrders.Path(string(tt.from), string(tt.to))
			if len(got) != len(tt.want) {
				t.Fatalf("Path(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
			if tt.want == nil && got != nil {
				t.Fatalf("Path(%s, %s) = %v, want nil", tt.from, tt.to, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Path(%s, %s)[%d] = %s, want %s", tt.from, tt.to, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name   string
		active []PurchaseOrderStatus
		want   CustomerOrderStatus
	}{
		{"no active orders", nil, OrderCreated},
		{"all sent", []PurchaseOrderStatus{POSentToSupplier, POSentToSupplier}, OrderPurchaseOrdersCreated},
		{"one confirmed one sent", []PurchaseOrderStatus{POConfirmed, POSentToSupplier}, OrderPartiallyConfirmed},
		{"all confirmed", []PurchaseOrderStatus{POConfirmed, POConfirmed}, OrderConfirmed},
		{"confirmed and beyond", []PurchaseOrderStatus{POConfirmed, POInProduction}, OrderConfirmed},
		{"all in production", []PurchaseOrderStatus{POInProduction, POShipped}, OrderInProduction},
		{"all delivered", []PurchaseOrderStatus{PODelivered, POClosed}, OrderDelivered},
		{"delivered and shipped", []PurchaseOrderStatus{PODelivered, POShipped}, OrderInProduction},
		{"still created", []PurchaseOrderStatus{POCreated, POCreated}, OrderPurchaseOrdersCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveOrderStatus(tt.active)
			if got != tt.want {
				t.Errorf("DeriveOrderStatus(%v) = %s, want %s", tt.active, got, tt.want)
			}
		})
	}
}

func TestPurchaseOrderStatusHelpers(t *testing.T) {
	if PORejected.IsActive() || POCancelled.IsActive() {
		t.Error("rejected and cancelled must not be active")
	}
	if !POShipped.IsActive() {
		t.Error("shipped must be active")
	}
	if !POShipped.AtLeast(POConfirmed) {
		t.Error("shipped should rank at least confirmed")
	}
	if POSentToSupplier.AtLeast(POConfirmed) {
		t.Error("sent should not rank at least confirmed")
	}
	if PORejected.AtLeast(POCreated) {
		t.Error("rejected has no rank")
	}
	if !POInProduction.CanCancel() {
		t.Error("in production should still be cancellable")
	}
	if POShipped.CanCancel() {
		t.Error("shipped must not be cancellable")
	}
}
