// Package purchase_order provides the PurchaseOrder document.
package purchase_order

import (
	"context"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/status"
)

// PurchaseOrder represents an order placed with a single supplier,
// carved out of a customer order by the distribution algorithm.
type PurchaseOrder struct {
	entity.Document

	// Parent customer order
	OrderID     id.ID  `db:"order_id" json:"orderId"`
	OrderNumber string `db:"order_number" json:"orderNumber"`

	// Supplier reference
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// Delivery requirement trait, copied from the customer order
	entity.DeliveryAware

	// Lifecycle status
	Status status.PurchaseOrderStatus `db:"status" json:"status"`

	// StatusReason holds the supplier rejection or cancellation reason
	StatusReason string `db:"status_reason" json:"statusReason,omitempty"`

	// ConfirmedDate is the delivery date promised by the supplier
	ConfirmedDate *time.Time `db:"confirmed_date" json:"confirmedDate,omitempty"`

	SentAt      *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`

	// Totals (calculated from items)
	TotalQuantity types.Quantity   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.MinorUnits `db:"total_amount" json:"totalAmount"`

	// Table part: ordered products
	Items []PurchaseOrderItem `db:"-" json:"items"`
}

// PurchaseOrderItem represents an ordered product.
type PurchaseOrderItem struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`

	// ConfirmedQuantity is what the supplier committed to. Defaults to
	// the ordered quantity, suppliers may lower it during confirmation.
	ConfirmedQuantity types.Quantity `db:"confirmed_quantity" json:"confirmedQuantity"`

	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`

	// DeliveryDate is an optional per-item promise
	DeliveryDate *time.Time `db:"delivery_date" json:"deliveryDate,omitempty"`

	Note string `db:"note" json:"note,omitempty"`
}

// NewPurchaseOrder creates a new purchase order in the Created status.
func NewPurchaseOrder(orderID, supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		Document:   entity.NewDocument(),
		OrderID:    orderID,
		SupplierID: supplierID,
		Status:     status.POCreated,
		Items:      make([]PurchaseOrderItem, 0),
	}
}

// AddItem adds an item and recalculates totals.
// ConfirmedQuantity starts equal to the ordered quantity.
func (p *PurchaseOrder) AddItem(productID id.ID, quantity types.Quantity, unitPrice types.MinorUnits) {
	// Quantity is scaled by 10000. UnitPrice is in minor units.
	// amount (minor units) = (QuantityScaled * UnitPrice) / 10000
	amount := types.MinorUnits((quantity.Int64Scaled() * int64(unitPrice)) / 10000)

	item := PurchaseOrderItem{
		LineID:            id.New(),
		LineNo:            len(p.Items) + 1,
		ProductID:         productID,
		Quantity:          quantity,
		ConfirmedQuantity: quantity,
		UnitPrice:         unitPrice,
		Amount:            amount,
	}

	p.Items = append(p.Items, item)
	p.recalculateTotals()
}

func (p *PurchaseOrder) recalculateTotals() {
	p.TotalQuantity = types.Quantity(0)
	p.TotalAmount = types.MinorUnits(0)

	for _, item := range p.Items {
		p.TotalQuantity += item.Quantity
		p.TotalAmount += item.Amount
	}
}

// RecalculateTotals recomputes totals after item edits.
func (p *PurchaseOrder) RecalculateTotals() {
	p.recalculateTotals()
}

// Validate implements entity.Validatable.
func (p *PurchaseOrder) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.OrderID) {
		return apperror.NewValidation("customer order reference is required").
			WithDetail("field", "orderId")
	}

	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}

	if err := p.ValidateRequiredDate(ctx); err != nil {
		return err
	}

	if len(p.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range p.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.ConfirmedQuantity < 0 || item.ConfirmedQuantity > item.Quantity {
			return apperror.NewValidation("confirmed quantity must be between zero and the ordered quantity").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice < 0 {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify reports whether items may still be edited by the planner.
func (p *PurchaseOrder) CanModify() error {
	if !p.Status.IsEditable() {
		return apperror.NewBusinessRule("INVALID_STATUS", "Purchase order can only be edited in Created status").
			WithDetail("status", string(p.Status))
	}
	return nil
}

// IsActive reports whether the order still counts toward its customer order.
func (p *PurchaseOrder) IsActive() bool {
	return p.Status.IsActive()
}

// ConfirmedTotal returns the sum of confirmed quantities.
func (p *PurchaseOrder) ConfirmedTotal() types.Quantity {
	var total types.Quantity
	for _, item := range p.Items {
		total += item.ConfirmedQuantity
	}
	return total
}

// ItemFor returns the item for the given product, if any.
func (p *PurchaseOrder) ItemFor(productID id.ID) (PurchaseOrderItem, bool) {
	for _, item := range p.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return PurchaseOrderItem{}, false
}

// ItemByLine returns a mutable reference to the item with the given
// line ID, or nil.
func (p *PurchaseOrder) ItemByLine(lineID id.ID) *PurchaseOrderItem {
	for i := range p.Items {
		if p.Items[i].LineID == lineID {
			return &p.Items[i]
		}
	}
	return nil
}

// --- entity.Lifecycled implementation ---

func (p *PurchaseOrder) CurrentStatus() string { return string(p.Status) }

func (p *PurchaseOrder) SetStatus(st string) { p.Status = status.PurchaseOrderStatus(st) }

var _ entity.Lifecycled = (*PurchaseOrder)(nil)
