// Package customer_order provides the CustomerOrder document.
package customer_order

import (
	"context"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/status"
)

// Priority of an order, affects planner worklists and dashboards only.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether the priority is one of the known values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CustomerOrder represents a customer demand for products.
// Planners distribute its lines across suppliers, which produces
// purchase orders linked back to this document.
type CustomerOrder struct {
	entity.Document

	// Customer reference
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// Delivery requirement trait
	entity.DeliveryAware

	Priority Priority `db:"priority" json:"priority"`

	// Lifecycle status, derived from linked purchase orders after distribution
	Status status.CustomerOrderStatus `db:"status" json:"status"`

	// StatusReason holds the reason for the last cancellation or rollback
	StatusReason string `db:"status_reason" json:"statusReason,omitempty"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity `db:"total_quantity" json:"totalQuantity"`

	// Table part: requested products
	Lines []OrderLine `db:"-" json:"lines"`
}

// OrderLine represents a requested product in the order.
// Each product may appear on at most one line.
type OrderLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	Note      string         `db:"note" json:"note,omitempty"`
}

// NewCustomerOrder creates a new order in the Created status.
func NewCustomerOrder(customerID id.ID) *CustomerOrder {
	return &CustomerOrder{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Priority:   PriorityNormal,
		Status:     status.OrderCreated,
		Lines:      make([]OrderLine, 0),
	}
}

// AddLine adds a line to the order and recalculates totals.
func (o *CustomerOrder) AddLine(productID id.ID, quantity types.Quantity, note string) {
	line := OrderLine{
		LineID:    id.New(),
		LineNo:    len(o.Lines) + 1,
		ProductID: productID,
		Quantity:  quantity,
		Note:      note,
	}

	o.Lines = append(o.Lines, line)
	o.recalculateTotals()
}

func (o *CustomerOrder) recalculateTotals() {
	o.TotalQuantity = types.Quantity(0)
	for _, line := range o.Lines {
		o.TotalQuantity += line.Quantity
	}
}

// Validate implements entity.Validatable.
func (o *CustomerOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if err := o.ValidateRequiredDate(ctx); err != nil {
		return err
	}

	if !o.Priority.Valid() {
		return apperror.NewValidation("unknown priority").
			WithDetail("field", "priority").
			WithDetail("value", string(o.Priority))
	}

	if len(o.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	seen := make(map[id.ID]int, len(o.Lines))
	for i, line := range o.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if prev, ok := seen[line.ProductID]; ok {
			return apperror.NewValidation("product appears on more than one line").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1).
				WithDetail("duplicateOfLineNo", prev)
		}
		seen[line.ProductID] = i + 1
	}

	return nil
}

// CanModify reports whether the order content may still be edited.
// Only orders that have not been distributed yet are editable.
func (o *CustomerOrder) CanModify() error {
	if !o.Status.IsEditable() {
		return apperror.NewBusinessRule("INVALID_STATUS", "Order can only be edited in Created status").
			WithDetail("status", string(o.Status))
	}
	return nil
}

// LineFor returns the line for the given product, if any.
func (o *CustomerOrder) LineFor(productID id.ID) (OrderLine, bool) {
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return OrderLine{}, false
}

// --- entity.Lifecycled implementation ---

func (o *CustomerOrder) CurrentStatus() string { return string(o.Status) }

func (o *CustomerOrder) SetStatus(st string) { o.Status = status.CustomerOrderStatus(st) }

var _ entity.Lifecycled = (*CustomerOrder)(nil)
