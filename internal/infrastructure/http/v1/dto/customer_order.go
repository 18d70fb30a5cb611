package dto

import (
	"time"

	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/documents/customer_order"
)

// --- Request DTOs ---

// OrderLineRequest is a requested product line.
type OrderLineRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	Note      string         `json:"note"`
}

// CreateCustomerOrderRequest is the request body for creating a customer order.
// CustomerID may be omitted by customer users; it is then taken from the
// session binding.
type CreateCustomerOrderRequest struct {
	CustomerID   string                  `json:"customerId" binding:"omitempty,uuid"`
	Date         *time.Time              `json:"date"`
	RequiredDate time.Time               `json:"requiredDate" binding:"required"`
	Priority     customer_order.Priority `json:"priority"`
	Comment      string                  `json:"comment"`
	Lines        []OrderLineRequest      `json:"lines" binding:"required,min=1,dive"`
	Attributes   entity.Attributes       `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCustomerOrderRequest) ToEntity() *customer_order.CustomerOrder {
	customerID := id.Nil()
	if r.CustomerID != "" {
		customerID = id.MustParse(r.CustomerID)
	}

	doc := customer_order.NewCustomerOrder(customerID)
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.RequiredDate = r.RequiredDate
	if r.Priority != "" {
		doc.Priority = r.Priority
	}
	doc.Comment = r.Comment
	doc.Attributes = r.Attributes

	for _, line := range r.Lines {
		doc.AddLine(id.MustParse(line.ProductID), line.Quantity, line.Note)
	}
	return doc
}

// UpdateCustomerOrderRequest is the request body for updating a customer order.
// Only orders still in the Created status accept updates.
type UpdateCustomerOrderRequest struct {
	Date         *time.Time              `json:"date"`
	RequiredDate time.Time               `json:"requiredDate" binding:"required"`
	Priority     customer_order.Priority `json:"priority"`
	Comment      string                  `json:"comment"`
	Lines        []OrderLineRequest      `json:"lines" binding:"required,min=1,dive"`
	Attributes   entity.Attributes       `json:"attributes"`
	Version      int                     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity. Lines are replaced wholesale.
func (r *UpdateCustomerOrderRequest) ApplyTo(doc *customer_order.CustomerOrder) {
	if r.Date != nil {
		doc.Date = *r.Date
	}
	doc.RequiredDate = r.RequiredDate
	if r.Priority != "" {
		doc.Priority = r.Priority
	}
	doc.Comment = r.Comment
	doc.Attributes = r.Attributes
	doc.Version = r.Version

	doc.Lines = doc.Lines[:0]
	for _, line := range r.Lines {
		doc.AddLine(id.MustParse(line.ProductID), line.Quantity, line.Note)
	}
}

// TransitionOrderRequest moves an order to another lifecycle status.
// Force only matters for cancellation of orders already in production.
type TransitionOrderRequest struct {
	Target string `json:"target" binding:"required"`
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

// CancelOrderRequest cancels an order with a reason. Force overrides
// the in-production guard.
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
	Force  bool   `json:"force"`
}

// --- Response DTOs ---

// OrderLineResponse is a requested product line.
type OrderLineResponse struct {
	LineID    string         `json:"lineId"`
	LineNo    int            `json:"lineNo"`
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	Note      string         `json:"note,omitempty"`
}

// CustomerOrderResponse is the response body for a customer order.
type CustomerOrderResponse struct {
	DocumentResponse
	CustomerID    string                  `json:"customerId"`
	RequiredDate  time.Time               `json:"requiredDate"`
	Priority      customer_order.Priority `json:"priority"`
	Status        string                  `json:"status"`
	StatusReason  string                  `json:"statusReason,omitempty"`
	TotalQuantity types.Quantity          `json:"totalQuantity"`
	Lines         []OrderLineResponse     `json:"lines"`
}

// FromCustomerOrder creates response DTO from domain entity.
func FromCustomerOrder(doc *customer_order.CustomerOrder) *CustomerOrderResponse {
	lines := make([]OrderLineResponse, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, OrderLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			ProductID: line.ProductID.String(),
			Quantity:  line.Quantity,
			Note:      line.Note,
		})
	}

	return &CustomerOrderResponse{
		DocumentResponse: FromDocument(doc.Document),
		CustomerID:       doc.CustomerID.String(),
		RequiredDate:     doc.RequiredDate,
		Priority:         doc.Priority,
		Status:           string(doc.Status),
		StatusReason:     doc.StatusReason,
		TotalQuantity:    doc.TotalQuantity,
		Lines:            lines,
	}
}
