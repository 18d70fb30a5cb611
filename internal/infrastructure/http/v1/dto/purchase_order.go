package dto

import (
	"time"

	"procura/internal/core/types"
	"procura/internal/domain/documents/purchase_order"
)

// --- Request DTOs ---

// CancelPurchaseOrderRequest cancels a purchase order with a reason.
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- Response DTOs ---

// PurchaseOrderItemResponse is an ordered product line.
type PurchaseOrderItemResponse struct {
	LineID            string           `json:"lineId"`
	LineNo            int              `json:"lineNo"`
	ProductID         string           `json:"productId"`
	Quantity          types.Quantity   `json:"quantity"`
	ConfirmedQuantity types.Quantity   `json:"confirmedQuantity"`
	UnitPrice         types.MinorUnits `json:"unitPrice"`
	Amount            types.MinorUnits `json:"amount"`
	DeliveryDate      *time.Time       `json:"deliveryDate,omitempty"`
	Note              string           `json:"note,omitempty"`
}

// PurchaseOrderResponse is the response body for a purchase order.
type PurchaseOrderResponse struct {
	DocumentResponse
	OrderID       string                      `json:"orderId"`
	OrderNumber   string                      `json:"orderNumber"`
	SupplierID    string                      `json:"supplierId"`
	RequiredDate  time.Time                   `json:"requiredDate"`
	Status        string                      `json:"status"`
	StatusReason  string                      `json:"statusReason,omitempty"`
	ConfirmedDate *time.Time                  `json:"confirmedDate,omitempty"`
	SentAt        *time.Time                  `json:"sentAt,omitempty"`
	ConfirmedAt   *time.Time                  `json:"confirmedAt,omitempty"`
	TotalQuantity types.Quantity              `json:"totalQuantity"`
	TotalAmount   types.MinorUnits            `json:"totalAmount"`
	Items         []PurchaseOrderItemResponse `json:"items"`
}

// FromPurchaseOrder creates response DTO from domain entity.
func FromPurchaseOrder(doc *purchase_order.PurchaseOrder) *PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, PurchaseOrderItemResponse{
			LineID:            item.LineID.String(),
			LineNo:            item.LineNo,
			ProductID:         item.ProductID.String(),
			Quantity:          item.Quantity,
			ConfirmedQuantity: item.ConfirmedQuantity,
			UnitPrice:         item.UnitPrice,
			Amount:            item.Amount,
			DeliveryDate:      item.DeliveryDate,
			Note:              item.Note,
		})
	}

	return &PurchaseOrderResponse{
		DocumentResponse: FromDocument(doc.Document),
		OrderID:          doc.OrderID.String(),
		OrderNumber:      doc.OrderNumber,
		SupplierID:       doc.SupplierID.String(),
		RequiredDate:     doc.RequiredDate,
		Status:           string(doc.Status),
		StatusReason:     doc.StatusReason,
		ConfirmedDate:    doc.ConfirmedDate,
		SentAt:           doc.SentAt,
		ConfirmedAt:      doc.ConfirmedAt,
		TotalQuantity:    doc.TotalQuantity,
		TotalAmount:      doc.TotalAmount,
		Items:            items,
	}
}
