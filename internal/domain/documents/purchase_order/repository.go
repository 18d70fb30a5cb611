package purchase_order

import (
	"context"
	"time"

	"procura/internal/core/id"
	"procura/internal/domain"
	"procura/internal/domain/status"
)

// Repository defines operations for purchase order documents.
type Repository interface {
	Create(ctx context.Context, doc *PurchaseOrder) error
	GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)
	Update(ctx context.Context, doc *PurchaseOrder) error
	Delete(ctx context.Context, docID id.ID) error

	GetItems(ctx context.Context, docID id.ID) ([]PurchaseOrderItem, error)
	SaveItems(ctx context.Context, docID id.ID, items []PurchaseOrderItem) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*PurchaseOrder, error)

	// ListByOrder returns all purchase orders of a customer order,
	// including rejected and cancelled ones, with items loaded.
	ListByOrder(ctx context.Context, orderID id.ID) ([]*PurchaseOrder, error)
}

// ListFilter for filtering purchase orders.
type ListFilter struct {
	domain.ListFilter

	OrderID    *id.ID
	SupplierID *id.ID
	Status     *status.PurchaseOrderStatus
	Statuses   []status.PurchaseOrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
}
