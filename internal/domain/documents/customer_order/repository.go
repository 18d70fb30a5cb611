package customer_order

import (
	"context"
	"time"

	"procura/internal/core/id"
	"procura/internal/domain"
	"procura/internal/domain/status"
)

// Repository defines operations for customer order documents.
type Repository interface {
	Create(ctx context.Context, doc *CustomerOrder) error
	GetByID(ctx context.Context, docID id.ID) (*CustomerOrder, error)
	GetByNumber(ctx context.Context, number string) (*CustomerOrder, error)
	Update(ctx context.Context, doc *CustomerOrder) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]OrderLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []OrderLine) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*CustomerOrder], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*CustomerOrder, error)
}

// ListFilter for filtering customer orders.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *status.CustomerOrderStatus
	Priority   *Priority
	DateFrom   *time.Time
	DateTo     *time.Time
}
