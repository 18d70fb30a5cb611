package purchase_order

import (
	"context"
	"fmt"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/numerator"
	"procura/internal/core/security"
	"procura/internal/core/tx"
	"procura/internal/domain"
	"procura/internal/domain/audit"
	"procura/internal/domain/status"
	"procura/pkg/logger"
)

// Service provides planner-side operations for purchase orders.
// Supplier-side confirmation lives in the confirmation package, and
// cancellation lives in planning because it releases commitments.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
	events    domain.EventPublisher
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	gen numerator.Generator,
	txManager tx.Manager,
	trail audit.Trail,
	events domain.EventPublisher,
) *Service {
	if trail == nil {
		trail = audit.NopTrail{}
	}
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
		trail:     trail,
		events:    events,
	}
}

func checkSupplierAccess(ctx context.Context, doc *PurchaseOrder) error {
	sc := security.GetScope(ctx)
	if sc.SupplierID == "" {
		return nil
	}
	return sc.RequireSupplier(doc.SupplierID.String())
}

// Create persists a new purchase order produced by plan execution.
func (s *Service) Create(ctx context.Context, doc *PurchaseOrder) error {
	if doc.Status == "" {
		doc.Status = status.POCreated
	}
	if doc.Status != status.POCreated {
		return apperror.NewValidation("new purchase orders start in Created status").
			WithDetail("status", string(doc.Status))
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig("PO")
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		if err := s.trail.LogChange(ctx, "PurchaseOrder", doc.ID, audit.ActionCreate, map[string]any{
			"number":     doc.Number,
			"supplierId": doc.SupplierID.String(),
			"orderId":    doc.OrderID.String(),
			"items":      len(doc.Items),
		}); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: "PurchaseOrder",
			AggregateID:   doc.ID,
			Type:          domain.EventPOCreated,
			Payload:       EventPayload(doc, ""),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", doc.ID, "number", doc.Number, "supplier_id", doc.SupplierID)
	return nil
}

// GetByID retrieves a purchase order with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := checkSupplierAccess(ctx, doc); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// GetByNumber retrieves a purchase order by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := checkSupplierAccess(ctx, doc); err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items

	return doc, nil
}

// List retrieves purchase orders with filtering. Supplier-bound users
// only see their own orders regardless of the requested filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	sc := security.GetScope(ctx)
	if sc.SupplierID != "" {
		sid, err := id.Parse(sc.SupplierID)
		if err != nil {
			return domain.ListResult[*PurchaseOrder]{}, apperror.NewForbidden("invalid supplier binding")
		}
		filter.SupplierID = &sid
	}
	return s.repo.List(ctx, filter)
}

// ListByOrder returns all purchase orders of a customer order.
func (s *Service) ListByOrder(ctx context.Context, orderID id.ID) ([]*PurchaseOrder, error) {
	return s.repo.ListByOrder(ctx, orderID)
}

// Send transitions a purchase order to SentToSupplier and stamps the
// send time. The outbox event drives the supplier notification.
func (s *Service) Send(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
	var doc *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		from := doc.Status
		if err := status.PurchaseOrders.Validate(string(from), string(status.POSentToSupplier)); err != nil {
			return err
		}

		now := time.Now()
		doc.Status = status.POSentToSupplier
		doc.SentAt = &now
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if err := s.trail.LogStatusChange(ctx, "PurchaseOrder", doc.ID, string(from), string(doc.Status), ""); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: "PurchaseOrder",
			AggregateID:   doc.ID,
			Type:          domain.EventPOSent,
			Payload:       EventPayload(doc, ""),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order sent", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// Transition moves a purchase order along the status machine.
// Supplier decisions and cancellation have dedicated operations that
// carry their side effects, so their targets are rejected here.
func (s *Service) Transition(ctx context.Context, docID id.ID, target status.PurchaseOrderStatus, reason string) (*PurchaseOrder, error) {
	if !target.Valid() {
		return nil, apperror.NewValidation("unknown status").
			WithDetail("status", string(target))
	}
	switch target {
	case status.POConfirmed, status.PORejected:
		return nil, apperror.NewBusinessRule("USE_CONFIRMATION", "Supplier decisions go through the confirmation operations")
	case status.POCancelled:
		return nil, apperror.NewBusinessRule("USE_CANCEL", "Use the cancel operation, it releases supplier commitments")
	}

	var doc *PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		from := doc.Status
		if err := status.PurchaseOrders.Validate(string(from), string(target)); err != nil {
			return err
		}

		doc.Status = target
		doc.StatusReason = reason
		if target == status.POSentToSupplier && doc.SentAt == nil {
			now := time.Now()
			doc.SentAt = &now
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		return s.trail.LogStatusChange(ctx, "PurchaseOrder", doc.ID, string(from), string(target), reason)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order status changed",
		"id", doc.ID, "number", doc.Number, "status", doc.Status)
	return doc, nil
}

// EventPayload builds the outbox payload for a purchase order event.
func EventPayload(doc *PurchaseOrder, reason string) domain.PurchaseOrderEventPayload {
	payload := domain.PurchaseOrderEventPayload{
		PurchaseOrderID: doc.ID.String(),
		Number:          doc.Number,
		SupplierID:      doc.SupplierID.String(),
		OrderID:         doc.OrderID.String(),
		OrderNumber:     doc.OrderNumber,
		Status:          string(doc.Status),
		RequiredDate:    doc.RequiredDate.Format("2006-01-02"),
		Reason:          reason,
	}
	if doc.ConfirmedDate != nil {
		payload.ConfirmedDate = doc.ConfirmedDate.Format("2006-01-02")
	}
	return payload
}
