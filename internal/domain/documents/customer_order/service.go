package customer_order

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

// Service provides business operations for customer orders.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	trail     audit.Trail
	events    domain.EventPublisher
}

// NewService creates a new customer order service.
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

// bindCustomer forces the order onto the customer bound to the scope.
// Planners and admins carry no customer binding and may act for anyone.
func bindCustomer(ctx context.Context, doc *CustomerOrder) error {
	sc := security.GetScope(ctx)
	if sc.CustomerID == "" {
		return nil
	}
	cid, err := id.Parse(sc.CustomerID)
	if err != nil {
		return apperror.NewForbidden("invalid customer binding")
	}
	if id.IsNil(doc.CustomerID) {
		doc.CustomerID = cid
		return nil
	}
	if doc.CustomerID != cid {
		return apperror.NewForbidden("order belongs to another customer").
			WithDetail("customer_id", doc.CustomerID.String())
	}
	return nil
}

func checkCustomerAccess(ctx context.Context, doc *CustomerOrder) error {
	sc := security.GetScope(ctx)
	if sc.CustomerID == "" {
		return nil
	}
	if !sc.CanActForCustomer(doc.CustomerID.String()) {
		return apperror.NewForbidden("order belongs to another customer").
			WithDetail("customer_id", doc.CustomerID.String())
	}
	return nil
}

// Create creates a new customer order in the Created status.
func (s *Service) Create(ctx context.Context, doc *CustomerOrder) error {
	if err := bindCustomer(ctx, doc); err != nil {
		return err
	}

	if doc.Status == "" {
		doc.Status = status.OrderCreated
	}
	if doc.Status != status.OrderCreated {
		return apperror.NewValidation("new orders start in Created status").
			WithDetail("status", string(doc.Status))
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := checkRequiredDateNotPast(doc.RequiredDate); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig("ORD")
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
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.trail.LogChange(ctx, "CustomerOrder", doc.ID, audit.ActionCreate, map[string]any{
			"number":     doc.Number,
			"customerId": doc.CustomerID.String(),
			"lines":      len(doc.Lines),
		}); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: "CustomerOrder",
			AggregateID:   doc.ID,
			Type:          domain.EventOrderCreated,
			Payload: domain.OrderEventPayload{
				OrderID:    doc.ID.String(),
				Number:     doc.Number,
				CustomerID: doc.CustomerID.String(),
				Status:     string(doc.Status),
			},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "customer order created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*CustomerOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := checkCustomerAccess(ctx, doc); err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// GetByNumber retrieves an order by its document number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*CustomerOrder, error) {
	doc, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := checkCustomerAccess(ctx, doc); err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update replaces the header and lines of an order that is still editable.
// Number, status and customer reference never change through Update.
func (s *Service) Update(ctx context.Context, doc *CustomerOrder) error {
	existing, err := s.repo.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if err := checkCustomerAccess(ctx, existing); err != nil {
		return err
	}
	if err := existing.CanModify(); err != nil {
		return err
	}

	doc.Number = existing.Number
	doc.Status = existing.Status
	doc.CustomerID = existing.CustomerID

	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := checkRequiredDateNotPast(doc.RequiredDate); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.trail.LogChange(ctx, "CustomerOrder", doc.ID, audit.ActionUpdate, map[string]any{
			"requiredDate":  doc.RequiredDate,
			"priority":      string(doc.Priority),
			"totalQuantity": doc.TotalQuantity.Float64(),
			"lines":         len(doc.Lines),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "customer order updated", "id", doc.ID, "number", doc.Number)
	return nil
}

// Delete soft-deletes an order. Only orders that never reached
// distribution, or were fully cancelled, can be deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := checkCustomerAccess(ctx, doc); err != nil {
		return err
	}

	if doc.Status != status.OrderCreated && doc.Status != status.OrderCancelled {
		return apperror.NewBusinessRule("INVALID_STATUS", "Only Created or Cancelled orders can be deleted").
			WithDetail("status", string(doc.Status))
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, docID); err != nil {
			return err
		}
		return s.trail.LogChange(ctx, "CustomerOrder", docID, audit.ActionDelete, map[string]any{
			"number": doc.Number,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "customer order deleted", "id", docID, "number", doc.Number)
	return nil
}

// List retrieves orders with filtering. Customer-bound users only see
// their own orders regardless of the requested filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*CustomerOrder], error) {
	sc := security.GetScope(ctx)
	if sc.CustomerID != "" {
		cid, err := id.Parse(sc.CustomerID)
		if err != nil {
			return domain.ListResult[*CustomerOrder]{}, apperror.NewForbidden("invalid customer binding")
		}
		filter.CustomerID = &cid
	}
	return s.repo.List(ctx, filter)
}

// Transition moves an order along the status machine.
// Cancellation goes through the planning cancel operation instead,
// because it releases the linked purchase orders.
func (s *Service) Transition(ctx context.Context, docID id.ID, target status.CustomerOrderStatus, reason string) (*CustomerOrder, error) {
	if !target.Valid() {
		return nil, apperror.NewValidation("unknown status").
			WithDetail("status", string(target))
	}
	if target == status.OrderCancelled {
		return nil, apperror.NewBusinessRule("USE_CANCEL", "Use the cancel operation, it releases linked purchase orders")
	}

	var doc *CustomerOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := checkCustomerAccess(ctx, doc); err != nil {
			return err
		}

		from := doc.Status
		if err := status.CustomerOrders.Validate(string(from), string(target)); err != nil {
			return err
		}

		doc.Status = target
		doc.StatusReason = reason
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if err := s.trail.LogStatusChange(ctx, "CustomerOrder", doc.ID, string(from), string(target), reason); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: "CustomerOrder",
			AggregateID:   doc.ID,
			Type:          domain.EventOrderStatusChanged,
			Payload: domain.OrderEventPayload{
				OrderID:    doc.ID.String(),
				Number:     doc.Number,
				CustomerID: doc.CustomerID.String(),
				Status:     string(target),
				OldStatus:  string(from),
				Reason:     reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "customer order status changed",
		"id", doc.ID, "number", doc.Number, "status", doc.Status)
	return doc, nil
}

// Complete closes a fully delivered order.
func (s *Service) Complete(ctx context.Context, docID id.ID) (*CustomerOrder, error) {
	return s.Transition(ctx, docID, status.OrderCompleted, "")
}

func checkRequiredDateNotPast(required time.Time) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if required.Before(today) {
		return apperror.NewValidation("required delivery date is in the past").
			WithDetail("field", "requiredDate").
			WithDetail("value", required.Format("2006-01-02"))
	}
	return nil
}
