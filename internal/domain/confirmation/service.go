// Package confirmation is the supplier-portal surface for purchase
// orders: confirming, rejecting and reporting fulfilment progress.
package confirmation

import (
	"context"
	"fmt"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/internal/core/tx"
	"procura/internal/core/types"
	"procura/internal/domain"
	"procura/internal/domain/audit"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/status"
	"procura/pkg/logger"
)

// PlanReactor reacts to supplier decisions inside the confirmation
// transaction. The planning service implements it: confirmations and
// progress updates re-derive the customer order status, rejections
// additionally release commitments and attempt redistribution.
type PlanReactor interface {
	HandleSupplierConfirmation(ctx context.Context, po *purchase_order.PurchaseOrder) error
	HandleSupplierRejection(ctx context.Context, po *purchase_order.PurchaseOrder) error
}

// Service handles supplier decisions on purchase orders.
type Service struct {
	repo      purchase_order.Repository
	policy    security.DeliveryPolicy
	reactor   PlanReactor
	txManager tx.Manager
	trail     audit.Trail
	events    domain.EventPublisher
}

// NewService creates the confirmation service.
func NewService(
	repo purchase_order.Repository,
	policy security.DeliveryPolicy,
	reactor PlanReactor,
	txManager tx.Manager,
	trail audit.Trail,
	events domain.EventPublisher,
) *Service {
	if trail == nil {
		trail = audit.NopTrail{}
	}
	return &Service{
		repo:      repo,
		policy:    policy,
		reactor:   reactor,
		txManager: txManager,
		trail:     trail,
		events:    events,
	}
}

// openStatuses are the purchase order states a supplier works with.
var openStatuses = []status.PurchaseOrderStatus{
	status.POSentToSupplier,
	status.POConfirmed,
	status.POInProduction,
	status.POReadyForShipment,
}

// ListOpen returns the purchase orders awaiting supplier action.
// Supplier-bound users are forced onto their own orders.
func (s *Service) ListOpen(ctx context.Context, filter purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	sc := security.GetScope(ctx)
	if sc.SupplierID != "" {
		sid, err := id.Parse(sc.SupplierID)
		if err != nil {
			return domain.ListResult[*purchase_order.PurchaseOrder]{}, apperror.NewForbidden("invalid supplier binding")
		}
		filter.SupplierID = &sid
	}
	if filter.Status == nil && len(filter.Statuses) == 0 {
		filter.Statuses = openStatuses
	}
	return s.repo.List(ctx, filter)
}

// ItemConfirmation adjusts one purchase order item during confirmation.
type ItemConfirmation struct {
	LineID            id.ID           `json:"lineId"`
	ConfirmedQuantity *types.Quantity `json:"confirmedQuantity,omitempty"`
	DeliveryDate      *time.Time      `json:"deliveryDate,omitempty"`
}

// ConfirmParams carry the supplier's confirmation.
type ConfirmParams struct {
	// DeliveryDate is the supplier-confirmed delivery date
	DeliveryDate time.Time `json:"deliveryDate"`

	// Items optionally adjusts per-item quantities and dates
	Items []ItemConfirmation `json:"items,omitempty"`
}

// ConfirmResult is the confirmed purchase order plus the late flag.
type ConfirmResult struct {
	PurchaseOrder *purchase_order.PurchaseOrder `json:"purchaseOrder"`

	// Late marks a confirmed date past the required date (accepted
	// under a grace policy)
	Late bool `json:"late"`
}

// Confirm accepts a purchase order on behalf of the supplier. Every
// delivery date is validated against the required date under the
// delivery policy. The planning reactor re-derives the customer order
// status in the same transaction.
func (s *Service) Confirm(ctx context.Context, poID id.ID, params ConfirmParams) (*ConfirmResult, error) {
	if params.DeliveryDate.IsZero() {
		return nil, apperror.NewValidation("confirmed delivery date is required").
			WithDetail("field", "deliveryDate")
	}

	var out *ConfirmResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.load(ctx, poID)
		if err != nil {
			return err
		}
		from := po.Status
		if err := status.PurchaseOrders.Validate(string(from), string(status.POConfirmed)); err != nil {
			return err
		}
		if err := s.policy.CanConfirm(ctx, params.DeliveryDate, po.RequiredDate); err != nil {
			return err
		}
		if err := s.applyItemChanges(ctx, po, params.Items); err != nil {
			return err
		}

		now := time.Now().UTC()
		confirmed := params.DeliveryDate
		po.Status = status.POConfirmed
		po.ConfirmedDate = &confirmed
		po.ConfirmedAt = &now
		if err := s.repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveItems(ctx, po.ID, po.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		if err := s.trail.LogStatusChange(ctx, "PurchaseOrder", po.ID, string(from), string(po.Status), ""); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "PurchaseOrder",
			AggregateID:   po.ID,
			Type:          domain.EventPOConfirmed,
			Payload:       purchase_order.EventPayload(po, ""),
		}); err != nil {
			return fmt.Errorf("publish event: %w", err)
		}
		if err := s.reactor.HandleSupplierConfirmation(ctx, po); err != nil {
			return err
		}

		out = &ConfirmResult{
			PurchaseOrder: po,
			Late:          s.policy.IsLate(confirmed, po.RequiredDate),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order confirmed",
		"id", out.PurchaseOrder.ID,
		"number", out.PurchaseOrder.Number,
		"late", out.Late,
	)
	return out, nil
}

// Reject declines a purchase order on behalf of the supplier. The
// planning reactor releases commitments and attempts redistribution in
// the same transaction.
func (s *Service) Reject(ctx context.Context, poID id.ID, reason string) (*purchase_order.PurchaseOrder, error) {
	if reason == "" {
		return nil, apperror.NewValidation("rejection reason is required").
			WithDetail("field", "reason")
	}

	var out *purchase_order.PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.load(ctx, poID)
		if err != nil {
			return err
		}
		from := po.Status
		if err := status.PurchaseOrders.Validate(string(from), string(status.PORejected)); err != nil {
			return err
		}

		po.Status = status.PORejected
		po.StatusReason = reason
		if err := s.repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		if err := s.trail.LogStatusChange(ctx, "PurchaseOrder", po.ID, string(from), string(po.Status), reason); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		if err := s.events.Publish(ctx, domain.Event{
			AggregateType: "PurchaseOrder",
			AggregateID:   po.ID,
			Type:          domain.EventPORejected,
			Payload:       purchase_order.EventPayload(po, reason),
		}); err != nil {
			return fmt.Errorf("publish event: %w", err)
		}
		if err := s.reactor.HandleSupplierRejection(ctx, po); err != nil {
			return err
		}

		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order rejected",
		"id", out.ID, "number", out.Number, "reason", reason)
	return out, nil
}

// UpdateItems adjusts confirmed quantities and per-item delivery dates
// while the order is still awaiting the supplier's decision.
func (s *Service) UpdateItems(ctx context.Context, poID id.ID, updates []ItemConfirmation) (*purchase_order.PurchaseOrder, error) {
	if len(updates) == 0 {
		return nil, apperror.NewValidation("no item updates given")
	}

	var out *purchase_order.PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.load(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status != status.POSentToSupplier {
			return apperror.NewBusinessRule("INVALID_STATUS", "Items can only be adjusted while the order awaits confirmation").
				WithDetail("status", string(po.Status))
		}
		if err := s.applyItemChanges(ctx, po, updates); err != nil {
			return err
		}
		if err := s.repo.SaveItems(ctx, po.ID, po.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		lineIDs := make([]string, 0, len(updates))
		for _, u := range updates {
			lineIDs = append(lineIDs, u.LineID.String())
		}
		if err := s.trail.LogChange(ctx, "PurchaseOrder", po.ID, audit.ActionUpdate, map[string]any{
			"lines": lineIDs,
		}); err != nil {
			return fmt.Errorf("audit: %w", err)
		}

		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// progressTargets are the stages a supplier may report.
var progressTargets = map[status.PurchaseOrderStatus]bool{
	status.POInProduction:     true,
	status.POReadyForShipment: true,
	status.POShipped:          true,
}

// UpdateProgress advances a confirmed purchase order through the
// fulfilment stages. Delivery itself is recorded by planners on
// receipt, not by the supplier.
func (s *Service) UpdateProgress(ctx context.Context, poID id.ID, target status.PurchaseOrderStatus) (*purchase_order.PurchaseOrder, error) {
	if !progressTargets[target] {
		return nil, apperror.NewValidation("target is not a supplier progress stage").
			WithDetail("status", string(target))
	}

	var out *purchase_order.PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.load(ctx, poID)
		if err != nil {
			return err
		}
		from := po.Status
		if err := status.PurchaseOrders.Validate(string(from), string(target)); err != nil {
			return err
		}

		po.Status = target
		if err := s.repo.Update(ctx, po); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.trail.LogStatusChange(ctx, "PurchaseOrder", po.ID, string(from), string(target), ""); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		if err := s.reactor.HandleSupplierConfirmation(ctx, po); err != nil {
			return err
		}

		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order progress updated",
		"id", out.ID, "number", out.Number, "status", out.Status)
	return out, nil
}

// load fetches the purchase order with items under lock and enforces
// the supplier binding.
func (s *Service) load(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error) {
	po, err := s.repo.GetForUpdate(ctx, poID)
	if err != nil {
		return nil, err
	}
	sc := security.GetScope(ctx)
	if sc.SupplierID != "" {
		if err := sc.RequireSupplier(po.SupplierID.String()); err != nil {
			return nil, err
		}
	}
	items, err := s.repo.GetItems(ctx, poID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	po.Items = items
	return po, nil
}

// applyItemChanges validates and applies per-item adjustments.
func (s *Service) applyItemChanges(ctx context.Context, po *purchase_order.PurchaseOrder, updates []ItemConfirmation) error {
	for _, u := range updates {
		item := po.ItemByLine(u.LineID)
		if item == nil {
			return apperror.NewValidation("unknown purchase order item").
				WithDetail("lineId", u.LineID)
		}
		if u.ConfirmedQuantity != nil {
			q := *u.ConfirmedQuantity
			if !q.IsPositive() {
				return apperror.NewValidation("confirmed quantity must be positive").
					WithDetail("lineId", u.LineID)
			}
			if q > item.Quantity {
				return apperror.NewValidation("confirmed quantity exceeds ordered quantity").
					WithDetail("lineId", u.LineID).
					WithDetail("ordered", item.Quantity).
					WithDetail("confirmed", q)
			}
			item.ConfirmedQuantity = q
		}
		if u.DeliveryDate != nil {
			if err := s.policy.CanConfirm(ctx, *u.DeliveryDate, po.RequiredDate); err != nil {
				return err
			}
			item.DeliveryDate = u.DeliveryDate
		}
	}
	return nil
}
