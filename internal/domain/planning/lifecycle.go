package planning

import (
	"context"
	"fmt"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/internal/domain"
	"procura/internal/domain/audit"
	"procura/internal/domain/distribution"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/status"
	"procura/pkg/logger"
)

// HandleSupplierConfirmation reacts to a confirmed purchase order by
// rederiving the customer order status from its live purchase orders.
// The caller runs it inside the confirmation transaction.
func (s *Service) HandleSupplierConfirmation(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	return s.rederiveOrderStatus(ctx, po.OrderID)
}

// HandleSupplierRejection releases the rejected supplier's capacity
// commitments and, when auto redistribution is enabled, reallocates
// the rejected quantities across the remaining suppliers. A capacity
// shortfall downgrades redistribution to a warning so the rejection
// itself still lands.
func (s *Service) HandleSupplierRejection(ctx context.Context, po *purchase_order.PurchaseOrder) error {
	if err := s.register.Release(ctx, po.ID, "PurchaseOrder"); err != nil {
		return fmt.Errorf("release commitments: %w", err)
	}

	if s.autoRedistribute(ctx) {
		if err := s.redistribute(ctx, po); err != nil {
			if !isCapacityShortfall(err) {
				return err
			}
			logger.Warn(ctx, "redistribution skipped, remaining suppliers cannot absorb the quantity",
				"purchase_order", po.Number,
				"order_id", po.OrderID,
				"reason", err.Error(),
			)
			if auditErr := s.trail.LogChange(ctx, "PurchaseOrder", po.ID, audit.ActionRedistribute, map[string]any{
				"orderId": po.OrderID.String(),
				"number":  po.Number,
				"skipped": true,
				"reason":  err.Error(),
			}); auditErr != nil {
				return fmt.Errorf("audit: %w", auditErr)
			}
		}
	}

	return s.rederiveOrderStatus(ctx, po.OrderID)
}

func (s *Service) autoRedistribute(ctx context.Context) bool {
	if s.flags == nil {
		return true
	}
	return s.flags.IsEnabled(ctx, security.FlagAutoRedistribute)
}

func isCapacityShortfall(err error) bool {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return false
	}
	return appErr.Code == apperror.CodeInsufficientCapacity || appErr.Code == apperror.CodeValidation
}

// redistribute reallocates a rejected purchase order's quantities
// across the remaining suppliers, reusing the parameters of the most
// recent plan for the order. New purchase orders are created and sent
// right away, and their allocations are appended to the plan marked
// as redistribution rows.
func (s *Service) redistribute(ctx context.Context, rejected *purchase_order.PurchaseOrder) error {
	order, err := s.orders.GetByID(ctx, rejected.OrderID)
	if err != nil {
		return err
	}

	strategy := distribution.StrategyBalanced
	weights := distribution.DefaultWeights()
	rule := ""
	plan, err := s.plans.GetLatestByOrder(ctx, rejected.OrderID)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if plan != nil {
		strategy = plan.Strategy
		weights = plan.Weights()
		rule = plan.Rule
	}

	items, prices, err := s.assembleItems(ctx, demandsFromPurchaseOrder(rejected), order.RequiredDate, rejected.SupplierID)
	if err != nil {
		return err
	}
	result, err := s.engine.Distribute(ctx, distribution.Request{
		Strategy: strategy,
		Weights:  weights,
		Rule:     rule,
		Items:    items,
	})
	if err != nil {
		return err
	}

	created, bySupplier, err := s.createPurchaseOrders(ctx, order, result, prices)
	if err != nil {
		return err
	}
	for _, po := range created {
		if _, err := s.poSvc.Send(ctx, po.ID); err != nil {
			return fmt.Errorf("send %s: %w", po.Number, err)
		}
	}

	if plan != nil {
		allocs := planAllocations(plan.ID, result, bySupplier, true)
		if err := s.plans.AppendAllocations(ctx, plan.ID, allocs); err != nil {
			return fmt.Errorf("append allocations: %w", err)
		}
	}

	if err := s.trail.LogChange(ctx, "PurchaseOrder", rejected.ID, audit.ActionRedistribute, map[string]any{
		"orderId":        rejected.OrderID.String(),
		"number":         rejected.Number,
		"purchaseOrders": len(created),
	}); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	logger.Info(ctx, "rejected quantities redistributed",
		"purchase_order", rejected.Number,
		"order_id", rejected.OrderID,
		"new_purchase_orders", len(created),
	)
	return nil
}

// rederiveOrderStatus recomputes the customer order status from the
// statuses of its active purchase orders. An unreachable target is
// left alone and logged rather than forced.
func (s *Service) rederiveOrderStatus(ctx context.Context, orderID id.ID) error {
	order, err := s.orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status.IsTerminal() {
		return nil
	}

	pos, err := s.pos.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	var active []status.PurchaseOrderStatus
	for _, po := range pos {
		if po.Status.IsActive() {
			active = append(active, po.Status)
		}
	}

	target := status.DeriveOrderStatus(active)
	if target == order.Status {
		return nil
	}
	if status.CustomerOrders.Path(string(order.Status), string(target)) == nil {
		logger.Warn(ctx, "derived order status unreachable, keeping current",
			"order_id", orderID,
			"current", order.Status,
			"derived", target,
		)
		return nil
	}

	from := order.Status
	order.Status = target
	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if err := s.trail.LogStatusChange(ctx, "CustomerOrder", order.ID, string(from), string(target), "derived from purchase orders"); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return s.events.Publish(ctx, domain.Event{
		AggregateType: "CustomerOrder",
		AggregateID:   order.ID,
		Type:          domain.EventOrderStatusChanged,
		Payload: domain.OrderEventPayload{
			OrderID:    order.ID.String(),
			Number:     order.Number,
			CustomerID: order.CustomerID.String(),
			Status:     string(target),
			OldStatus:  string(from),
			Reason:     "derived from purchase orders",
		},
	})
}

// CancelPurchaseOrder cancels one purchase order, releases its
// capacity commitments and rederives the customer order status.
func (s *Service) CancelPurchaseOrder(ctx context.Context, poID id.ID, reason string) (*purchase_order.PurchaseOrder, error) {
	var out *purchase_order.PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := s.pos.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if err := s.cancelPO(ctx, po, reason); err != nil {
			return err
		}
		if err := s.rederiveOrderStatus(ctx, po.OrderID); err != nil {
			return err
		}
		out = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CancelOrder cancels a customer order together with every active
// purchase order. Purchase orders already in production require force
// (a planner decision), and shipped ones block cancellation entirely.
func (s *Service) CancelOrder(ctx context.Context, orderID id.ID, reason string, force bool) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := status.CustomerOrders.Validate(string(order.Status), string(status.OrderCancelled)); err != nil {
			return err
		}

		pos, err := s.pos.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, po := range pos {
			if !po.Status.IsActive() {
				continue
			}
			if !po.Status.CanCancel() {
				return apperror.NewBusinessRule("CANNOT_CANCEL", "Order has purchase orders past the point of cancellation").
					WithDetail("purchaseOrder", po.Number).
					WithDetail("status", string(po.Status))
			}
			if !force && po.Status.AtLeast(status.POInProduction) {
				return apperror.NewBusinessRule("CANNOT_CANCEL", "Order has purchase orders in production, cancellation requires force").
					WithDetail("purchaseOrder", po.Number).
					WithDetail("status", string(po.Status))
			}
		}
		for _, po := range pos {
			if !po.Status.IsActive() {
				continue
			}
			if err := s.cancelPO(ctx, po, reason); err != nil {
				return err
			}
		}

		from := order.Status
		order.Status = status.OrderCancelled
		order.StatusReason = reason
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.trail.LogStatusChange(ctx, "CustomerOrder", order.ID, string(from), string(order.Status), reason); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.events.Publish(ctx, domain.Event{
			AggregateType: "CustomerOrder",
			AggregateID:   order.ID,
			Type:          domain.EventOrderCancelled,
			Payload: domain.OrderEventPayload{
				OrderID:    order.ID.String(),
				Number:     order.Number,
				CustomerID: order.CustomerID.String(),
				Status:     string(order.Status),
				OldStatus:  string(from),
				Reason:     reason,
			},
		})
	})
}

// cancelPO transitions one purchase order to Cancelled and releases
// its commitments. The caller owns the transaction.
func (s *Service) cancelPO(ctx context.Context, po *purchase_order.PurchaseOrder, reason string) error {
	if err := status.PurchaseOrders.Validate(string(po.Status), string(status.POCancelled)); err != nil {
		return err
	}

	from := po.Status
	po.Status = status.POCancelled
	po.StatusReason = reason
	if err := s.pos.Update(ctx, po); err != nil {
		return fmt.Errorf("update %s: %w", po.Number, err)
	}
	if err := s.register.Release(ctx, po.ID, "PurchaseOrder"); err != nil {
		return fmt.Errorf("release commitments: %w", err)
	}
	if err := s.trail.LogStatusChange(ctx, "PurchaseOrder", po.ID, string(from), string(po.Status), reason); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return s.events.Publish(ctx, domain.Event{
		AggregateType: "PurchaseOrder",
		AggregateID:   po.ID,
		Type:          domain.EventPOCancelled,
		Payload:       purchase_order.EventPayload(po, reason),
	})
}
