package planning

import (
	"context"
	"fmt"
	"time"

	"procura/internal/core/apperror"
	appctx "procura/internal/core/context"
	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/internal/core/tx"
	"procura/internal/core/types"
	"procura/internal/domain"
	"procura/internal/domain/audit"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/domain/distribution"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/registers/commitment"
	"procura/internal/domain/status"
	"procura/pkg/logger"
)

// Service orchestrates distribution plans over customer orders.
type Service struct {
	orders    customer_order.Repository
	pos       purchase_order.Repository
	poSvc     *purchase_order.Service
	plans     PlanRepository
	caps      supplier.CapabilityRepository
	suppliers supplier.Repository
	register  *commitment.Service
	engine    *distribution.Engine
	txManager tx.Manager
	trail     audit.Trail
	events    domain.EventPublisher
	flags     security.FeatureFlagProvider
}

// Config wires the planning service dependencies.
type Config struct {
	Orders               customer_order.Repository
	PurchaseOrders       purchase_order.Repository
	PurchaseOrderService *purchase_order.Service
	Plans                PlanRepository
	Capabilities         supplier.CapabilityRepository
	Suppliers            supplier.Repository
	Register             *commitment.Service
	Engine               *distribution.Engine
	TxManager            tx.Manager
	Trail                audit.Trail
	Events               domain.EventPublisher
	Flags                security.FeatureFlagProvider
}

// NewService creates the planning service.
func NewService(cfg Config) *Service {
	trail := cfg.Trail
	if trail == nil {
		trail = audit.NopTrail{}
	}
	return &Service{
		orders:    cfg.Orders,
		pos:       cfg.PurchaseOrders,
		poSvc:     cfg.PurchaseOrderService,
		plans:     cfg.Plans,
		caps:      cfg.Capabilities,
		suppliers: cfg.Suppliers,
		register:  cfg.Register,
		engine:    cfg.Engine,
		txManager: cfg.TxManager,
		trail:     trail,
		events:    cfg.Events,
		flags:     cfg.Flags,
	}
}

// Params configure one distribution run.
type Params struct {
	Strategy distribution.Strategy `json:"strategy"`

	// Weights default to the standard 0.40/0.35/0.25 split when nil
	Weights *distribution.Weights `json:"weights,omitempty"`

	// Rule is an optional CEL eligibility rule
	Rule string `json:"rule,omitempty"`

	// SendImmediately also moves the created POs to SentToSupplier
	SendImmediately bool `json:"sendImmediately"`
}

func (p Params) weights() distribution.Weights {
	if p.Weights != nil {
		return *p.Weights
	}
	return distribution.DefaultWeights()
}

// ExecuteResult is the outcome of plan execution.
type ExecuteResult struct {
	Plan           *Plan                           `json:"plan"`
	PurchaseOrders []*purchase_order.PurchaseOrder `json:"purchaseOrders"`
	Distribution   *distribution.Result            `json:"distribution"`
}

// Preview runs the distribution algorithm against live capability
// snapshots without persisting anything.
func (s *Service) Preview(ctx context.Context, orderID id.ID, params Params) (*distribution.Result, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != status.OrderCreated {
		return nil, apperror.NewBusinessRule("INVALID_STATUS", "Distribution requires an order in Created status").
			WithDetail("status", string(order.Status))
	}

	items, _, err := s.assembleItems(ctx, demandsFromOrder(order), order.RequiredDate, id.Nil())
	if err != nil {
		return nil, err
	}

	return s.engine.Distribute(ctx, distribution.Request{
		Strategy: params.Strategy,
		Weights:  params.weights(),
		Rule:     params.Rule,
		Items:    items,
	})
}

// Execute runs the distribution and persists the outcome: the plan, one
// purchase order per supplier, capacity commitments and the order
// status transition. Everything happens in one transaction.
func (s *Service) Execute(ctx context.Context, orderID id.ID, params Params) (*ExecuteResult, error) {
	var out *ExecuteResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != status.OrderCreated {
			return apperror.NewBusinessRule("INVALID_STATUS", "Distribution requires an order in Created status").
				WithDetail("status", string(order.Status))
		}
		lines, err := s.orders.GetLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		order.Lines = lines

		items, prices, err := s.assembleItems(ctx, demandsFromOrder(order), order.RequiredDate, id.Nil())
		if err != nil {
			return err
		}
		result, err := s.engine.Distribute(ctx, distribution.Request{
			Strategy: params.Strategy,
			Weights:  params.weights(),
			Rule:     params.Rule,
			Items:    items,
		})
		if err != nil {
			return err
		}

		created, bySupplier, err := s.createPurchaseOrders(ctx, order, result, prices)
		if err != nil {
			return err
		}

		plan := NewPlan(order.ID, order.Number, params.Strategy, params.weights(), params.Rule)
		plan.CreatedBy = appctx.GetUserID(ctx)
		plan.Allocations = planAllocations(plan.ID, result, bySupplier, false)
		if err := s.plans.Create(ctx, plan); err != nil {
			return fmt.Errorf("create plan: %w", err)
		}

		if err := s.trail.LogChange(ctx, "DistributionPlan", plan.ID, audit.ActionDistribute, map[string]any{
			"orderId":        order.ID.String(),
			"orderNumber":    order.Number,
			"strategy":       string(params.Strategy),
			"purchaseOrders": len(created),
			"allocations":    len(plan.Allocations),
		}); err != nil {
			return fmt.Errorf("audit: %w", err)
		}

		from := order.Status
		order.Status = status.OrderPurchaseOrdersCreated
		if err := s.orders.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.trail.LogStatusChange(ctx, "CustomerOrder", order.ID, string(from), string(order.Status), ""); err != nil {
			return fmt.Errorf("audit: %w", err)
		}

		events := []domain.Event{
			{
				AggregateType: "DistributionPlan",
				AggregateID:   plan.ID,
				Type:          domain.EventPlanExecuted,
				Payload: domain.PlanEventPayload{
					PlanID:      plan.ID.String(),
					OrderID:     order.ID.String(),
					OrderNumber: order.Number,
					Strategy:    string(params.Strategy),
					Allocations: len(plan.Allocations),
					Sent:        params.SendImmediately,
				},
			},
			{
				AggregateType: "CustomerOrder",
				AggregateID:   order.ID,
				Type:          domain.EventOrderStatusChanged,
				Payload: domain.OrderEventPayload{
					OrderID:    order.ID.String(),
					Number:     order.Number,
					CustomerID: order.CustomerID.String(),
					Status:     string(order.Status),
					OldStatus:  string(from),
				},
			},
		}
		if err := s.events.PublishBatch(ctx, events); err != nil {
			return fmt.Errorf("publish events: %w", err)
		}

		if params.SendImmediately {
			sent := make([]*purchase_order.PurchaseOrder, 0, len(created))
			for _, po := range created {
				updated, err := s.poSvc.Send(ctx, po.ID)
				if err != nil {
					return fmt.Errorf("send %s: %w", po.Number, err)
				}
				updated.Items = po.Items
				sent = append(sent, updated)
			}
			created = sent
		}

		out = &ExecuteResult{
			Plan:           plan,
			PurchaseOrders: created,
			Distribution:   result,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "distribution executed",
		"order_id", orderID,
		"plan_id", out.Plan.ID,
		"purchase_orders", len(out.PurchaseOrders),
		"strategy", out.Plan.Strategy,
	)
	return out, nil
}

// SendToSupplier moves one purchase order to SentToSupplier.
func (s *Service) SendToSupplier(ctx context.Context, poID id.ID) (*purchase_order.PurchaseOrder, error) {
	return s.poSvc.Send(ctx, poID)
}

// SendAll sends every still unsent purchase order of an order.
func (s *Service) SendAll(ctx context.Context, orderID id.ID) ([]*purchase_order.PurchaseOrder, error) {
	var sent []*purchase_order.PurchaseOrder
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		pos, err := s.pos.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, po := range pos {
			if po.Status != status.POCreated {
				continue
			}
			updated, err := s.poSvc.Send(ctx, po.ID)
			if err != nil {
				return fmt.Errorf("send %s: %w", po.Number, err)
			}
			sent = append(sent, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sent, nil
}

// GetPlan returns a plan with its allocations.
func (s *Service) GetPlan(ctx context.Context, planID id.ID) (*Plan, error) {
	return s.plans.GetByID(ctx, planID)
}

// ListPlans returns the plan history of an order, newest first.
func (s *Service) ListPlans(ctx context.Context, orderID id.ID) ([]*Plan, error) {
	return s.plans.ListByOrder(ctx, orderID)
}

// --- assembly helpers ---

type demand struct {
	productID id.ID
	quantity  types.Quantity
}

func demandsFromOrder(order *customer_order.CustomerOrder) []demand {
	out := make([]demand, 0, len(order.Lines))
	for _, line := range order.Lines {
		out = append(out, demand{productID: line.ProductID, quantity: line.Quantity})
	}
	return out
}

func demandsFromPurchaseOrder(po *purchase_order.PurchaseOrder) []demand {
	out := make([]demand, 0, len(po.Items))
	for _, item := range po.Items {
		out = append(out, demand{productID: item.ProductID, quantity: item.Quantity})
	}
	return out
}

// assembleItems builds engine input from live capabilities, supplier
// state and the commitment register. exclude removes one supplier from
// the candidate pool (the rejecting supplier on redistribution).
func (s *Service) assembleItems(ctx context.Context, demands []demand, period time.Time, exclude id.ID) ([]distribution.Item, map[id.ID]map[id.ID]types.MinorUnits, error) {
	capsByProduct := make(map[id.ID][]*supplier.Capability, len(demands))
	supplierIDs := make(map[id.ID]bool)
	for _, d := range demands {
		caps, err := s.caps.ListByProduct(ctx, d.productID)
		if err != nil {
			return nil, nil, fmt.Errorf("list capabilities: %w", err)
		}
		capsByProduct[d.productID] = caps
		for _, c := range caps {
			if c.SupplierID != exclude {
				supplierIDs[c.SupplierID] = true
			}
		}
	}

	supMap, err := s.loadSuppliers(ctx, supplierIDs)
	if err != nil {
		return nil, nil, err
	}

	items := make([]distribution.Item, 0, len(demands))
	prices := make(map[id.ID]map[id.ID]types.MinorUnits, len(demands))
	for _, d := range demands {
		committed, err := s.register.CommittedByProduct(ctx, d.productID, period)
		if err != nil {
			return nil, nil, fmt.Errorf("committed by product: %w", err)
		}

		caps := capsByProduct[d.productID]
		cands := make([]distribution.SupplierSnapshot, 0, len(caps))
		prices[d.productID] = make(map[id.ID]types.MinorUnits, len(caps))
		for _, cap := range caps {
			if cap.SupplierID == exclude {
				continue
			}
			sup := supMap[cap.SupplierID]
			if sup == nil {
				continue
			}
			cands = append(cands, distribution.SupplierSnapshot{
				SupplierID: cap.SupplierID,
				Code:       sup.Code,
				Name:       sup.Name,
				Preferred:  sup.Preferred,
				Active:     sup.Active && !sup.DeletionMark,
				Capability: *cap,
				Committed:  committed[cap.SupplierID],
			})
			prices[d.productID][cap.SupplierID] = cap.UnitPrice
		}

		items = append(items, distribution.Item{
			ProductID:  d.productID,
			Quantity:   d.quantity,
			Period:     period,
			Candidates: cands,
		})
	}
	return items, prices, nil
}

func (s *Service) loadSuppliers(ctx context.Context, ids map[id.ID]bool) (map[id.ID]*supplier.Supplier, error) {
	if len(ids) == 0 {
		return map[id.ID]*supplier.Supplier{}, nil
	}

	list := make([]id.ID, 0, len(ids))
	for sid := range ids {
		list = append(list, sid)
	}
	res, err := s.suppliers.List(ctx, domain.ListFilter{IDs: list, Limit: len(list)})
	if err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}

	out := make(map[id.ID]*supplier.Supplier, len(res.Items))
	for _, sup := range res.Items {
		out[sup.ID] = sup
	}
	return out, nil
}

// createPurchaseOrders builds one purchase order per supplier, merging
// the supplier's allocations across order lines, and records capacity
// commitments for every item.
func (s *Service) createPurchaseOrders(
	ctx context.Context,
	order *customer_order.CustomerOrder,
	result *distribution.Result,
	prices map[id.ID]map[id.ID]types.MinorUnits,
) ([]*purchase_order.PurchaseOrder, map[id.ID]*purchase_order.PurchaseOrder, error) {
	bySupplier := make(map[id.ID]*purchase_order.PurchaseOrder)
	for _, supplierID := range result.Suppliers() {
		po := purchase_order.NewPurchaseOrder(order.ID, supplierID)
		po.OrderNumber = order.Number
		po.RequiredDate = order.RequiredDate
		bySupplier[supplierID] = po
	}
	for _, ir := range result.Items {
		for _, alloc := range ir.Allocations {
			po := bySupplier[alloc.SupplierID]
			po.AddItem(ir.ProductID, alloc.Quantity, prices[ir.ProductID][alloc.SupplierID])
		}
	}

	created := make([]*purchase_order.PurchaseOrder, 0, len(bySupplier))
	for _, supplierID := range result.Suppliers() {
		po := bySupplier[supplierID]
		if err := s.poSvc.Create(ctx, po); err != nil {
			return nil, nil, err
		}
		if err := s.register.Commit(ctx, commitMovements(po)); err != nil {
			return nil, nil, err
		}
		created = append(created, po)
	}
	return created, bySupplier, nil
}

// commitMovements derives register movements from purchase order items.
// The month bucket follows the item delivery date when set, otherwise
// the header required date.
func commitMovements(po *purchase_order.PurchaseOrder) []entity.CommitmentMovement {
	out := make([]entity.CommitmentMovement, 0, len(po.Items))
	for _, item := range po.Items {
		period := po.RequiredDate
		if item.DeliveryDate != nil {
			period = *item.DeliveryDate
		}
		out = append(out, entity.NewCommitmentMovement(
			po.ID,
			"PurchaseOrder",
			period,
			entity.RecordTypeCommit,
			po.SupplierID,
			item.ProductID,
			item.Quantity,
		))
	}
	return out
}

func planAllocations(planID id.ID, result *distribution.Result, bySupplier map[id.ID]*purchase_order.PurchaseOrder, redistribution bool) []PlanAllocation {
	now := time.Now().UTC()
	var out []PlanAllocation
	for _, ir := range result.Items {
		for _, a := range ir.Allocations {
			out = append(out, PlanAllocation{
				ID:              id.New(),
				PlanID:          planID,
				ProductID:       ir.ProductID,
				SupplierID:      a.SupplierID,
				Quantity:        a.Quantity,
				Score:           a.Score,
				Share:           a.Share,
				PurchaseOrderID: bySupplier[a.SupplierID].ID,
				Redistribution:  redistribution,
				CreatedAt:       now,
			})
		}
	}
	return out
}

func (s *Service) loadOrder(ctx context.Context, orderID id.ID) (*customer_order.CustomerOrder, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.GetLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	order.Lines = lines
	return order, nil
}
