package planning

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/numerator"
	"procura/internal/core/types"
	"procura/internal/domain"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/domain/distribution"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/registers/commitment"
	"procura/internal/domain/status"
)

// --- fakes ---

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type seqNumerator struct{ n int }

func (g *seqNumerator) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	g.n++
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), g.n), nil
}

func (g *seqNumerator) SetNextNumber(context.Context, numerator.Config, time.Time, int64) error {
	return nil
}

type eventLog struct{ events []domain.Event }

func (l *eventLog) Publish(_ context.Context, e domain.Event) error {
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) PublishBatch(_ context.Context, es []domain.Event) error {
	l.events = append(l.events, es...)
	return nil
}

func (l *eventLog) countByType(t string) int {
	n := 0
	for _, e := range l.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type orderStore struct {
	orders map[id.ID]*customer_order.CustomerOrder
	lines  map[id.ID][]customer_order.OrderLine
}

func newOrderStore() *orderStore {
	return &orderStore{
		orders: map[id.ID]*customer_order.CustomerOrder{},
		lines:  map[id.ID][]customer_order.OrderLine{},
	}
}

func (s *orderStore) add(o *customer_order.CustomerOrder) {
	s.orders[o.ID] = o
	s.lines[o.ID] = o.Lines
}

func (s *orderStore) Create(_ context.Context, doc *customer_order.CustomerOrder) error {
	s.orders[doc.ID] = doc
	return nil
}

func (s *orderStore) GetByID(_ context.Context, docID id.ID) (*customer_order.CustomerOrder, error) {
	doc, ok := s.orders[docID]
	if !ok {
		return nil, apperror.NewNotFound("CustomerOrder", docID)
	}
	return doc, nil
}

func (s *orderStore) GetByNumber(_ context.Context, number string) (*customer_order.CustomerOrder, error) {
	for _, doc := range s.orders {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("CustomerOrder", number)
}

func (s *orderStore) Update(_ context.Context, doc *customer_order.CustomerOrder) error {
	s.orders[doc.ID] = doc
	return nil
}

func (s *orderStore) Delete(_ context.Context, docID id.ID) error {
	delete(s.orders, docID)
	return nil
}

func (s *orderStore) GetLines(_ context.Context, docID id.ID) ([]customer_order.OrderLine, error) {
	return s.lines[docID], nil
}

func (s *orderStore) SaveLines(_ context.Context, docID id.ID, lines []customer_order.OrderLine) error {
	s.lines[docID] = lines
	return nil
}

func (s *orderStore) List(context.Context, customer_order.ListFilter) (domain.ListResult[*customer_order.CustomerOrder], error) {
	return domain.ListResult[*customer_order.CustomerOrder]{}, nil
}

func (s *orderStore) GetForUpdate(ctx context.Context, docID id.ID) (*customer_order.CustomerOrder, error) {
	return s.GetByID(ctx, docID)
}

type poStore struct {
	pos   map[id.ID]*purchase_order.PurchaseOrder
	items map[id.ID][]purchase_order.PurchaseOrderItem
}

func newPOStore() *poStore {
	return &poStore{
		pos:   map[id.ID]*purchase_order.PurchaseOrder{},
		items: map[id.ID][]purchase_order.PurchaseOrderItem{},
	}
}

func (s *poStore) Create(_ context.Context, doc *purchase_order.PurchaseOrder) error {
	s.pos[doc.ID] = doc
	return nil
}

func (s *poStore) GetByID(_ context.Context, docID id.ID) (*purchase_order.PurchaseOrder, error) {
	doc, ok := s.pos[docID]
	if !ok {
		return nil, apperror.NewNotFound("PurchaseOrder", docID)
	}
	return doc, nil
}

func (s *poStore) GetByNumber(_ context.Context, number string) (*purchase_order.PurchaseOrder, error) {
	for _, doc := range s.pos {
		if doc.Number == number {
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("PurchaseOrder", number)
}

func (s *poStore) Update(_ context.Context, doc *purchase_order.PurchaseOrder) error {
	s.pos[doc.ID] = doc
	return nil
}

func (s *poStore) Delete(_ context.Context, docID id.ID) error {
	delete(s.pos, docID)
	return nil
}

func (s *poStore) GetItems(_ context.Context, docID id.ID) ([]purchase_order.PurchaseOrderItem, error) {
	return s.items[docID], nil
}

func (s *poStore) SaveItems(_ context.Context, docID id.ID, items []purchase_order.PurchaseOrderItem) error {
	s.items[docID] = items
	return nil
}

func (s *poStore) List(context.Context, purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	return domain.ListResult[*purchase_order.PurchaseOrder]{}, nil
}

func (s *poStore) GetForUpdate(ctx context.Context, docID id.ID) (*purchase_order.PurchaseOrder, error) {
	return s.GetByID(ctx, docID)
}

func (s *poStore) ListByOrder(_ context.Context, orderID id.ID) ([]*purchase_order.PurchaseOrder, error) {
	var out []*purchase_order.PurchaseOrder
	for _, doc := range s.pos {
		if doc.OrderID == orderID {
			doc.Items = s.items[doc.ID]
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *poStore) bySupplier(supplierID id.ID) *purchase_order.PurchaseOrder {
	var found *purchase_order.PurchaseOrder
	for _, doc := range s.pos {
		if doc.SupplierID != supplierID {
			continue
		}
		if found == nil || doc.Number < found.Number {
			found = doc
		}
	}
	if found != nil {
		found.Items = s.items[found.ID]
	}
	return found
}

type planStore struct {
	plans map[id.ID]*Plan
	order []id.ID
}

func newPlanStore() *planStore {
	return &planStore{plans: map[id.ID]*Plan{}}
}

func (s *planStore) Create(_ context.Context, p *Plan) error {
	s.plans[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *planStore) GetByID(_ context.Context, planID id.ID) (*Plan, error) {
	p, ok := s.plans[planID]
	if !ok {
		return nil, apperror.NewNotFound("DistributionPlan", planID)
	}
	return p, nil
}

func (s *planStore) GetLatestByOrder(_ context.Context, orderID id.ID) (*Plan, error) {
	for i := len(s.order) - 1; i >= 0; i-- {
		if p := s.plans[s.order[i]]; p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, apperror.NewNotFound("DistributionPlan", orderID)
}

func (s *planStore) ListByOrder(_ context.Context, orderID id.ID) ([]*Plan, error) {
	var out []*Plan
	for i := len(s.order) - 1; i >= 0; i-- {
		if p := s.plans[s.order[i]]; p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *planStore) AppendAllocations(_ context.Context, planID id.ID, allocs []PlanAllocation) error {
	p, ok := s.plans[planID]
	if !ok {
		return apperror.NewNotFound("DistributionPlan", planID)
	}
	p.Allocations = append(p.Allocations, allocs...)
	return nil
}

type capStore struct {
	supplier.CapabilityRepository
	byProduct map[id.ID][]*supplier.Capability
}

func (s *capStore) ListByProduct(_ context.Context, productID id.ID) ([]*supplier.Capability, error) {
	return s.byProduct[productID], nil
}

type supplierStore struct {
	supplier.Repository
	byID map[id.ID]*supplier.Supplier
}

func (s *supplierStore) List(_ context.Context, f domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	var res domain.ListResult[*supplier.Supplier]
	for _, sid := range f.IDs {
		if sup, ok := s.byID[sid]; ok {
			res.Items = append(res.Items, sup)
		}
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

type movementStore struct {
	commitment.Repository
	movements []entity.CommitmentMovement
}

func (s *movementStore) CreateMovements(_ context.Context, ms []entity.CommitmentMovement) error {
	s.movements = append(s.movements, ms...)
	return nil
}

func (s *movementStore) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.CommitmentMovement, error) {
	var out []entity.CommitmentMovement
	for _, m := range s.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *movementStore) NetByRecorder(_ context.Context, recorderID id.ID) ([]commitment.NetPosition, error) {
	type cell struct {
		sup, prod id.ID
		period    time.Time
	}
	net := map[cell]types.Quantity{}
	var keys []cell
	for _, m := range s.movements {
		if m.RecorderID != recorderID {
			continue
		}
		k := cell{m.SupplierID, m.ProductID, m.Period}
		if _, ok := net[k]; !ok {
			keys = append(keys, k)
		}
		net[k] += m.SignedQuantity()
	}
	out := make([]commitment.NetPosition, 0, len(keys))
	for _, k := range keys {
		out = append(out, commitment.NetPosition{
			SupplierID: k.sup,
			ProductID:  k.prod,
			Period:     k.period,
			Quantity:   net[k],
		})
	}
	return out, nil
}

func (s *movementStore) CommittedByProduct(_ context.Context, productID id.ID, period time.Time) (map[id.ID]types.Quantity, error) {
	out := map[id.ID]types.Quantity{}
	for _, m := range s.movements {
		if m.ProductID != productID || !m.Period.Equal(period) {
			continue
		}
		out[m.SupplierID] += m.SignedQuantity()
	}
	return out, nil
}

type staticFlags struct{ enabled bool }

func (f staticFlags) IsEnabled(context.Context, string) bool { return f.enabled }

// --- fixture ---

type fixture struct {
	orders    *orderStore
	pos       *poStore
	plans     *planStore
	movements *movementStore
	caps      *capStore
	events    *eventLog
	cfg       Config
	svc       *Service

	productID  id.ID
	customerID id.ID
	supA       id.ID
	supB       id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:     newOrderStore(),
		pos:        newPOStore(),
		plans:      newPlanStore(),
		movements:  &movementStore{},
		events:     &eventLog{},
		productID:  id.MustParse("018f0000-0000-7000-8000-0000000000f1"),
		customerID: id.MustParse("018f0000-0000-7000-8000-0000000000c1"),
		supA:       id.MustParse("018f0000-0000-7000-8000-00000000000a"),
		supB:       id.MustParse("018f0000-0000-7000-8000-00000000000b"),
	}
	f.caps = &capStore{byProduct: map[id.ID][]*supplier.Capability{
		f.productID: {
			testCapability(f.supA, f.productID, 1000, 0.9, 0.9, 500),
			testCapability(f.supB, f.productID, 1000, 0.6, 0.6, 450),
		},
	}}
	sups := &supplierStore{byID: map[id.ID]*supplier.Supplier{
		f.supA: testSupplier(f.supA, "SUP-A", "Alpha Components"),
		f.supB: testSupplier(f.supB, "SUP-B", "Bravo Industrial"),
	}}

	engine, err := distribution.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	poSvc := purchase_order.NewService(f.pos, &seqNumerator{}, nopTx{}, nil, f.events)

	f.cfg = Config{
		Orders:               f.orders,
		PurchaseOrders:       f.pos,
		PurchaseOrderService: poSvc,
		Plans:                f.plans,
		Capabilities:         f.caps,
		Suppliers:            sups,
		Register:             commitment.NewService(f.movements),
		Engine:               engine,
		TxManager:            nopTx{},
		Events:               f.events,
	}
	f.svc = NewService(f.cfg)
	return f
}

func testCapability(supplierID, productID id.ID, maxCap, onTime, quality float64, price int64) *supplier.Capability {
	c := supplier.NewCapability(supplierID, productID)
	c.MaxMonthlyCapacity = types.NewQuantityFromFloat64(maxCap)
	c.OnTimeRate = decimal.NewFromFloat(onTime)
	c.QualityScore = decimal.NewFromFloat(quality)
	c.UnitPrice = types.MinorUnits(price)
	return c
}

func testSupplier(sid id.ID, code, name string) *supplier.Supplier {
	s := supplier.NewSupplier(code, name)
	s.ID = sid
	return s
}

func (f *fixture) addOrder(qty float64) *customer_order.CustomerOrder {
	o := customer_order.NewCustomerOrder(f.customerID)
	o.Number = "ORD-2026-00001"
	o.RequiredDate = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	o.AddLine(f.productID, types.NewQuantityFromFloat64(qty), "")
	f.orders.add(o)
	return o
}

func (f *fixture) committed(t *testing.T, supplierID id.ID) types.Quantity {
	t.Helper()
	period := entity.MonthBucket(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	m, err := f.movements.CommittedByProduct(context.Background(), f.productID, period)
	if err != nil {
		t.Fatalf("CommittedByProduct: %v", err)
	}
	return m[supplierID]
}

// --- tests ---

func TestExecuteCreatesPurchaseOrdersAndPlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)

	res, err := f.svc.Execute(ctx, order.ID, Params{Strategy: distribution.StrategyEven})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(res.PurchaseOrders) != 2 {
		t.Fatalf("purchase orders = %d, want 2", len(res.PurchaseOrders))
	}
	want := types.NewQuantityFromFloat64(50)
	for _, po := range res.PurchaseOrders {
		if po.OrderID != order.ID || po.OrderNumber != order.Number {
			t.Errorf("%s: order link = %s/%s", po.Number, po.OrderID, po.OrderNumber)
		}
		if !po.RequiredDate.Equal(order.RequiredDate) {
			t.Errorf("%s: required date = %s", po.Number, po.RequiredDate)
		}
		if po.Status != status.POCreated {
			t.Errorf("%s: status = %s, want %s", po.Number, po.Status, status.POCreated)
		}
		if len(po.Items) != 1 || po.Items[0].Quantity != want {
			t.Errorf("%s: items = %+v", po.Number, po.Items)
		}
	}

	poA := f.pos.bySupplier(f.supA)
	poB := f.pos.bySupplier(f.supB)
	if poA == nil || poB == nil {
		t.Fatal("expected one purchase order per supplier")
	}
	if poA.Items[0].UnitPrice != 500 || poA.TotalAmount != 25000 {
		t.Errorf("supplier A pricing: unit=%d total=%d", poA.Items[0].UnitPrice, poA.TotalAmount)
	}
	if poB.Items[0].UnitPrice != 450 || poB.TotalAmount != 22500 {
		t.Errorf("supplier B pricing: unit=%d total=%d", poB.Items[0].UnitPrice, poB.TotalAmount)
	}

	if order.Status != status.OrderPurchaseOrdersCreated {
		t.Errorf("order status = %s, want %s", order.Status, status.OrderPurchaseOrdersCreated)
	}

	if len(res.Plan.Allocations) != 2 {
		t.Fatalf("plan allocations = %d, want 2", len(res.Plan.Allocations))
	}
	for _, a := range res.Plan.Allocations {
		linked := f.pos.bySupplier(a.SupplierID)
		if linked == nil || a.PurchaseOrderID != linked.ID {
			t.Errorf("allocation for %s not linked to its purchase order", a.SupplierID)
		}
		if a.Redistribution {
			t.Errorf("initial allocation marked as redistribution")
		}
	}

	if got := f.committed(t, f.supA); got != want {
		t.Errorf("committed A = %s, want %s", got, want)
	}
	if got := f.committed(t, f.supB); got != want {
		t.Errorf("committed B = %s, want %s", got, want)
	}

	if n := f.events.countByType(domain.EventPOCreated); n != 2 {
		t.Errorf("po.created events = %d, want 2", n)
	}
	if n := f.events.countByType(domain.EventPlanExecuted); n != 1 {
		t.Errorf("plan.executed events = %d, want 1", n)
	}
	if n := f.events.countByType(domain.EventOrderStatusChanged); n != 1 {
		t.Errorf("order.status_changed events = %d, want 1", n)
	}
}

func TestExecuteRequiresCreatedStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	order.Status = status.OrderPurchaseOrdersCreated

	_, err := f.svc.Execute(ctx, order.ID, Params{Strategy: distribution.StrategyEven})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "INVALID_STATUS" {
		t.Fatalf("err = %v, want INVALID_STATUS", err)
	}
}

func TestExecuteSendImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)

	res, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	for _, po := range res.PurchaseOrders {
		if po.Status != status.POSentToSupplier {
			t.Errorf("%s: status = %s, want %s", po.Number, po.Status, status.POSentToSupplier)
		}
		if po.SentAt == nil {
			t.Errorf("%s: SentAt not set", po.Number)
		}
	}
	if n := f.events.countByType(domain.EventPOSent); n != 2 {
		t.Errorf("po.sent events = %d, want 2", n)
	}
}

func TestPreviewPersistsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)

	res, err := f.svc.Preview(ctx, order.ID, Params{Strategy: distribution.StrategyPerformance})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(res.Items))
	}
	var total types.Quantity
	for _, a := range res.Items[0].Allocations {
		total += a.Quantity
	}
	if total != types.NewQuantityFromFloat64(100) {
		t.Errorf("allocated total = %s, want 100", total)
	}

	if len(f.pos.pos) != 0 {
		t.Errorf("purchase orders persisted by preview")
	}
	if len(f.plans.plans) != 0 {
		t.Errorf("plan persisted by preview")
	}
	if len(f.movements.movements) != 0 {
		t.Errorf("commitments persisted by preview")
	}
	if order.Status != status.OrderCreated {
		t.Errorf("order status changed by preview: %s", order.Status)
	}
}

func TestSupplierConfirmationDerivesOrderStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{Strategy: distribution.StrategyEven}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	poA := f.pos.bySupplier(f.supA)
	poB := f.pos.bySupplier(f.supB)

	poA.Status = status.POConfirmed
	if err := f.svc.HandleSupplierConfirmation(ctx, poA); err != nil {
		t.Fatalf("HandleSupplierConfirmation: %v", err)
	}
	if order.Status != status.OrderPartiallyConfirmed {
		t.Errorf("after first confirmation: %s, want %s", order.Status, status.OrderPartiallyConfirmed)
	}

	poB.Status = status.POConfirmed
	if err := f.svc.HandleSupplierConfirmation(ctx, poB); err != nil {
		t.Fatalf("HandleSupplierConfirmation: %v", err)
	}
	if order.Status != status.OrderConfirmed {
		t.Errorf("after second confirmation: %s, want %s", order.Status, status.OrderConfirmed)
	}
}

func TestDerivedStatusUnreachableLeavesOrderAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{Strategy: distribution.StrategyEven}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// InProduction cannot go back to PurchaseOrdersCreated, so the
	// derived status must not be forced.
	order.Status = status.OrderInProduction
	poA := f.pos.bySupplier(f.supA)
	if err := f.svc.HandleSupplierConfirmation(ctx, poA); err != nil {
		t.Fatalf("HandleSupplierConfirmation: %v", err)
	}
	if order.Status != status.OrderInProduction {
		t.Errorf("order status = %s, want %s", order.Status, status.OrderInProduction)
	}
}

func TestSupplierRejectionRedistributes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	poA := f.pos.bySupplier(f.supA)
	poB := f.pos.bySupplier(f.supB)
	poB.Status = status.POConfirmed
	poA.Status = status.PORejected

	if err := f.svc.HandleSupplierRejection(ctx, poA); err != nil {
		t.Fatalf("HandleSupplierRejection: %v", err)
	}

	if got := f.committed(t, f.supA); got != 0 {
		t.Errorf("committed A = %s, want 0", got)
	}
	if got, want := f.committed(t, f.supB), types.NewQuantityFromFloat64(100); got != want {
		t.Errorf("committed B = %s, want %s", got, want)
	}

	if len(f.pos.pos) != 3 {
		t.Fatalf("purchase orders = %d, want 3 after redistribution", len(f.pos.pos))
	}
	var replacement *purchase_order.PurchaseOrder
	for _, po := range f.pos.pos {
		if po.ID != poA.ID && po.ID != poB.ID {
			replacement = po
		}
	}
	if replacement == nil {
		t.Fatal("no replacement purchase order created")
	}
	if replacement.SupplierID != f.supB {
		t.Errorf("replacement supplier = %s, want %s", replacement.SupplierID, f.supB)
	}
	if replacement.Status != status.POSentToSupplier {
		t.Errorf("replacement status = %s, want %s", replacement.Status, status.POSentToSupplier)
	}
	items, _ := f.pos.GetItems(ctx, replacement.ID)
	if len(items) != 1 || items[0].Quantity != types.NewQuantityFromFloat64(50) {
		t.Errorf("replacement items = %+v", items)
	}

	plan, err := f.plans.GetLatestByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetLatestByOrder: %v", err)
	}
	if len(plan.Allocations) != 3 {
		t.Fatalf("plan allocations = %d, want 3", len(plan.Allocations))
	}
	last := plan.Allocations[2]
	if !last.Redistribution || last.SupplierID != f.supB || last.PurchaseOrderID != replacement.ID {
		t.Errorf("redistribution allocation = %+v", last)
	}

	if order.Status != status.OrderPartiallyConfirmed {
		t.Errorf("order status = %s, want %s", order.Status, status.OrderPartiallyConfirmed)
	}
}

func TestSupplierRejectionCapacityShortfallIsTolerated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Remaining supplier can no longer absorb the rejected 50 units.
	f.caps.byProduct[f.productID][1].MaxMonthlyCapacity = types.NewQuantityFromFloat64(60)

	poA := f.pos.bySupplier(f.supA)
	poA.Status = status.PORejected
	if err := f.svc.HandleSupplierRejection(ctx, poA); err != nil {
		t.Fatalf("HandleSupplierRejection: %v", err)
	}

	if len(f.pos.pos) != 2 {
		t.Errorf("purchase orders = %d, want 2 (no redistribution)", len(f.pos.pos))
	}
	if got := f.committed(t, f.supA); got != 0 {
		t.Errorf("committed A = %s, want 0 after release", got)
	}
	plan, _ := f.plans.GetLatestByOrder(ctx, order.ID)
	if len(plan.Allocations) != 2 {
		t.Errorf("plan allocations = %d, want 2", len(plan.Allocations))
	}
}

func TestSupplierRejectionHonorsRedistributionFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cfg.Flags = staticFlags{enabled: false}
	f.svc = NewService(f.cfg)

	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	poA := f.pos.bySupplier(f.supA)
	poA.Status = status.PORejected

	if err := f.svc.HandleSupplierRejection(ctx, poA); err != nil {
		t.Fatalf("HandleSupplierRejection: %v", err)
	}
	if len(f.pos.pos) != 2 {
		t.Errorf("purchase orders = %d, want 2 with redistribution disabled", len(f.pos.pos))
	}
	if got := f.committed(t, f.supA); got != 0 {
		t.Errorf("committed A = %s, want 0 after release", got)
	}
}

func TestCancelPurchaseOrderRederivesOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	poA := f.pos.bySupplier(f.supA)
	poB := f.pos.bySupplier(f.supB)
	poB.Status = status.POConfirmed

	cancelled, err := f.svc.CancelPurchaseOrder(ctx, poA.ID, "out of stock")
	if err != nil {
		t.Fatalf("CancelPurchaseOrder: %v", err)
	}
	if cancelled.Status != status.POCancelled || cancelled.StatusReason != "out of stock" {
		t.Errorf("cancelled = %s (%q)", cancelled.Status, cancelled.StatusReason)
	}
	if got := f.committed(t, f.supA); got != 0 {
		t.Errorf("committed A = %s, want 0", got)
	}
	if order.Status != status.OrderConfirmed {
		t.Errorf("order status = %s, want %s", order.Status, status.OrderConfirmed)
	}

	// Cancelling the last active purchase order sends the order back
	// to Created for replanning.
	if _, err := f.svc.CancelPurchaseOrder(ctx, poB.ID, "supplier closed"); err != nil {
		t.Fatalf("CancelPurchaseOrder: %v", err)
	}
	if order.Status != status.OrderCreated {
		t.Errorf("order status = %s, want %s after losing all purchase orders", order.Status, status.OrderCreated)
	}
	if n := f.events.countByType(domain.EventPOCancelled); n != 2 {
		t.Errorf("po.cancelled events = %d, want 2", n)
	}
}

func TestCancelOrderCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if err := f.svc.CancelOrder(ctx, order.ID, "customer withdrew", false); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	if order.Status != status.OrderCancelled || order.StatusReason != "customer withdrew" {
		t.Errorf("order = %s (%q)", order.Status, order.StatusReason)
	}
	for _, po := range f.pos.pos {
		if po.Status != status.POCancelled {
			t.Errorf("%s: status = %s, want %s", po.Number, po.Status, status.POCancelled)
		}
	}
	if got := f.committed(t, f.supA); got != 0 {
		t.Errorf("committed A = %s, want 0", got)
	}
	if got := f.committed(t, f.supB); got != 0 {
		t.Errorf("committed B = %s, want 0", got)
	}
	if n := f.events.countByType(domain.EventPOCancelled); n != 2 {
		t.Errorf("po.cancelled events = %d, want 2", n)
	}
	if n := f.events.countByType(domain.EventOrderCancelled); n != 1 {
		t.Errorf("order.cancelled events = %d, want 1", n)
	}
}

func TestCancelOrderRefusesShippedPurchaseOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	poA := f.pos.bySupplier(f.supA)
	poA.Status = status.POShipped

	err := f.svc.CancelOrder(ctx, order.ID, "too late", true)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "CANNOT_CANCEL" {
		t.Fatalf("err = %v, want CANNOT_CANCEL", err)
	}
	if order.Status != status.OrderPurchaseOrdersCreated {
		t.Errorf("order status = %s, want unchanged", order.Status)
	}
	if poA.Status != status.POShipped {
		t.Errorf("shipped purchase order was modified: %s", poA.Status)
	}
}

func TestCancelOrderInProductionRequiresForce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order := f.addOrder(100)
	if _, err := f.svc.Execute(ctx, order.ID, Params{
		Strategy:        distribution.StrategyEven,
		SendImmediately: true,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	poA := f.pos.bySupplier(f.supA)
	poA.Status = status.POInProduction

	err := f.svc.CancelOrder(ctx, order.ID, "change of scope", false)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "CANNOT_CANCEL" {
		t.Fatalf("err = %v, want CANNOT_CANCEL without force", err)
	}

	if err := f.svc.CancelOrder(ctx, order.ID, "change of scope", true); err != nil {
		t.Fatalf("CancelOrder with force: %v", err)
	}
	if order.Status != status.OrderCancelled {
		t.Errorf("order status = %s, want %s", order.Status, status.OrderCancelled)
	}
	if poA.Status != status.POCancelled {
		t.Errorf("in-production purchase order = %s, want %s", poA.Status, status.POCancelled)
	}
}
