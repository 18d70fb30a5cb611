package confirmation

import (
	"context"
	"sort"
	"testing"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/internal/core/types"
	"procura/internal/domain"
	"procura/internal/domain/documents/purchase_order"
	"procura/internal/domain/status"
)

type nopTx struct{}

func (nopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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

func (s *poStore) add(po *purchase_order.PurchaseOrder) {
	s.pos[po.ID] = po
	s.items[po.ID] = po.Items
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

func (s *poStore) List(_ context.Context, f purchase_order.ListFilter) (domain.ListResult[*purchase_order.PurchaseOrder], error) {
	var out []*purchase_order.PurchaseOrder
	for _, doc := range s.pos {
		if f.SupplierID != nil && doc.SupplierID != *f.SupplierID {
			continue
		}
		if f.Status != nil && doc.Status != *f.Status {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, st := range f.Statuses {
				if doc.Status == st {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return domain.ListResult[*purchase_order.PurchaseOrder]{
		Items:      out,
		TotalCount: int64(len(out)),
	}, nil
}

func (s *poStore) GetForUpdate(ctx context.Context, docID id.ID) (*purchase_order.PurchaseOrder, error) {
	return s.GetByID(ctx, docID)
}

func (s *poStore) ListByOrder(_ context.Context, orderID id.ID) ([]*purchase_order.PurchaseOrder, error) {
	var out []*purchase_order.PurchaseOrder
	for _, doc := range s.pos {
		if doc.OrderID == orderID {
			out = append(out, doc)
		}
	}
	return out, nil
}

type fakeReactor struct {
	confirmed []id.ID
	rejected  []id.ID
	err       error
}

func (r *fakeReactor) HandleSupplierConfirmation(_ context.Context, po *purchase_order.PurchaseOrder) error {
	if r.err != nil {
		return r.err
	}
	r.confirmed = append(r.confirmed, po.ID)
	return nil
}

func (r *fakeReactor) HandleSupplierRejection(_ context.Context, po *purchase_order.PurchaseOrder) error {
	if r.err != nil {
		return r.err
	}
	r.rejected = append(r.rejected, po.ID)
	return nil
}

type confirmFixture struct {
	store   *poStore
	reactor *fakeReactor
	events  *eventLog
	svc     *Service

	supplierID id.ID
	productID  id.ID
	required   time.Time
}

func newConfirmFixture(t *testing.T, policy security.DeliveryPolicy) *confirmFixture {
	t.Helper()
	f := &confirmFixture{
		store:      newPOStore(),
		reactor:    &fakeReactor{},
		events:     &eventLog{},
		supplierID: id.MustParse("018f0000-0000-7000-8000-00000000000a"),
		productID:  id.MustParse("018f0000-0000-7000-8000-0000000000f1"),
		required:   time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour),
	}
	f.svc = NewService(f.store, policy, f.reactor, nopTx{}, nil, f.events)
	return f
}

func (f *confirmFixture) addPO(t *testing.T, st status.PurchaseOrderStatus, qty float64) *purchase_order.PurchaseOrder {
	t.Helper()
	po := purchase_order.NewPurchaseOrder(id.New(), f.supplierID)
	po.Number = "PO-2026-00001"
	po.OrderNumber = "ORD-2026-00001"
	po.RequiredDate = f.required
	po.AddItem(f.productID, types.NewQuantityFromFloat64(qty), 500)
	po.Status = st
	f.store.add(po)
	return po
}

func countEvents(l *eventLog, typ string) int {
	n := 0
	for _, e := range l.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func TestConfirmHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)
	confirmDate := f.required.AddDate(0, 0, -5)

	res, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{DeliveryDate: confirmDate})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if res.PurchaseOrder.Status != status.POConfirmed {
		t.Errorf("status = %s, want %s", res.PurchaseOrder.Status, status.POConfirmed)
	}
	if res.PurchaseOrder.ConfirmedDate == nil || !res.PurchaseOrder.ConfirmedDate.Equal(confirmDate) {
		t.Errorf("confirmed date = %v, want %s", res.PurchaseOrder.ConfirmedDate, confirmDate)
	}
	if res.PurchaseOrder.ConfirmedAt == nil {
		t.Error("ConfirmedAt not stamped")
	}
	if res.Late {
		t.Error("on-time confirmation flagged late")
	}
	if len(f.reactor.confirmed) != 1 || f.reactor.confirmed[0] != po.ID {
		t.Errorf("reactor confirmations = %v", f.reactor.confirmed)
	}
	if n := countEvents(f.events, domain.EventPOConfirmed); n != 1 {
		t.Errorf("po.confirmed events = %d, want 1", n)
	}
}

func TestConfirmRequiresDeliveryDate(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)

	_, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestConfirmStrictPolicyRejectsLateDate(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)

	_, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, 3),
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeDeliveryDate {
		t.Fatalf("err = %v, want %s", err, apperror.CodeDeliveryDate)
	}
	if po.Status != status.POSentToSupplier {
		t.Errorf("status changed on failed confirmation: %s", po.Status)
	}
	if len(f.reactor.confirmed) != 0 {
		t.Error("reactor invoked on failed confirmation")
	}
}

func TestConfirmGracePolicyFlagsLateDate(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.NewFlexibleDeliveryPolicy(7))
	po := f.addPO(t, status.POSentToSupplier, 50)

	res, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !res.Late {
		t.Error("late confirmation inside grace window not flagged")
	}
	if res.PurchaseOrder.Status != status.POConfirmed {
		t.Errorf("status = %s, want %s", res.PurchaseOrder.Status, status.POConfirmed)
	}

	_, err = f.svc.Confirm(ctx, f.addPO(t, status.POSentToSupplier, 10).ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, 10),
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeDeliveryDate {
		t.Fatalf("beyond grace window: err = %v, want %s", err, apperror.CodeDeliveryDate)
	}
}

func TestConfirmAppliesItemAdjustments(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)
	lineID := po.Items[0].LineID
	confirmed := types.NewQuantityFromFloat64(30)

	res, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, -1),
		Items: []ItemConfirmation{
			{LineID: lineID, ConfirmedQuantity: &confirmed},
		},
	})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if got := res.PurchaseOrder.Items[0].ConfirmedQuantity; got != confirmed {
		t.Errorf("confirmed quantity = %s, want %s", got, confirmed)
	}
	saved, _ := f.store.GetItems(ctx, po.ID)
	if saved[0].ConfirmedQuantity != confirmed {
		t.Errorf("saved confirmed quantity = %s, want %s", saved[0].ConfirmedQuantity, confirmed)
	}
}

func TestConfirmRejectsExcessiveQuantity(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)
	tooMuch := types.NewQuantityFromFloat64(60)

	_, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, -1),
		Items: []ItemConfirmation{
			{LineID: po.Items[0].LineID, ConfirmedQuantity: &tooMuch},
		},
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestConfirmOnlyFromSentStatus(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POCreated, 50)

	_, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, -1),
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInvalidTransition {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)

	_, err := f.svc.Reject(ctx, po.ID, "")
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(f.reactor.rejected) != 0 {
		t.Error("reactor invoked without a reason")
	}
}

func TestRejectInvokesReactor(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)

	out, err := f.svc.Reject(ctx, po.ID, "capacity booked out")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if out.Status != status.PORejected || out.StatusReason != "capacity booked out" {
		t.Errorf("rejected = %s (%q)", out.Status, out.StatusReason)
	}
	if len(f.reactor.rejected) != 1 || f.reactor.rejected[0] != po.ID {
		t.Errorf("reactor rejections = %v", f.reactor.rejected)
	}
	if n := countEvents(f.events, domain.EventPORejected); n != 1 {
		t.Errorf("po.rejected events = %d, want 1", n)
	}
}

func TestSupplierScopeEnforced(t *testing.T) {
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)

	other := id.MustParse("018f0000-0000-7000-8000-00000000000b")
	ctx := security.WithScope(context.Background(), &security.AccessScope{
		UserID:     "u-1",
		SupplierID: other.String(),
	})

	_, err := f.svc.Confirm(ctx, po.ID, ConfirmParams{
		DeliveryDate: f.required.AddDate(0, 0, -1),
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeForbidden {
		t.Fatalf("err = %v, want %s", err, apperror.CodeForbidden)
	}

	// The same supplier binding narrows listings to their own orders.
	res, err := f.svc.ListOpen(ctx, purchase_order.ListFilter{})
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("foreign supplier sees %d orders, want 0", len(res.Items))
	}

	own := security.WithScope(context.Background(), &security.AccessScope{
		UserID:     "u-2",
		SupplierID: f.supplierID.String(),
	})
	res, err = f.svc.ListOpen(own, purchase_order.ListFilter{})
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(res.Items) != 1 {
		t.Errorf("own supplier sees %d orders, want 1", len(res.Items))
	}
}

func TestListOpenFiltersOpenStatuses(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	f.addPO(t, status.POSentToSupplier, 10)
	f.addPO(t, status.POConfirmed, 10)
	f.addPO(t, status.PORejected, 10)
	f.addPO(t, status.POClosed, 10)

	res, err := f.svc.ListOpen(ctx, purchase_order.ListFilter{})
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("open orders = %d, want 2", len(res.Items))
	}
	for _, po := range res.Items {
		if po.Status != status.POSentToSupplier && po.Status != status.POConfirmed {
			t.Errorf("unexpected status in open listing: %s", po.Status)
		}
	}
}

func TestUpdateItemsOnlyWhileAwaitingDecision(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POConfirmed, 50)
	q := types.NewQuantityFromFloat64(20)

	_, err := f.svc.UpdateItems(ctx, po.ID, []ItemConfirmation{
		{LineID: po.Items[0].LineID, ConfirmedQuantity: &q},
	})
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != "INVALID_STATUS" {
		t.Fatalf("err = %v, want INVALID_STATUS", err)
	}
}

func TestUpdateItemsAdjustsQuantityAndDate(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POSentToSupplier, 50)
	q := types.NewQuantityFromFloat64(40)
	d := f.required.AddDate(0, 0, -3)

	out, err := f.svc.UpdateItems(ctx, po.ID, []ItemConfirmation{
		{LineID: po.Items[0].LineID, ConfirmedQuantity: &q, DeliveryDate: &d},
	})
	if err != nil {
		t.Fatalf("UpdateItems: %v", err)
	}
	item := out.Items[0]
	if item.ConfirmedQuantity != q {
		t.Errorf("confirmed quantity = %s, want %s", item.ConfirmedQuantity, q)
	}
	if item.DeliveryDate == nil || !item.DeliveryDate.Equal(d) {
		t.Errorf("delivery date = %v, want %s", item.DeliveryDate, d)
	}
}

func TestUpdateProgressWalksTheMachine(t *testing.T) {
	ctx := context.Background()
	f := newConfirmFixture(t, security.StrictDeliveryPolicy{})
	po := f.addPO(t, status.POConfirmed, 50)

	out, err := f.svc.UpdateProgress(ctx, po.ID, status.POInProduction)
	if err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if out.Status != status.POInProduction {
		t.Errorf("status = %s, want %s", out.Status, status.POInProduction)
	}
	if len(f.reactor.confirmed) != 1 {
		t.Errorf("reactor calls = %d, want 1 (order status re-derived)", len(f.reactor.confirmed))
	}

	// Skipping ReadyForShipment is not allowed.
	_, err = f.svc.UpdateProgress(ctx, po.ID, status.POShipped)
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeInvalidTransition {
		t.Fatalf("err = %v, want %s", err, apperror.CodeInvalidTransition)
	}

	// Delivery is recorded by planners, not suppliers.
	_, err = f.svc.UpdateProgress(ctx, po.ID, status.PODelivered)
	appErr, ok = apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}
