package notification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/internal/domain"
)

type fakeRepo struct {
	rows map[id.ID]*Notification
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[id.ID]*Notification)}
}

func (f *fakeRepo) Create(_ context.Context, n *Notification) (bool, error) {
	for _, existing := range f.rows {
		if existing.EventID == n.EventID && existing.Recipient == n.Recipient && existing.Channel == n.Channel {
			return false, nil
		}
	}
	cp := *n
	f.rows[n.ID] = &cp
	return true, nil
}

func (f *fakeRepo) GetByID(_ context.Context, nid id.ID) (*Notification, error) {
	n, ok := f.rows[nid]
	if !ok {
		return nil, apperror.NewNotFound("Notification", nid)
	}
	cp := *n
	return &cp, nil
}

func (f *fakeRepo) MarkSent(_ context.Context, nid id.ID) error {
	n, ok := f.rows[nid]
	if !ok {
		return apperror.NewNotFound("Notification", nid)
	}
	n.Status = StatusSent
	return nil
}

func (f *fakeRepo) MarkFailed(_ context.Context, nid id.ID, reason string) error {
	n, ok := f.rows[nid]
	if !ok {
		return apperror.NewNotFound("Notification", nid)
	}
	n.Status = StatusFailed
	n.Attempts++
	n.LastError = &reason
	return nil
}

func (f *fakeRepo) List(_ context.Context, filter ListFilter) ([]Notification, int64, error) {
	var out []Notification
	for _, n := range f.rows {
		if filter.Status != "" && n.Status != filter.Status {
			continue
		}
		if filter.Channel != "" && n.Channel != filter.Channel {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) byChannel(ch Channel) []*Notification {
	var out []*Notification
	for _, n := range f.rows {
		if n.Channel == ch {
			out = append(out, n)
		}
	}
	return out
}

type fakeDirectory struct {
	suppliers map[id.ID]Recipient
	customers map[id.ID]Recipient
	planners  []Recipient
}

func (f *fakeDirectory) SupplierContact(_ context.Context, sid id.ID) (*Recipient, error) {
	r, ok := f.suppliers[sid]
	if !ok {
		return nil, apperror.NewNotFound("Supplier", sid)
	}
	return &r, nil
}

func (f *fakeDirectory) CustomerContact(_ context.Context, cid id.ID) (*Recipient, error) {
	r, ok := f.customers[cid]
	if !ok {
		return nil, apperror.NewNotFound("Customer", cid)
	}
	return &r, nil
}

func (f *fakeDirectory) Planners(_ context.Context) ([]Recipient, error) {
	return f.planners, nil
}

type fakeEnqueuer struct {
	enqueued []id.ID
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, n *Notification) error {
	f.enqueued = append(f.enqueued, n.ID)
	return nil
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

type fakeSMS struct {
	sent []string
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body string) error {
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

type staticFlags map[string]bool

func (s staticFlags) IsEnabled(_ context.Context, flag string) bool { return s[flag] }

func (s staticFlags) GetVariant(_ context.Context, _ string) string { return "" }

func (s staticFlags) GetValue(_ context.Context, _ string) any { return nil }

type notifFixture struct {
	svc      *Service
	repo     *fakeRepo
	dir      *fakeDirectory
	enqueuer *fakeEnqueuer
	email    *fakeEmail
	sms      *fakeSMS
	flags    staticFlags
}

func newNotifFixture() *notifFixture {
	f := &notifFixture{
		repo: newFakeRepo(),
		dir: &fakeDirectory{
			suppliers: make(map[id.ID]Recipient),
			customers: make(map[id.ID]Recipient),
		},
		enqueuer: &fakeEnqueuer{},
		email:    &fakeEmail{},
		sms:      &fakeSMS{},
		flags: staticFlags{
			security.FlagEmailNotifications: true,
			security.FlagSMSNotifications:   true,
		},
	}
	f.svc = NewService(Config{
		Repository: f.repo,
		Directory:  f.dir,
		Enqueuer:   f.enqueuer,
		Email:      f.email,
		SMS:        f.sms,
		Flags:      f.flags,
	})
	return f
}

func poSentEvent(t *testing.T, supplierID id.ID) InboundEvent {
	t.Helper()
	payload, err := json.Marshal(domain.PurchaseOrderEventPayload{
		PurchaseOrderID: id.New().String(),
		Number:          "PO-2026-00042",
		SupplierID:      supplierID.String(),
		Status:          "sent_to_supplier",
		RequiredDate:    "2026-09-15",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return InboundEvent{
		ID:            id.New(),
		AggregateType: "PurchaseOrder",
		AggregateID:   id.New(),
		Type:          domain.EventPOSent,
		Payload:       payload,
	}
}

func TestDispatchFansOutPerChannel(t *testing.T) {
	f := newNotifFixture()
	supplierID := id.New()
	f.dir.suppliers[supplierID] = Recipient{Name: "Acme", Email: "po@acme.test", Phone: "+100200300"}

	if err := f.svc.Dispatch(context.Background(), poSentEvent(t, supplierID)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(f.repo.rows) != 2 {
		t.Fatalf("rows = %d, want 2 (email + sms)", len(f.repo.rows))
	}
	emails := f.repo.byChannel(ChannelEmail)
	if len(emails) != 1 {
		t.Fatalf("email rows = %d, want 1", len(emails))
	}
	if emails[0].Recipient != "po@acme.test" {
		t.Errorf("email recipient = %q", emails[0].Recipient)
	}
	if !strings.Contains(emails[0].Subject, "PO-2026-00042") {
		t.Errorf("subject %q misses the PO number", emails[0].Subject)
	}
	if !strings.Contains(emails[0].Body, "2026-09-15") {
		t.Errorf("body %q misses the required date", emails[0].Body)
	}
	sms := f.repo.byChannel(ChannelSMS)
	if len(sms) != 1 || sms[0].Recipient != "+100200300" {
		t.Fatalf("sms rows = %+v", sms)
	}
	if sms[0].Subject != "" || sms[0].Body == "" {
		t.Errorf("sms should carry body only, got subject=%q body=%q", sms[0].Subject, sms[0].Body)
	}
	if len(f.enqueuer.enqueued) != 2 {
		t.Errorf("enqueued = %d, want 2", len(f.enqueuer.enqueued))
	}
}

func TestDispatchSkipsUnknownEventType(t *testing.T) {
	f := newNotifFixture()

	err := f.svc.Dispatch(context.Background(), InboundEvent{ID: id.New(), Type: "inventory.counted"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(f.repo.rows) != 0 {
		t.Errorf("rows = %d, want 0", len(f.repo.rows))
	}
}

func TestDispatchRedeliveryCreatesNoDuplicates(t *testing.T) {
	f := newNotifFixture()
	supplierID := id.New()
	f.dir.suppliers[supplierID] = Recipient{Name: "Acme", Email: "po@acme.test"}
	evt := poSentEvent(t, supplierID)

	for i := 0; i < 2; i++ {
		if err := f.svc.Dispatch(context.Background(), evt); err != nil {
			t.Fatalf("Dispatch() #%d error = %v", i, err)
		}
	}

	if len(f.repo.rows) != 1 {
		t.Errorf("rows = %d, want 1", len(f.repo.rows))
	}
	if len(f.enqueuer.enqueued) != 1 {
		t.Errorf("enqueued = %d, want 1", len(f.enqueuer.enqueued))
	}
}

func TestDispatchHonorsChannelFlags(t *testing.T) {
	f := newNotifFixture()
	f.flags[security.FlagSMSNotifications] = false
	supplierID := id.New()
	f.dir.suppliers[supplierID] = Recipient{Name: "Acme", Email: "po@acme.test", Phone: "+100200300"}

	if err := f.svc.Dispatch(context.Background(), poSentEvent(t, supplierID)); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := len(f.repo.byChannel(ChannelSMS)); got != 0 {
		t.Errorf("sms rows = %d, want 0 with the channel disabled", got)
	}
	if got := len(f.repo.byChannel(ChannelEmail)); got != 1 {
		t.Errorf("email rows = %d, want 1", got)
	}
}

func TestDispatchToleratesMissingParty(t *testing.T) {
	f := newNotifFixture()
	// supplier not present in the directory

	if err := f.svc.Dispatch(context.Background(), poSentEvent(t, id.New())); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(f.repo.rows) != 0 {
		t.Errorf("rows = %d, want 0", len(f.repo.rows))
	}
}

func TestDispatchPlannerAudience(t *testing.T) {
	f := newNotifFixture()
	f.dir.planners = []Recipient{
		{Name: "Pat", Email: "pat@plan.test"},
		{Name: "Sam", Email: "sam@plan.test"},
	}
	payload, _ := json.Marshal(domain.PurchaseOrderEventPayload{
		Number: "PO-2026-00007", SupplierID: id.New().String(), Reason: "machine down",
	})

	err := f.svc.Dispatch(context.Background(), InboundEvent{
		ID: id.New(), AggregateType: "PurchaseOrder", AggregateID: id.New(),
		Type: domain.EventPORejected, Payload: payload,
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	emails := f.repo.byChannel(ChannelEmail)
	if len(emails) != 2 {
		t.Fatalf("email rows = %d, want one per planner", len(emails))
	}
	if !strings.Contains(emails[0].Body, "machine down") {
		t.Errorf("body %q misses the rejection reason", emails[0].Body)
	}
}

func TestDeliverEmailMarksSent(t *testing.T) {
	f := newNotifFixture()
	n := NewNotification(id.New(), domain.EventPOSent, "PurchaseOrder", id.New(), ChannelEmail,
		Recipient{Email: "po@acme.test"}, "subject", "body")
	f.repo.rows[n.ID] = n

	if err := f.svc.DeliverEmail(context.Background(), n.ID); err != nil {
		t.Fatalf("DeliverEmail() error = %v", err)
	}
	if len(f.email.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(f.email.sent))
	}
	if f.repo.rows[n.ID].Status != StatusSent {
		t.Errorf("status = %s, want sent", f.repo.rows[n.ID].Status)
	}
}

func TestDeliverEmailFailureThenRetry(t *testing.T) {
	f := newNotifFixture()
	f.email.err = errors.New("smtp unavailable")
	n := NewNotification(id.New(), domain.EventPOSent, "PurchaseOrder", id.New(), ChannelEmail,
		Recipient{Email: "po@acme.test"}, "subject", "body")
	f.repo.rows[n.ID] = n

	if err := f.svc.DeliverEmail(context.Background(), n.ID); err == nil {
		t.Fatal("expected delivery error")
	}
	if f.repo.rows[n.ID].Status != StatusFailed {
		t.Fatalf("status = %s, want failed", f.repo.rows[n.ID].Status)
	}
	if f.repo.rows[n.ID].LastError == nil {
		t.Error("expected last error recorded")
	}

	// Retry succeeds once the sender recovers
	f.email.err = nil
	if err := f.svc.DeliverEmail(context.Background(), n.ID); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if f.repo.rows[n.ID].Status != StatusSent {
		t.Errorf("status after retry = %s, want sent", f.repo.rows[n.ID].Status)
	}
}

func TestDeliverEmailIdempotent(t *testing.T) {
	f := newNotifFixture()
	n := NewNotification(id.New(), domain.EventPOSent, "PurchaseOrder", id.New(), ChannelEmail,
		Recipient{Email: "po@acme.test"}, "subject", "body")
	n.Status = StatusSent
	f.repo.rows[n.ID] = n

	if err := f.svc.DeliverEmail(context.Background(), n.ID); err != nil {
		t.Fatalf("DeliverEmail() error = %v", err)
	}
	if len(f.email.sent) != 0 {
		t.Errorf("sent = %d, want 0 for an already sent row", len(f.email.sent))
	}
}

func TestDeliverRejectsWrongChannel(t *testing.T) {
	f := newNotifFixture()
	n := NewNotification(id.New(), domain.EventPOSent, "PurchaseOrder", id.New(), ChannelSMS,
		Recipient{Phone: "+100200300"}, "", "body")
	f.repo.rows[n.ID] = n

	if err := f.svc.DeliverEmail(context.Background(), n.ID); err == nil {
		t.Fatal("expected channel mismatch error")
	}
}

func TestDeliverSMS(t *testing.T) {
	f := newNotifFixture()
	n := NewNotification(id.New(), domain.EventPOSent, "PurchaseOrder", id.New(), ChannelSMS,
		Recipient{Phone: "+100200300"}, "", "Purchase order PO-2026-00042 awaits your confirmation")
	f.repo.rows[n.ID] = n

	if err := f.svc.DeliverSMS(context.Background(), n.ID); err != nil {
		t.Fatalf("DeliverSMS() error = %v", err)
	}
	if len(f.sms.sent) != 1 || !strings.HasPrefix(f.sms.sent[0], "+100200300|") {
		t.Errorf("sms sent = %v", f.sms.sent)
	}
}
