package notification

import (
	"context"

	"procura/internal/core/id"
)

// Repository persists notification rows.
type Repository interface {
	// Create inserts a row. Returns false without error when a row for
	// the same event, recipient and channel already exists.
	Create(ctx context.Context, n *Notification) (bool, error)

	GetByID(ctx context.Context, id id.ID) (*Notification, error)
	MarkSent(ctx context.Context, id id.ID) error
	MarkFailed(ctx context.Context, id id.ID, reason string) error
	List(ctx context.Context, filter ListFilter) ([]Notification, int64, error)
}

// EmailSender delivers a rendered email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a rendered SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Enqueuer schedules background delivery of a stored notification.
type Enqueuer interface {
	Enqueue(ctx context.Context, n *Notification) error
}

// Directory resolves recipients for an event audience.
type Directory interface {
	SupplierContact(ctx context.Context, supplierID id.ID) (*Recipient, error)
	CustomerContact(ctx context.Context, customerID id.ID) (*Recipient, error)
	Planners(ctx context.Context) ([]Recipient, error)
}
