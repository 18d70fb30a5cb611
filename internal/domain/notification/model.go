// Package notification delivers email and SMS messages for domain events.
// Events arrive through the transactional outbox, are fanned out to one
// notification row per recipient and channel, and are delivered by
// background workers.
package notification

import (
	"time"

	"procura/internal/core/id"
)

// Channel is the delivery channel of a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is one message to one recipient over one channel.
// EventID ties the row back to the outbox message that produced it, so
// redelivery of the same event cannot create duplicate rows.
type Notification struct {
	ID            id.ID      `db:"id" json:"id"`
	EventID       id.ID      `db:"event_id" json:"eventId"`
	EventType     string     `db:"event_type" json:"eventType"`
	AggregateType string     `db:"aggregate_type" json:"aggregateType"`
	AggregateID   id.ID      `db:"aggregate_id" json:"aggregateId"`
	Channel       Channel    `db:"channel" json:"channel"`
	Recipient     string     `db:"recipient" json:"recipient"`
	RecipientName string     `db:"recipient_name" json:"recipientName,omitempty"`
	Subject       string     `db:"subject" json:"subject,omitempty"`
	Body          string     `db:"body" json:"body"`
	Status        Status     `db:"status" json:"status"`
	Attempts      int        `db:"attempts" json:"attempts"`
	LastError     *string    `db:"last_error" json:"lastError,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	SentAt        *time.Time `db:"sent_at" json:"sentAt,omitempty"`
}

// NewNotification builds a pending notification row.
func NewNotification(eventID id.ID, eventType, aggregateType string, aggregateID id.ID, channel Channel, recipient Recipient, subject, body string) *Notification {
	address := recipient.Email
	if channel == ChannelSMS {
		address = recipient.Phone
	}
	return &Notification{
		ID:            id.New(),
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Channel:       channel,
		Recipient:     address,
		RecipientName: recipient.Name,
		Subject:       subject,
		Body:          body,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

// Recipient is a resolved notification target.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// ListFilter narrows the notification delivery log.
type ListFilter struct {
	Status    Status
	Channel   Channel
	EventType string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}
