package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/security"
	"procura/pkg/logger"
)

// InboundEvent is an outbox message handed to the dispatcher.
type InboundEvent struct {
	ID            id.ID
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       []byte
}

// Service fans events out to notification rows and delivers them.
type Service struct {
	repo      Repository
	directory Directory
	enqueuer  Enqueuer
	email     EmailSender
	sms       SMSSender
	flags     security.FeatureFlagProvider
}

// Config collects the service dependencies.
type Config struct {
	Repository Repository
	Directory  Directory
	Enqueuer   Enqueuer
	Email      EmailSender
	SMS        SMSSender
	Flags      security.FeatureFlagProvider
}

// NewService creates a notification service.
func NewService(cfg Config) *Service {
	return &Service{
		repo:      cfg.Repository,
		directory: cfg.Directory,
		enqueuer:  cfg.Enqueuer,
		email:     cfg.Email,
		sms:       cfg.SMS,
		flags:     cfg.Flags,
	}
}

// Dispatch resolves recipients and templates for an event, stores one
// notification row per recipient and channel, and schedules delivery.
// Events without a template are skipped. Redelivery of the same event is
// safe: existing rows are not duplicated or re-enqueued.
func (s *Service) Dispatch(ctx context.Context, evt InboundEvent) error {
	tmpl, ok := templates[evt.Type]
	if !ok {
		logger.Debug(ctx, "no notification template for event", "event_type", evt.Type)
		return nil
	}

	payload := map[string]any{}
	if len(evt.Payload) > 0 {
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			return fmt.Errorf("decode event payload: %w", err)
		}
	}

	recipients, err := s.resolveAudience(ctx, tmpl.audiences, payload)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	subject, body, err := tmpl.render(payload)
	if err != nil {
		return err
	}

	emailOn := s.channelEnabled(ctx, security.FlagEmailNotifications)
	smsOn := s.channelEnabled(ctx, security.FlagSMSNotifications)

	for _, r := range recipients {
		if emailOn && r.Email != "" {
			n := NewNotification(evt.ID, evt.Type, evt.AggregateType, evt.AggregateID, ChannelEmail, r, subject, body)
			if err := s.store(ctx, n); err != nil {
				return err
			}
		}
		if smsOn && r.Phone != "" {
			// SMS carries the subject line only
			n := NewNotification(evt.ID, evt.Type, evt.AggregateType, evt.AggregateID, ChannelSMS, r, "", subject)
			if err := s.store(ctx, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) store(ctx context.Context, n *Notification) error {
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	if !created {
		return nil
	}
	if err := s.enqueuer.Enqueue(ctx, n); err != nil {
		return fmt.Errorf("enqueue notification %s: %w", n.ID, err)
	}
	return nil
}

func (s *Service) channelEnabled(ctx context.Context, flag string) bool {
	if s.flags == nil {
		return true
	}
	return s.flags.IsEnabled(ctx, flag)
}

func (s *Service) resolveAudience(ctx context.Context, audiences []string, payload map[string]any) ([]Recipient, error) {
	var out []Recipient
	for _, a := range audiences {
		switch a {
		case audienceSupplier:
			r, err := s.partyContact(ctx, payload, "supplierId", s.directory.SupplierContact)
			if err != nil {
				return nil, err
			}
			if r != nil {
				out = append(out, *r)
			}
		case audienceCustomer:
			r, err := s.partyContact(ctx, payload, "customerId", s.directory.CustomerContact)
			if err != nil {
				return nil, err
			}
			if r != nil {
				out = append(out, *r)
			}
		case audiencePlanners:
			planners, err := s.directory.Planners(ctx)
			if err != nil {
				return nil, fmt.Errorf("resolve planners: %w", err)
			}
			out = append(out, planners...)
		}
	}
	return out, nil
}

func (s *Service) partyContact(ctx context.Context, payload map[string]any, key string, lookup func(context.Context, id.ID) (*Recipient, error)) (*Recipient, error) {
	raw, _ := payload[key].(string)
	if raw == "" {
		return nil, nil
	}
	partyID, err := id.Parse(raw)
	if err != nil {
		logger.Warn(ctx, "event payload carries malformed party id", "key", key, "value", raw)
		return nil, nil
	}
	r, err := lookup(ctx, partyID)
	if err != nil {
		// A deleted party must not poison the event
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// DeliverEmail sends a stored email notification. Safe to retry.
func (s *Service) DeliverEmail(ctx context.Context, notificationID id.ID) error {
	return s.deliver(ctx, notificationID, ChannelEmail, func(ctx context.Context, n *Notification) error {
		return s.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	})
}

// DeliverSMS sends a stored SMS notification. Safe to retry.
func (s *Service) DeliverSMS(ctx context.Context, notificationID id.ID) error {
	return s.deliver(ctx, notificationID, ChannelSMS, func(ctx context.Context, n *Notification) error {
		return s.sms.SendSMS(ctx, n.Recipient, n.Body)
	})
}

func (s *Service) deliver(ctx context.Context, notificationID id.ID, channel Channel, send func(context.Context, *Notification) error) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n.Channel != channel {
		return fmt.Errorf("notification %s is a %s notification, not %s", n.ID, n.Channel, channel)
	}
	if n.Status == StatusSent {
		return nil
	}

	if err := send(ctx, n); err != nil {
		if markErr := s.repo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
			logger.Error(ctx, "mark notification failed", "notification_id", n.ID, "error", markErr)
		}
		return fmt.Errorf("send %s to %s: %w", channel, n.Recipient, err)
	}

	if err := s.repo.MarkSent(ctx, n.ID); err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// List returns the delivery log, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Notification, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}
