package jobs

import (
	"context"

	"procura/internal/domain/dashboard"
	"procura/internal/domain/notification"
	"procura/internal/infrastructure/storage/postgres"
	"procura/pkg/logger"
)

// Dispatcher routes outbox messages to their consumers: the notification
// fan-out and the dashboard cache version. It implements
// postgres.OutboxHandler.
type Dispatcher struct {
	notifications *notification.Service
	dashboard     *dashboard.Service
}

// NewDispatcher wires the outbox relay to its downstream consumers.
// dashboardService may be nil when no Redis cache is configured.
func NewDispatcher(notifications *notification.Service, dashboardService *dashboard.Service) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		dashboard:     dashboardService,
	}
}

var _ postgres.OutboxHandler = (*Dispatcher)(nil)

// Handle fans an outbox message out to notifications and bumps the
// dashboard cache version. A failed cache bump does not fail the
// message: the cache self-heals on TTL expiry, while notification
// fan-out must be retried.
func (d *Dispatcher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	evt := notification.InboundEvent{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		Type:          msg.EventType,
		Payload:       msg.Payload,
	}
	if err := d.notifications.Dispatch(ctx, evt); err != nil {
		return err
	}

	if d.dashboard != nil {
		if err := d.dashboard.Invalidate(ctx); err != nil {
			logger.Warn(ctx, "dashboard cache bump failed",
				"event_id", msg.ID,
				"event_type", msg.EventType,
				"error", err,
			)
		}
	}
	return nil
}
