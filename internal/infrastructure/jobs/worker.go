package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"procura/internal/core/id"
	"procura/internal/domain/notification"
	"procura/pkg/logger"
)

// Deliverer sends stored notifications. Implemented by the notification
// service.
type Deliverer interface {
	DeliverEmail(ctx context.Context, notificationID id.ID) error
	DeliverSMS(ctx context.Context, notificationID id.ID) error
}

var _ Deliverer = (*notification.Service)(nil)

// Worker wraps the asynq server processing delivery tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker constructs a worker consuming the notification queues.
func NewWorker(redisOpts asynq.RedisClientOpt, deliverer Deliverer) *Worker {
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueNotifications: 5,
			QueueDefault:       1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskNotifyEmail, notifyHandler(deliverer.DeliverEmail))
	mux.HandleFunc(TaskNotifySMS, notifyHandler(deliverer.DeliverSMS))

	return &Worker{server: srv, mux: mux}
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func notifyHandler(deliver func(context.Context, id.ID) error) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload NotifyPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			logger.Error(ctx, "malformed notify payload", "task", t.Type(), "error", err)
			return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
		}
		notificationID, err := id.Parse(payload.NotificationID)
		if err != nil {
			logger.Error(ctx, "malformed notification id", "task", t.Type(), "id", payload.NotificationID)
			return fmt.Errorf("parse notification id: %w", asynq.SkipRetry)
		}
		return deliver(ctx, notificationID)
	}
}
