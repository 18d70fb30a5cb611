package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"procura/internal/domain/notification"
)

// Client submits delivery tasks to the queue. It implements
// notification.Enqueuer.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

var _ notification.Enqueuer = (*Client)(nil)

// Enqueue schedules delivery of a stored notification on the channel's
// task type.
func (c *Client) Enqueue(ctx context.Context, n *notification.Notification) error {
	var (
		task *asynq.Task
		err  error
	)
	switch n.Channel {
	case notification.ChannelEmail:
		task, err = NewEmailTask(n.ID)
	case notification.ChannelSMS:
		task, err = NewSMSTask(n.ID)
	default:
		return fmt.Errorf("unknown notification channel %q", n.Channel)
	}
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
