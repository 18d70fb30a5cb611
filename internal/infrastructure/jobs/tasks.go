// Package jobs wires background delivery onto asynq queues. The outbox
// dispatcher enqueues one task per stored notification; the worker
// process consumes them and reports back through the notification
// service.
package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"procura/internal/core/id"
)

const (
	// QueueDefault is the default queue for background jobs.
	QueueDefault = "default"
	// QueueNotifications carries email and SMS delivery tasks.
	QueueNotifications = "notifications"

	// TaskNotifyEmail delivers one stored email notification.
	TaskNotifyEmail = "notify:email"
	// TaskNotifySMS delivers one stored SMS notification.
	TaskNotifySMS = "notify:sms"
)

// NotifyPayload references a stored notification row.
type NotifyPayload struct {
	NotificationID string `json:"notificationId"`
}

// NewEmailTask constructs an email delivery task.
func NewEmailTask(notificationID id.ID) (*asynq.Task, error) {
	return newNotifyTask(TaskNotifyEmail, notificationID)
}

// NewSMSTask constructs an SMS delivery task.
func NewSMSTask(notificationID id.ID) (*asynq.Task, error) {
	return newNotifyTask(TaskNotifySMS, notificationID)
}

func newNotifyTask(taskType string, notificationID id.ID) (*asynq.Task, error) {
	data, err := json.Marshal(NotifyPayload{NotificationID: notificationID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data), nil
}
