// Package notification_repo persists the notification delivery log.
package notification_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/notification"
	"procura/internal/infrastructure/storage/postgres"
)

const notificationTable = "sys_notifications"

var notificationCols = []string{
	"id", "event_id", "event_type", "aggregate_type", "aggregate_id",
	"channel", "recipient", "recipient_name", "subject", "body",
	"status", "attempts", "last_error", "created_at", "sent_at",
}

// NotificationRepo implements notification.Repository.
type NotificationRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewNotificationRepo creates a new notification repository.
func NewNotificationRepo(txm *postgres.TxManager) *NotificationRepo {
	return &NotificationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a row. The unique index on (event_id, recipient, channel)
// makes dispatch idempotent: replaying an outbox event inserts nothing and
// Create reports false.
func (r *NotificationRepo) Create(ctx context.Context, n *notification.Notification) (bool, error) {
	query, args, err := r.builder.
		Insert(notificationTable).
		Columns(notificationCols...).
		Values(
			n.ID, n.EventID, n.EventType, n.AggregateType, n.AggregateID,
			n.Channel, n.Recipient, n.RecipientName, n.Subject, n.Body,
			n.Status, n.Attempts, n.LastError, n.CreatedAt, n.SentAt,
		).
		Suffix("ON CONFLICT (event_id, recipient, channel) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves one notification row.
func (r *NotificationRepo) GetByID(ctx context.Context, notificationID id.ID) (*notification.Notification, error) {
	query, args, err := r.builder.
		Select(notificationCols...).
		From(notificationTable).
		Where(squirrel.Eq{"id": notificationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	var n notification.Notification
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &n, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("notification", notificationID.String())
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

// MarkSent records a successful delivery attempt.
func (r *NotificationRepo) MarkSent(ctx context.Context, notificationID id.ID) error {
	query, args, err := r.builder.
		Update(notificationTable).
		Set("status", notification.StatusSent).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", nil).
		Set("sent_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": notificationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("notification", notificationID.String())
	}
	return nil
}

// MarkFailed records a failed delivery attempt. The row stays in the log
// with the last error; the task queue decides whether to retry.
func (r *NotificationRepo) MarkFailed(ctx context.Context, notificationID id.ID, reason string) error {
	query, args, err := r.builder.
		Update(notificationTable).
		Set("status", notification.StatusFailed).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", reason).
		Where(squirrel.Eq{"id": notificationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("notification", notificationID.String())
	}
	return nil
}

// List returns one page of the delivery log, newest first, with the total
// count across the filtered set.
func (r *NotificationRepo) List(ctx context.Context, filter notification.ListFilter) ([]notification.Notification, int64, error) {
	q := r.builder.
		Select(notificationCols...).
		From(notificationTable)

	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Channel != "" {
		q = q.Where(squirrel.Eq{"channel": filter.Channel})
	}
	if filter.EventType != "" {
		q = q.Where(squirrel.Eq{"event_type": filter.EventType})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.DateTo})
	}

	querier := r.txm.GetQuerier(ctx)

	countQuery, countArgs, err := r.builder.
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int64
	if err := querier.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var items []notification.Notification
	if err := pgxscan.Select(ctx, querier, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

// Ensure interface compliance
var _ notification.Repository = (*NotificationRepo)(nil)
