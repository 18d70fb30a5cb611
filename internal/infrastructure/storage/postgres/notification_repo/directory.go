package notification_repo

import (
	"context"
	"fmt"

	"procura/internal/domain/notification"
	"procura/internal/infrastructure/storage/postgres"
)

// PlannerDirectory implements notification.PlannerLookup over the user
// and role tables. Admins are included so a deployment without a
// dedicated planner still receives planner notifications.
type PlannerDirectory struct {
	txm *postgres.TxManager
}

// NewPlannerDirectory creates a planner contact lookup.
func NewPlannerDirectory(txm *postgres.TxManager) *PlannerDirectory {
	return &PlannerDirectory{txm: txm}
}

var _ notification.PlannerLookup = (*PlannerDirectory)(nil)

// PlannerContacts returns the contacts of active planner and admin users.
func (d *PlannerDirectory) PlannerContacts(ctx context.Context) ([]notification.Recipient, error) {
	query := `
		SELECT DISTINCT u.first_name, u.last_name, u.email, COALESCE(u.phone, '')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE u.is_active = true
		  AND u.deleted_at IS NULL
		  AND (u.is_admin = true OR r.code = 'planner')
	`

	rows, err := d.txm.GetQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query planner contacts: %w", err)
	}
	defer rows.Close()

	var out []notification.Recipient
	for rows.Next() {
		var first, last, email, phone string
		if err := rows.Scan(&first, &last, &email, &phone); err != nil {
			return nil, fmt.Errorf("scan planner contact: %w", err)
		}
		out = append(out, notification.Recipient{
			Name:  first + " " + last,
			Email: email,
			Phone: phone,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate planner contacts: %w", err)
	}
	return out, nil
}
