package security

import (
	"context"
	"time"

	"procura/internal/core/apperror"
)

// DeliveryPolicy defines rules for supplier-confirmed delivery dates.
// Deployments differ in how hard the required date is (strict contract
// delivery vs a grace window).
type DeliveryPolicy interface {
	// CanConfirm checks if the confirmed date is acceptable against the required date
	CanConfirm(ctx context.Context, confirmed, required time.Time) error

	// IsLate reports whether the confirmed date misses the required date
	IsLate(confirmed, required time.Time) bool
}

const dateLayout = "2006-01-02"

// StrictDeliveryPolicy requires confirmation on or before the required date.
type StrictDeliveryPolicy struct{}

func (StrictDeliveryPolicy) CanConfirm(ctx context.Context, confirmed, required time.Time) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if confirmed.Before(today) {
		return apperror.NewDeliveryDateViolation(
			"confirmed delivery date is in the past",
			confirmed.Format(dateLayout), required.Format(dateLayout),
		)
	}
	if confirmed.After(required) {
		return apperror.NewDeliveryDateViolation(
			"confirmed delivery date is after the required date",
			confirmed.Format(dateLayout), required.Format(dateLayout),
		)
	}
	return nil
}

func (StrictDeliveryPolicy) IsLate(confirmed, required time.Time) bool {
	return confirmed.After(required)
}

// FlexibleDeliveryPolicy allows confirmation up to GraceDays past the
// required date. Late confirmations inside the window are accepted and
// flagged, beyond the window they are rejected.
type FlexibleDeliveryPolicy struct {
	GraceDays int
}

// NewFlexibleDeliveryPolicy creates a policy with the given grace window.
func NewFlexibleDeliveryPolicy(graceDays int) *FlexibleDeliveryPolicy {
	return &FlexibleDeliveryPolicy{GraceDays: graceDays}
}

func (p *FlexibleDeliveryPolicy) CanConfirm(ctx context.Context, confirmed, required time.Time) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if confirmed.Before(today) {
		return apperror.NewDeliveryDateViolation(
			"confirmed delivery date is in the past",
			confirmed.Format(dateLayout), required.Format(dateLayout),
		)
	}
	limit := required.AddDate(0, 0, p.GraceDays)
	if confirmed.After(limit) {
		return apperror.NewDeliveryDateViolation(
			"confirmed delivery date exceeds the grace window",
			confirmed.Format(dateLayout), required.Format(dateLayout),
		).WithDetail("grace_days", p.GraceDays)
	}
	return nil
}

func (p *FlexibleDeliveryPolicy) IsLate(confirmed, required time.Time) bool {
	return confirmed.After(required)
}

// OpenDeliveryPolicy allows any future date (for development/testing).
type OpenDeliveryPolicy struct{}

func (OpenDeliveryPolicy) CanConfirm(ctx context.Context, confirmed, required time.Time) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if confirmed.Before(today) {
		return apperror.NewDeliveryDateViolation(
			"confirmed delivery date is in the past",
			confirmed.Format(dateLayout), required.Format(dateLayout),
		)
	}
	return nil
}

func (OpenDeliveryPolicy) IsLate(confirmed, required time.Time) bool {
	return confirmed.After(required)
}
