package entity

import (
	"context"
	"time"

	"procura/internal/core/apperror"
)

// DeliveryAware is a trait for documents that carry a required delivery date.
// Used for composition in CustomerOrder and PurchaseOrder.
type DeliveryAware struct {
	// RequiredDate is the date the goods must arrive by
	RequiredDate time.Time `db:"required_date" json:"requiredDate"`
}

// ValidateRequiredDate ensures a required delivery date is set.
func (d *DeliveryAware) ValidateRequiredDate(ctx context.Context) error {
	if d.RequiredDate.IsZero() {
		return apperror.NewValidation("required delivery date is required").
			WithDetail("field", "requiredDate")
	}
	return nil
}

// GetRequiredDate returns the required delivery date (useful for interfaces).
func (d *DeliveryAware) GetRequiredDate() time.Time {
	return d.RequiredDate
}

// IDeliveryAware is an interface for any document that has a required delivery date.
type IDeliveryAware interface {
	GetRequiredDate() time.Time
	ValidateRequiredDate(ctx context.Context) error
}
