// Package customer provides the Customer catalog.
// Customers submit orders for products with required delivery dates.
package customer

import (
	"context"
	"regexp"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Customer represents an ordering party.
type Customer struct {
	entity.Catalog

	// Email is the primary contact email (used for notifications)
	Email *string `db:"email" json:"email,omitempty"`

	// Phone is the primary contact phone (used for SMS notifications)
	Phone *string `db:"phone" json:"phone,omitempty"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// DeliveryAddress is the default shipping destination
	DeliveryAddress *string `db:"delivery_address" json:"deliveryAddress,omitempty"`

	// Active customers can place orders
	Active bool `db:"active" json:"active"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(code, name),
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}
