// Package supplier provides the Supplier catalog and supplier capabilities.
// Suppliers manufacture products; their per-product capabilities drive the
// distribution algorithm (capacity, quality, on-time performance).
package supplier

import (
	"context"
	"regexp"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Supplier represents a manufacturing partner.
type Supplier struct {
	entity.Catalog

	// Email is the primary contact email (purchase orders are sent here)
	Email *string `db:"email" json:"email,omitempty"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// ContactPerson is the primary contact name
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// Preferred suppliers win score ties and pass preference-based
	// eligibility rules
	Preferred bool `db:"preferred" json:"preferred"`

	// Active suppliers take part in distribution
	Active bool `db:"active" json:"active"`

	// Comment is a free-form note (rating history, contract remarks)
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewSupplier creates a new Supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
		Active:  true,
	}
}

// Validate implements entity.Validatable interface.
func (s *Supplier) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Email != nil && *s.Email != "" && !emailRE.MatchString(*s.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}
