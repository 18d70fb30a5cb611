// Package unit provides the Unit catalog.
// Units represent measurement units for products (pieces, kilograms, liters).
package unit

import (
	"context"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
)

// Unit represents a measurement unit.
type Unit struct {
	entity.Catalog

	// Symbol is the short symbol (e.g., "kg", "m", "pcs")
	Symbol string `db:"symbol" json:"symbol"`

	// Precision is the number of fractional digits allowed for quantities
	// in this unit (0 for pieces, up to 4)
	Precision int `db:"precision" json:"precision"`

	// Description is a free-form note
	Description *string `db:"description" json:"description,omitempty"`
}

// NewUnit creates a new Unit with required fields.
func NewUnit(code, name, symbol string) *Unit {
	return &Unit{
		Catalog: entity.NewCatalog(code, name),
		Symbol:  symbol,
	}
}

// Validate implements entity.Validatable interface.
func (u *Unit) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := u.Catalog.Validate(ctx); err != nil {
		return err
	}

	// Symbol is required
	if u.Symbol == "" {
		return apperror.NewValidation("symbol is required").
			WithDetail("field", "symbol")
	}

	// Quantities are stored with 4 fractional digits at most
	if u.Precision < 0 || u.Precision > 4 {
		return apperror.NewValidation("precision must be between 0 and 4").
			WithDetail("field", "precision").
			WithDetail("value", u.Precision)
	}

	return nil
}
