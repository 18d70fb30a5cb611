// Package product provides the Product catalog.
// Products are the goods customers order and suppliers manufacture.
package product

import (
	"context"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
)

// ProductCategory groups related product types.
type ProductCategory string

const (
	CategoryComponent ProductCategory = "component"
	CategoryAssembly  ProductCategory = "assembly"
	CategoryRawStock  ProductCategory = "raw"
	CategoryFinished  ProductCategory = "finished"
)

// Product represents a product type that can be ordered and procured.
type Product struct {
	entity.Catalog

	// Category groups the product for reporting
	Category ProductCategory `db:"category" json:"category"`

	// SKU is the stock keeping unit (unique)
	SKU string `db:"sku" json:"sku"`

	// UnitID is the reference to the measurement unit
	UnitID *string `db:"unit_id" json:"unitId,omitempty"`

	// DefaultLeadTimeDays is used when a supplier capability has no own lead time
	DefaultLeadTimeDays int `db:"default_lead_time_days" json:"defaultLeadTimeDays"`

	// Active products can be ordered; inactive ones are kept for history
	Active bool `db:"active" json:"active"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name, sku string, category ProductCategory) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(code, name),
		Category: category,
		SKU:      sku,
		Active:   true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("SKU is required").
			WithDetail("field", "sku")
	}

	if !isValidCategory(p.Category) {
		return apperror.NewValidation("invalid product category").
			WithDetail("field", "category").
			WithDetail("value", string(p.Category))
	}

	if p.DefaultLeadTimeDays < 0 {
		return apperror.NewValidation("lead time cannot be negative").
			WithDetail("field", "defaultLeadTimeDays")
	}

	return nil
}

// --- Validation Helpers ---

func isValidCategory(c ProductCategory) bool {
	switch c {
	case CategoryComponent, CategoryAssembly, CategoryRawStock, CategoryFinished:
		return true
	}
	return false
}
