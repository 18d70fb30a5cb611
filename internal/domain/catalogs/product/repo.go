package product

import (
	"context"

	"procura/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves a product by SKU (unique).
	FindBySKU(ctx context.Context, sku string) (*Product, error)
}
