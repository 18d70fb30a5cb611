package supplier

import (
	"context"

	"procura/internal/core/id"
	"procura/internal/domain"
)

// Repository defines the interface for Supplier persistence.
type Repository interface {
	domain.CatalogRepository[*Supplier]

	// FindByEmail retrieves a supplier by contact email.
	FindByEmail(ctx context.Context, email string) (*Supplier, error)
}

// CapabilityRepository persists supplier capabilities.
type CapabilityRepository interface {
	// Upsert inserts or replaces the capability for (supplier, product).
	Upsert(ctx context.Context, c *Capability) error

	// Get retrieves the capability for (supplier, product).
	Get(ctx context.Context, supplierID, productID id.ID) (*Capability, error)

	// ListBySupplier returns all capabilities of a supplier.
	ListBySupplier(ctx context.Context, supplierID id.ID) ([]*Capability, error)

	// ListByProduct returns all capabilities for a product across suppliers.
	// This is the distribution algorithm's supplier pool.
	ListByProduct(ctx context.Context, productID id.ID) ([]*Capability, error)

	// Delete removes the capability for (supplier, product).
	Delete(ctx context.Context, supplierID, productID id.ID) error
}
