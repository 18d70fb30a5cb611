package customer

import (
	"context"

	"procura/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// FindByEmail retrieves a customer by contact email.
	FindByEmail(ctx context.Context, email string) (*Customer, error)
}
