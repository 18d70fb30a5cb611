package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"procura/internal/core/apperror"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/infrastructure/storage/postgres"
)

const supplierTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txm *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			supplierTable,
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}

// FindByEmail retrieves a supplier by contact email.
func (r *SupplierRepo) FindByEmail(ctx context.Context, email string) (*supplier.Supplier, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"email": email}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("supplier", email)
		}
		return nil, err
	}
	return item, nil
}

var _ supplier.Repository = (*SupplierRepo)(nil)
