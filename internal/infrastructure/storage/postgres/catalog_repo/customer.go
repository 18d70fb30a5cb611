package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/catalogs/customer"
	"procura/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txm *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			customerTable,
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// FindByEmail retrieves a customer by contact email.
func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"email": email}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("customer", email)
		}
		return nil, err
	}
	return item, nil
}

// CustomerIDByEmail matches a registrant to a customer record. It
// implements auth.PartyResolver for self-signup binding.
func (r *CustomerRepo) CustomerIDByEmail(ctx context.Context, email string) (*id.ID, error) {
	item, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &item.ID, nil
}

var _ customer.Repository = (*CustomerRepo)(nil)
