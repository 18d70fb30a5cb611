package notification

import (
	"context"
	"fmt"

	"procura/internal/core/id"
	"procura/internal/domain/catalogs/customer"
	"procura/internal/domain/catalogs/supplier"
)

// PlannerLookup lists users who receive planner notifications.
// Implemented by the auth service over users holding the planner role.
type PlannerLookup interface {
	PlannerContacts(ctx context.Context) ([]Recipient, error)
}

// CatalogDirectory resolves recipients from the supplier and customer
// catalogs plus the planner user list.
type CatalogDirectory struct {
	suppliers supplier.Repository
	customers customer.Repository
	planners  PlannerLookup
}

// NewCatalogDirectory creates a directory over the catalogs.
func NewCatalogDirectory(suppliers supplier.Repository, customers customer.Repository, planners PlannerLookup) *CatalogDirectory {
	return &CatalogDirectory{suppliers: suppliers, customers: customers, planners: planners}
}

var _ Directory = (*CatalogDirectory)(nil)

// SupplierContact returns the supplier's primary contact.
func (d *CatalogDirectory) SupplierContact(ctx context.Context, supplierID id.ID) (*Recipient, error) {
	sup, err := d.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("get supplier %s: %w", supplierID, err)
	}
	r := &Recipient{Name: sup.Name}
	if sup.ContactPerson != nil {
		r.Name = *sup.ContactPerson
	}
	if sup.Email != nil {
		r.Email = *sup.Email
	}
	if sup.Phone != nil {
		r.Phone = *sup.Phone
	}
	return r, nil
}

// CustomerContact returns the customer's primary contact.
func (d *CatalogDirectory) CustomerContact(ctx context.Context, customerID id.ID) (*Recipient, error) {
	cus, err := d.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", customerID, err)
	}
	r := &Recipient{Name: cus.Name}
	if cus.ContactPerson != nil {
		r.Name = *cus.ContactPerson
	}
	if cus.Email != nil {
		r.Email = *cus.Email
	}
	if cus.Phone != nil {
		r.Phone = *cus.Phone
	}
	return r, nil
}

// Planners returns contacts for all planner users.
func (d *CatalogDirectory) Planners(ctx context.Context) ([]Recipient, error) {
	if d.planners == nil {
		return nil, nil
	}
	return d.planners.PlannerContacts(ctx)
}
