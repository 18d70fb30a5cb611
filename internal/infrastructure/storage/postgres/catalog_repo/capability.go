package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/domain/catalogs/supplier"
	"procura/internal/infrastructure/storage/postgres"
)

const capabilityTable = "cat_supplier_capabilities"

var capabilityCols = []string{
	"id", "supplier_id", "product_id",
	"max_monthly_capacity", "quality_score", "on_time_rate",
	"lead_time_days", "min_allocation", "unit_price", "updated_at",
}

// CapabilityRepo implements supplier.CapabilityRepository.
// Capabilities are keyed by (supplier_id, product_id).
type CapabilityRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCapabilityRepo creates a new capability repository.
func NewCapabilityRepo(txm *postgres.TxManager) *CapabilityRepo {
	return &CapabilityRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert inserts or replaces the capability for (supplier, product).
func (r *CapabilityRepo) Upsert(ctx context.Context, c *supplier.Capability) error {
	q := r.builder.Insert(capabilityTable).
		Columns(capabilityCols...).
		Values(
			c.ID, c.SupplierID, c.ProductID,
			c.MaxMonthlyCapacity, c.QualityScore, c.OnTimeRate,
			c.LeadTimeDays, c.MinAllocation, c.UnitPrice, c.UpdatedAt,
		).
		Suffix(`ON CONFLICT (supplier_id, product_id) DO UPDATE SET
			max_monthly_capacity = EXCLUDED.max_monthly_capacity,
			quality_score = EXCLUDED.quality_score,
			on_time_rate = EXCLUDED.on_time_rate,
			lead_time_days = EXCLUDED.lead_time_days,
			min_allocation = EXCLUDED.min_allocation,
			unit_price = EXCLUDED.unit_price,
			updated_at = EXCLUDED.updated_at`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert capability: %w", err)
	}

	return nil
}

// Get retrieves the capability for (supplier, product).
func (r *CapabilityRepo) Get(ctx context.Context, supplierID, productID id.ID) (*supplier.Capability, error) {
	q := r.builder.Select(capabilityCols...).
		From(capabilityTable).
		Where(squirrel.Eq{
			"supplier_id": supplierID,
			"product_id":  productID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c supplier.Capability
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("capability", supplierID.String()+"/"+productID.String())
		}
		return nil, fmt.Errorf("get capability: %w", err)
	}

	return &c, nil
}

// ListBySupplier returns all capabilities of a supplier.
func (r *CapabilityRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]*supplier.Capability, error) {
	q := r.builder.Select(capabilityCols...).
		From(capabilityTable).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		OrderBy("product_id")

	return r.selectMany(ctx, q)
}

// ListByProduct returns all capabilities for a product across suppliers.
func (r *CapabilityRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*supplier.Capability, error) {
	q := r.builder.Select(capabilityCols...).
		From(capabilityTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("supplier_id")

	return r.selectMany(ctx, q)
}

// Delete removes the capability for (supplier, product).
func (r *CapabilityRepo) Delete(ctx context.Context, supplierID, productID id.ID) error {
	q := r.builder.Delete(capabilityTable).
		Where(squirrel.Eq{
			"supplier_id": supplierID,
			"product_id":  productID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete capability: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("capability", supplierID.String()+"/"+productID.String())
	}

	return nil
}

func (r *CapabilityRepo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]*supplier.Capability, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*supplier.Capability
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select capabilities: %w", err)
	}

	return items, nil
}

var _ supplier.CapabilityRepository = (*CapabilityRepo)(nil)
