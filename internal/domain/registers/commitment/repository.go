// Package commitment provides the supplier capacity commitment register.
package commitment

import (
	"context"
	"time"

	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
)

// Repository defines operations for the commitment register.
type Repository interface {
	// Movement operations

	// CreateMovements batch inserts movements (used during plan execution
	// and release)
	CreateMovements(ctx context.Context, movements []entity.CommitmentMovement) error

	// GetMovementsByRecorder retrieves all movements for a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.CommitmentMovement, error)

	// NetByRecorder returns the outstanding committed quantity per
	// supplier, product and period for a recorder (commits minus releases).
	NetByRecorder(ctx context.Context, recorderID id.ID) ([]NetPosition, error)

	// Balance operations

	// GetBalance returns current balance for supplier+product+period.
	// A missing row yields a zero balance, not an error.
	GetBalance(ctx context.Context, supplierID, productID id.ID, period time.Time) (entity.CommitmentBalance, error)

	// GetBalanceForUpdate returns balance with row lock for capacity control
	GetBalanceForUpdate(ctx context.Context, supplierID, productID id.ID, period time.Time) (entity.CommitmentBalance, error)

	// GetBalancesBySupplier returns balances for a supplier
	GetBalancesBySupplier(ctx context.Context, supplierID id.ID, filter BalanceFilter) ([]entity.CommitmentBalance, error)

	// CommittedByProduct returns committed quantity per supplier for a
	// product and period (input to the distribution algorithm)
	CommittedByProduct(ctx context.Context, productID id.ID, period time.Time) (map[id.ID]types.Quantity, error)

	// Maintenance

	// RecalculateBalances rebuilds the balance table from movements
	RecalculateBalances(ctx context.Context, supplierID, productID *id.ID) error
}

// NetPosition is the outstanding commitment of a recorder in one
// supplier+product+period cell.
type NetPosition struct {
	SupplierID id.ID          `db:"supplier_id" json:"supplierId"`
	ProductID  id.ID          `db:"product_id" json:"productId"`
	Period     time.Time      `db:"period" json:"period"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []id.ID
	PeriodFrom  *time.Time
	PeriodTo    *time.Time
	ExcludeZero bool
}
