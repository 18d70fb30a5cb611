// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/internal/domain/registers/commitment"
	"procura/internal/infrastructure/storage/postgres"
)

const (
	commitmentMovementsTable = "reg_commitment_movements"
	commitmentBalancesTable  = "reg_commitment_balances"
)

var movementCols = []string{
	"line_id", "recorder_id", "recorder_type",
	"period", "record_type",
	"supplier_id", "product_id", "quantity", "created_at",
}

// CommitmentRepo implements commitment.Repository.
// Balances are maintained alongside movements in the same transaction,
// so reads never race a trigger.
type CommitmentRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCommitmentRepo creates a new commitment register repository.
func NewCommitmentRepo(txm *postgres.TxManager) *CommitmentRepo {
	return &CommitmentRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts movements and applies their deltas to
// the balance table.
func (r *CommitmentRepo) CreateMovements(ctx context.Context, movements []entity.CommitmentMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.RecorderID, m.RecorderType,
				m.Period, m.RecordType,
				m.SupplierID, m.ProductID, m.Quantity, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, commitmentMovementsTable, movementCols, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return r.applyDeltas(ctx, movements)
	}

	// Fallback: non-transactional insert (slower). Prefer calling CreateMovements within tx.
	q := r.builder.Insert(commitmentMovementsTable).Columns(movementCols...)
	for _, m := range movements {
		q = q.Values(
			m.LineID, m.RecorderID, m.RecorderType,
			m.Period, m.RecordType,
			m.SupplierID, m.ProductID, m.Quantity, m.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return r.applyDeltas(ctx, movements)
}

type balanceKey struct {
	supplierID id.ID
	productID  id.ID
	period     time.Time
}

// applyDeltas folds signed movement quantities into the balance table.
// Keys are processed in a stable order so concurrent writers lock
// balance rows in the same sequence.
func (r *CommitmentRepo) applyDeltas(ctx context.Context, movements []entity.CommitmentMovement) error {
	deltas := make(map[balanceKey]types.Quantity, len(movements))
	for i := range movements {
		m := &movements[i]
		key := balanceKey{m.SupplierID, m.ProductID, m.Period}
		deltas[key] += m.SignedQuantity()
	}

	keys := make([]balanceKey, 0, len(deltas))
	for key := range deltas {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.supplierID != b.supplierID {
			return a.supplierID.String() < b.supplierID.String()
		}
		if a.productID != b.productID {
			return a.productID.String() < b.productID.String()
		}
		return a.period.Before(b.period)
	})

	querier := r.txm.GetQuerier(ctx)
	now := time.Now().UTC()

	for _, key := range keys {
		_, err := querier.Exec(ctx, `
			INSERT INTO reg_commitment_balances
				(supplier_id, product_id, period, quantity, last_movement_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (supplier_id, product_id, period) DO UPDATE SET
				quantity = reg_commitment_balances.quantity + EXCLUDED.quantity,
				last_movement_at = EXCLUDED.last_movement_at,
				updated_at = EXCLUDED.updated_at
		`, key.supplierID, key.productID, key.period, deltas[key], now)
		if err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
	}

	return nil
}

// GetMovementsByRecorder retrieves movements for a document.
func (r *CommitmentRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.CommitmentMovement, error) {
	q := r.builder.Select(movementCols...).
		From(commitmentMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.CommitmentMovement
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// NetByRecorder returns the outstanding committed quantity per supplier,
// product and period for a recorder (commits minus releases).
func (r *CommitmentRepo) NetByRecorder(ctx context.Context, recorderID id.ID) ([]commitment.NetPosition, error) {
	sql := `
		SELECT supplier_id, product_id, period,
		       SUM(CASE WHEN record_type = 'commit' THEN quantity ELSE -quantity END) AS quantity
		FROM reg_commitment_movements
		WHERE recorder_id = $1
		GROUP BY supplier_id, product_id, period
		HAVING SUM(CASE WHEN record_type = 'commit' THEN quantity ELSE -quantity END) <> 0
		ORDER BY supplier_id, product_id, period
	`

	var positions []commitment.NetPosition
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &positions, sql, recorderID); err != nil {
		return nil, fmt.Errorf("net by recorder: %w", err)
	}

	return positions, nil
}

// GetBalance returns current balance for supplier+product+period.
// A missing row yields a zero balance, not an error.
func (r *CommitmentRepo) GetBalance(ctx context.Context, supplierID, productID id.ID, period time.Time) (entity.CommitmentBalance, error) {
	var balance entity.CommitmentBalance

	q := r.builder.Select(
		"supplier_id", "product_id", "period",
		"quantity", "last_movement_at", "updated_at",
	).From(commitmentBalancesTable).
		Where(squirrel.Eq{
			"supplier_id": supplierID,
			"product_id":  productID,
			"period":      period,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.CommitmentBalance{
				SupplierID: supplierID,
				ProductID:  productID,
				Period:     period,
				Quantity:   0,
			}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate returns balance with pessimistic lock.
func (r *CommitmentRepo) GetBalanceForUpdate(ctx context.Context, supplierID, productID id.ID, period time.Time) (entity.CommitmentBalance, error) {
	var balance entity.CommitmentBalance

	sql := `
		SELECT supplier_id, product_id, period, quantity, last_movement_at, updated_at
		FROM reg_commitment_balances
		WHERE supplier_id = $1 AND product_id = $2 AND period = $3
		FOR UPDATE
	`

	querier := r.txm.GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &balance, sql, supplierID, productID, period)
	if err != nil {
		if pgxscan.NotFound(err) {
			return entity.CommitmentBalance{
				SupplierID: supplierID,
				ProductID:  productID,
				Period:     period,
				Quantity:   0,
			}, nil
		}
		return balance, fmt.Errorf("get balance for update: %w", err)
	}

	return balance, nil
}

// GetBalancesBySupplier returns balances for a supplier.
func (r *CommitmentRepo) GetBalancesBySupplier(ctx context.Context, supplierID id.ID, filter commitment.BalanceFilter) ([]entity.CommitmentBalance, error) {
	q := r.builder.Select(
		"supplier_id", "product_id", "period",
		"quantity", "last_movement_at", "updated_at",
	).From(commitmentBalancesTable).
		Where(squirrel.Eq{"supplier_id": supplierID})

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	if filter.PeriodFrom != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.PeriodFrom})
	}

	if filter.PeriodTo != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.PeriodTo})
	}

	q = q.OrderBy("period", "product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.CommitmentBalance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// CommittedByProduct returns committed quantity per supplier for a
// product and period.
func (r *CommitmentRepo) CommittedByProduct(ctx context.Context, productID id.ID, period time.Time) (map[id.ID]types.Quantity, error) {
	sql := `
		SELECT supplier_id, quantity
		FROM reg_commitment_balances
		WHERE product_id = $1 AND period = $2 AND quantity <> 0
	`

	querier := r.txm.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, productID, period)
	if err != nil {
		return nil, fmt.Errorf("query committed by product: %w", err)
	}
	defer rows.Close()

	committed := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var supplierID id.ID
		var quantity types.Quantity
		if err := rows.Scan(&supplierID, &quantity); err != nil {
			return nil, fmt.Errorf("scan committed row: %w", err)
		}
		committed[supplierID] = quantity
	}

	return committed, rows.Err()
}

// RecalculateBalances rebuilds the balance table from movements.
func (r *CommitmentRepo) RecalculateBalances(ctx context.Context, supplierID, productID *id.ID) error {
	conds := ""
	var args []any
	argIdx := 1

	if supplierID != nil {
		conds += fmt.Sprintf(" AND supplier_id = $%d", argIdx)
		args = append(args, *supplierID)
		argIdx++
	}
	if productID != nil {
		conds += fmt.Sprintf(" AND product_id = $%d", argIdx)
		args = append(args, *productID)
	}

	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM reg_commitment_balances WHERE TRUE" + conds
	if _, err := querier.Exec(ctx, deleteSQL, args...); err != nil {
		return fmt.Errorf("clear balances: %w", err)
	}

	rebuildSQL := fmt.Sprintf(`
		INSERT INTO reg_commitment_balances
			(supplier_id, product_id, period, quantity, last_movement_at, updated_at)
		SELECT supplier_id, product_id, period,
		       SUM(CASE WHEN record_type = 'commit' THEN quantity ELSE -quantity END),
		       MAX(created_at), NOW()
		FROM reg_commitment_movements
		WHERE TRUE%s
		GROUP BY supplier_id, product_id, period
		HAVING SUM(CASE WHEN record_type = 'commit' THEN quantity ELSE -quantity END) <> 0
	`, conds)

	if _, err := querier.Exec(ctx, rebuildSQL, args...); err != nil {
		return fmt.Errorf("rebuild balances: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ commitment.Repository = (*CommitmentRepo)(nil)
