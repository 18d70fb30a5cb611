package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"procura/internal/core/id"
	"procura/internal/domain"
	"procura/internal/domain/documents/customer_order"
	"procura/internal/infrastructure/storage/postgres"
)

const (
	customerOrdersTable     = "doc_customer_orders"
	customerOrderLinesTable = "doc_customer_order_lines"
)

// CustomerOrderRepo implements customer_order.Repository.
type CustomerOrderRepo struct {
	*BaseDocumentRepo[*customer_order.CustomerOrder]
}

// NewCustomerOrderRepo creates a new customer order repository.
func NewCustomerOrderRepo(txm *postgres.TxManager) *CustomerOrderRepo {
	return &CustomerOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			customerOrdersTable,
			postgres.ExtractDBColumns[customer_order.CustomerOrder](),
			func() *customer_order.CustomerOrder { return &customer_order.CustomerOrder{} },
		),
	}
}

// GetLines retrieves lines for a customer order.
func (r *CustomerOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]customer_order.OrderLine, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "quantity", "note").
		From(customerOrderLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []customer_order.OrderLine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines saves lines for a customer order (delete existing + insert new).
func (r *CustomerOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []customer_order.OrderLine) error {
	querier := r.txm.GetQuerier(ctx)

	// Delete existing lines
	deleteSQL := "DELETE FROM " + customerOrderLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	// Insert new lines
	q := r.Builder().
		Insert(customerOrderLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "quantity", "note")

	for _, line := range lines {
		q = q.Values(line.LineID, docID, line.LineNo, line.ProductID, line.Quantity, line.Note)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// List retrieves customer orders with filtering.
func (r *CustomerOrderRepo) List(ctx context.Context, filter customer_order.ListFilter) (domain.ListResult[*customer_order.CustomerOrder], error) {
	result := domain.ListResult[*customer_order.CustomerOrder]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.Priority != nil {
		q = q.Where(squirrel.Eq{"priority": *filter.Priority})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

var _ customer_order.Repository = (*CustomerOrderRepo)(nil)
