// Package commitment provides the supplier capacity commitment register service.
package commitment

import (
	"context"
	"fmt"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
	"procura/pkg/logger"
)

// Service provides business operations for the commitment register.
// Transactions are managed by the caller (planning service).
type Service struct {
	repo Repository
}

// NewService creates a new commitment register service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Commit records commitment movements for an executed allocation.
// Called during plan execution within a transaction.
func (s *Service) Commit(ctx context.Context, movements []entity.CommitmentMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if m.RecordType != entity.RecordTypeCommit {
			return apperror.NewValidation(fmt.Sprintf("movement %d: record type must be commit", i))
		}
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i))
		}
		if id.IsNil(m.RecorderID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: recorder_id is required", i))
		}
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "recorded commitments",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
	)

	return nil
}

// Release writes compensating movements for everything the recorder
// still holds. Releasing an already released recorder finds a zero net
// position and does nothing, which makes the operation idempotent.
func (s *Service) Release(ctx context.Context, recorderID id.ID, recorderType string) error {
	nets, err := s.repo.NetByRecorder(ctx, recorderID)
	if err != nil {
		return fmt.Errorf("net by recorder: %w", err)
	}

	movements := make([]entity.CommitmentMovement, 0, len(nets))
	for _, n := range nets {
		if !n.Quantity.IsPositive() {
			continue
		}
		movements = append(movements, entity.NewCommitmentMovement(
			recorderID,
			recorderType,
			n.Period,
			entity.RecordTypeRelease,
			n.SupplierID,
			n.ProductID,
			n.Quantity,
		))
	}

	if len(movements) == 0 {
		return nil
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "released commitments",
		"count", len(movements),
		"recorder_id", recorderID,
	)

	return nil
}

// Committed returns the committed quantity for supplier+product in a period.
func (s *Service) Committed(ctx context.Context, supplierID, productID id.ID, period time.Time) (types.Quantity, error) {
	balance, err := s.repo.GetBalance(ctx, supplierID, productID, entity.MonthBucket(period))
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance.Quantity, nil
}

// CommittedByProduct returns committed quantity per supplier for a
// product and period. Suppliers without commitments are absent.
func (s *Service) CommittedByProduct(ctx context.Context, productID id.ID, period time.Time) (map[id.ID]types.Quantity, error) {
	return s.repo.CommittedByProduct(ctx, productID, entity.MonthBucket(period))
}

// SupplierLoad returns commitment balances for a supplier.
func (s *Service) SupplierLoad(ctx context.Context, supplierID id.ID, filter BalanceFilter) ([]entity.CommitmentBalance, error) {
	return s.repo.GetBalancesBySupplier(ctx, supplierID, filter)
}

// MovementsFor returns the movement history of a document.
func (s *Service) MovementsFor(ctx context.Context, recorderID id.ID) ([]entity.CommitmentMovement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}

// Recalculate rebuilds balances from movements.
func (s *Service) Recalculate(ctx context.Context, supplierID, productID *id.ID) error {
	if err := s.repo.RecalculateBalances(ctx, supplierID, productID); err != nil {
		return fmt.Errorf("recalculate balances: %w", err)
	}

	logger.Info(ctx, "recalculated commitment balances")
	return nil
}
