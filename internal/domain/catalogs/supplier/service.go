package supplier

import (
	"context"
	"fmt"
	"time"

	"procura/internal/core/apperror"
	"procura/internal/core/id"
	"procura/internal/core/numerator"
	"procura/internal/core/tx"
	"procura/internal/domain"
	"procura/pkg/logger"
)

// Service provides business logic for the Supplier catalog and capabilities.
type Service struct {
	*domain.CatalogService[*Supplier]
	repo      Repository
	caps      CapabilityRepository
	txManager tx.Manager
	numerator numerator.Generator
}

// NewService creates a new Supplier service.
func NewService(repo Repository, caps CapabilityRepository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Supplier]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "supplier",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		caps:           caps,
		txManager:      txManager,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate generates a code when none was provided.
func (s *Service) prepareForCreate(ctx context.Context, sup *Supplier) error {
	if sup.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SUP"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		sup.Code = code
	}
	return nil
}

// FindByEmail retrieves a supplier by contact email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Supplier, error) {
	return s.repo.FindByEmail(ctx, email)
}

// --- Capabilities ---

// ListCapabilities returns all capabilities of a supplier.
func (s *Service) ListCapabilities(ctx context.Context, supplierID id.ID) ([]*Capability, error) {
	if _, err := s.GetByID(ctx, supplierID); err != nil {
		return nil, err
	}
	return s.caps.ListBySupplier(ctx, supplierID)
}

// GetCapability retrieves one capability.
func (s *Service) GetCapability(ctx context.Context, supplierID, productID id.ID) (*Capability, error) {
	cap, err := s.caps.Get(ctx, supplierID, productID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("capability", fmt.Sprintf("%s/%s", supplierID, productID))
		}
		return nil, err
	}
	return cap, nil
}

// UpsertCapability creates or replaces the capability for (supplier, product).
func (s *Service) UpsertCapability(ctx context.Context, cap *Capability) error {
	if err := cap.Validate(ctx); err != nil {
		return err
	}
	if _, err := s.GetByID(ctx, cap.SupplierID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.caps.Upsert(ctx, cap)
	})
	if err != nil {
		return fmt.Errorf("upsert capability: %w", err)
	}

	logger.Info(ctx, "supplier capability saved",
		"supplier_id", cap.SupplierID,
		"product_id", cap.ProductID,
		"max_monthly_capacity", cap.MaxMonthlyCapacity.String())
	return nil
}

// DeleteCapability removes the capability for (supplier, product).
func (s *Service) DeleteCapability(ctx context.Context, supplierID, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.caps.Delete(ctx, supplierID, productID)
	})
}
