package commitment

import (
	"context"
	"testing"
	"time"

	"procura/internal/core/entity"
	"procura/internal/core/id"
	"procura/internal/core/types"
)

type fakeRepo struct {
	movements []entity.CommitmentMovement
	nets      []NetPosition
	balances  map[string]entity.CommitmentBalance
}

func (f *fakeRepo) CreateMovements(ctx context.Context, movements []entity.CommitmentMovement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.CommitmentMovement, error) {
	var out []entity.CommitmentMovement
	for _, m := range f.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) NetByRecorder(ctx context.Context, recorderID id.ID) ([]NetPosition, error) {
	// Recompute from recorded movements so release-after-release
	// sees the compensated state.
	type key struct {
		supplier id.ID
		product  id.ID
		period   time.Time
	}
	acc := make(map[key]types.Quantity)
	for _, m := range f.movements {
		if m.RecorderID != recorderID {
			continue
		}
		k := key{m.SupplierID, m.ProductID, m.Period}
		acc[k] += m.SignedQuantity()
	}

	out := make([]NetPosition, 0, len(acc))
	for k, q := range acc {
		out = append(out, NetPosition{
			SupplierID: k.supplier,
			ProductID:  k.product,
			Period:     k.period,
			Quantity:   q,
		})
	}
	out = append(out, f.nets...)
	return out, nil
}

func (f *fakeRepo) GetBalance(ctx context.Context, supplierID, productID id.ID, period time.Time) (entity.CommitmentBalance, error) {
	b := f.balances[supplierID.String()+productID.String()]
	return b, nil
}

func (f *fakeRepo) GetBalanceForUpdate(ctx context.Context, supplierID, productID id.ID, period time.Time) (entity.CommitmentBalance, error) {
	return f.GetBalance(ctx, supplierID, productID, period)
}

func (f *fakeRepo) GetBalancesBySupplier(ctx context.Context, supplierID id.ID, filter BalanceFilter) ([]entity.CommitmentBalance, error) {
	return nil, nil
}

func (f *fakeRepo) CommittedByProduct(ctx context.Context, productID id.ID, period time.Time) (map[id.ID]types.Quantity, error) {
	return nil, nil
}

func (f *fakeRepo) RecalculateBalances(ctx context.Context, supplierID, productID *id.ID) error {
	return nil
}

func TestCommitValidation(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()
	poID := id.New()

	good := entity.NewCommitmentMovement(poID, "PurchaseOrder", time.Now(), entity.RecordTypeCommit, id.New(), id.New(), types.NewQuantityFromFloat64(10))

	if err := svc.Commit(ctx, []entity.CommitmentMovement{good}); err != nil {
		t.Fatalf("Commit() valid movement: %v", err)
	}
	if len(repo.movements) != 1 {
		t.Fatalf("movements recorded = %d, want 1", len(repo.movements))
	}

	bad := good
	bad.RecordType = entity.RecordTypeRelease
	if err := svc.Commit(ctx, []entity.CommitmentMovement{bad}); err == nil {
		t.Error("Commit() accepted release record type")
	}

	bad = good
	bad.Quantity = types.Quantity(0)
	if err := svc.Commit(ctx, []entity.CommitmentMovement{bad}); err == nil {
		t.Error("Commit() accepted zero quantity")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	poID := id.New()
	supplierID := id.New()
	productID := id.New()
	period := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	commit := entity.NewCommitmentMovement(poID, "PurchaseOrder", period, entity.RecordTypeCommit, supplierID, productID, types.NewQuantityFromFloat64(120))
	if err := svc.Commit(ctx, []entity.CommitmentMovement{commit}); err != nil {
		t.Fatalf("Commit(): %v", err)
	}

	if err := svc.Release(ctx, poID, "PurchaseOrder"); err != nil {
		t.Fatalf("Release(): %v", err)
	}
	if len(repo.movements) != 2 {
		t.Fatalf("movements after release = %d, want 2", len(repo.movements))
	}

	release := repo.movements[1]
	if release.RecordType != entity.RecordTypeRelease {
		t.Errorf("record type = %s, want release", release.RecordType)
	}
	if got, want := release.Quantity.Float64(), 120.0; got != want {
		t.Errorf("released quantity = %v, want %v", got, want)
	}
	if release.Period != entity.MonthBucket(period) {
		t.Errorf("period = %v, want %v", release.Period, entity.MonthBucket(period))
	}

	// Second release finds a zero net position and writes nothing.
	if err := svc.Release(ctx, poID, "PurchaseOrder"); err != nil {
		t.Fatalf("second Release(): %v", err)
	}
	if len(repo.movements) != 2 {
		t.Errorf("movements after second release = %d, want 2", len(repo.movements))
	}
}

func TestReleaseSkipsForeignRecorder(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	commit := entity.NewCommitmentMovement(id.New(), "PurchaseOrder", time.Now(), entity.RecordTypeCommit, id.New(), id.New(), types.NewQuantityFromFloat64(50))
	if err := svc.Commit(ctx, []entity.CommitmentMovement{commit}); err != nil {
		t.Fatalf("Commit(): %v", err)
	}

	if err := svc.Release(ctx, id.New(), "PurchaseOrder"); err != nil {
		t.Fatalf("Release(): %v", err)
	}
	if len(repo.movements) != 1 {
		t.Errorf("movements = %d, want 1 (nothing released)", len(repo.movements))
	}
}
